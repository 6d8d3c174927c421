package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScopeMatching is the consent scope that makes a user visible in a
// client's candidate pools.
const ScopeMatching = "matching"

// ConsentGrant records that a user authorised a client to access their data.
type ConsentGrant struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  string     `json:"client_id"`
	UserID    string     `json:"user_id"`
	Scopes    []string   `json:"scopes"`
	GrantedAt time.Time  `json:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the grant is unrevoked and covers scope.
func (g *ConsentGrant) Active(scope string) bool {
	if g == nil || g.RevokedAt != nil {
		return false
	}
	for _, s := range g.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
