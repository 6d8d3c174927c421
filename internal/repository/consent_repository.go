package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// ConsentRepository is the Consent Index: which users granted which client
// access to which scopes.
type ConsentRepository interface {
	ListGrantedUserIDs(ctx context.Context, clientID, scope string) (map[string]struct{}, error)
	HasGrant(ctx context.Context, clientID, userID, scope string) (bool, error)
	Grant(ctx context.Context, grant *domain.ConsentGrant) error
	Revoke(ctx context.Context, clientID, userID string) error
}
