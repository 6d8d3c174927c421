package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

type consentRepository struct {
	db *sqlx.DB
}

func NewConsentRepository(db *sqlx.DB) repository.ConsentRepository {
	return &consentRepository{db: db}
}

func (r *consentRepository) ListGrantedUserIDs(ctx context.Context, clientID, scope string) (map[string]struct{}, error) {
	var ids []string
	query := `
		SELECT user_id FROM consent_grants
		WHERE client_id = $1 AND revoked_at IS NULL AND $2 = ANY(scopes)
	`
	if err := r.db.SelectContext(ctx, &ids, query, clientID, scope); err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *consentRepository) HasGrant(ctx context.Context, clientID, userID, scope string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM consent_grants
			WHERE client_id = $1 AND user_id = $2 AND revoked_at IS NULL AND $3 = ANY(scopes)
		)
	`
	if err := r.db.GetContext(ctx, &exists, query, clientID, userID, scope); err != nil {
		return false, err
	}
	return exists, nil
}

// Grant records or re-activates a grant. Scopes replace any previous set.
func (r *consentRepository) Grant(ctx context.Context, grant *domain.ConsentGrant) error {
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	query := `
		INSERT INTO consent_grants (id, client_id, user_id, scopes, granted_at, revoked_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, NULL)
		ON CONFLICT (client_id, user_id) DO UPDATE
		SET scopes = EXCLUDED.scopes, granted_at = CURRENT_TIMESTAMP, revoked_at = NULL
		RETURNING id, granted_at
	`
	err := r.db.QueryRowContext(ctx, query, grant.ID, grant.ClientID, grant.UserID, pq.Array(grant.Scopes)).
		Scan(&grant.ID, &grant.GrantedAt)
	if err != nil {
		return mapWriteError(err)
	}
	grant.RevokedAt = nil
	return nil
}

func (r *consentRepository) Revoke(ctx context.Context, clientID, userID string) error {
	query := `
		UPDATE consent_grants SET revoked_at = CURRENT_TIMESTAMP
		WHERE client_id = $1 AND user_id = $2 AND revoked_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, clientID, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrConsentNotFound
	}
	return nil
}
