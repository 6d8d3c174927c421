package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID          string     `db:"id"`
	Gender      *string    `db:"gender"`
	BirthDate   *time.Time `db:"birth_date"`
	LocationLat *float64   `db:"location_lat"`
	LocationLon *float64   `db:"location_lon"`
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var row userRow
	query := `SELECT id, gender, birth_date, location_lat, location_lon FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	user := &domain.User{ID: row.ID, BirthDate: row.BirthDate}
	if row.Gender != nil {
		g := domain.Gender(*row.Gender)
		user.Gender = &g
	}
	if row.LocationLat != nil && row.LocationLon != nil {
		user.Location = &domain.GeoPoint{Lat: *row.LocationLat, Lon: *row.LocationLon}
	}
	return user, nil
}

type clientRepository struct {
	db *sqlx.DB
}

func NewClientRepository(db *sqlx.DB) repository.ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	var client domain.Client
	query := `SELECT id, name, api_key_hash, tier, default_match_limit FROM clients WHERE id = $1`
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}
