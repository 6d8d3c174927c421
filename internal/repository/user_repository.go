package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type ClientRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}
