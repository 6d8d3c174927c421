package repository

import (
	"context"
	"iter"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// ProfileRepository is the Profile Store. Upsert writes a profile together
// with the answers it was built from so readers observe all four embeddings
// or none of them.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// ListCandidates streams profiles that may pass filter. Implementations
	// may push down any subset of the filter; iteration stops as soon as the
	// consumer stops pulling or ctx is done.
	ListCandidates(ctx context.Context, filter *domain.CandidateFilter) iter.Seq2[*domain.MatchCandidate, error]
	Upsert(ctx context.Context, profile *domain.Profile, answers *domain.AssessmentAnswers) error
}

type AssessmentRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.AssessmentAnswers, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}
