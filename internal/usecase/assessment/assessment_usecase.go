package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

// Embedder turns the four axis texts into vectors in one call.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type AssessmentUseCase struct {
	questionnaire  *Questionnaire
	profileRepo    repository.ProfileRepository
	assessmentRepo repository.AssessmentRepository
	embedder       Embedder
	logger         *zap.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
}

func NewAssessmentUseCase(
	questionnaire *Questionnaire,
	profileRepo repository.ProfileRepository,
	assessmentRepo repository.AssessmentRepository,
	embedder Embedder,
	logger *zap.Logger,
	m *metrics.Metrics,
) *AssessmentUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentUseCase{
		questionnaire:  questionnaire,
		profileRepo:    profileRepo,
		assessmentRepo: assessmentRepo,
		embedder:       embedder,
		logger:         logger,
		metrics:        m,
		now:            time.Now,
	}
}

// SubmitRequest represents an assessment submission
type SubmitRequest struct {
	UserID  string         `json:"user_id" binding:"omitempty,uuid"`
	Answers domain.Answers `json:"answers" binding:"required"`
}

// SubmitResult is returned by Submit and Regenerate
type SubmitResult struct {
	Success         bool `json:"success"`
	ProfileComplete bool `json:"profile_complete"`
}

func (uc *AssessmentUseCase) Questionnaire() *Questionnaire {
	return uc.questionnaire
}

// Submit assembles and embeds the answers, then stores the profile and the
// answers together. Nothing is written if embedding fails.
func (uc *AssessmentUseCase) Submit(ctx context.Context, userID string, answers domain.Answers) (*SubmitResult, error) {
	if err := ValidateAnswers(uc.questionnaire, answers); err != nil {
		uc.metrics.ObserveSubmission("invalid")
		return nil, err
	}

	stored := &domain.AssessmentAnswers{
		UserID:      userID,
		Answers:     answers,
		Version:     uc.questionnaire.Version,
		SubmittedAt: uc.now(),
	}
	result, err := uc.build(ctx, userID, stored)
	if err != nil {
		uc.metrics.ObserveSubmission(outcomeFor(err))
		return nil, err
	}
	uc.metrics.ObserveSubmission("success")
	return result, nil
}

// Regenerate rebuilds a profile from the answers already on file, replacing
// the old descriptions and embeddings.
func (uc *AssessmentUseCase) Regenerate(ctx context.Context, userID string) (*SubmitResult, error) {
	stored, err := uc.assessmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answers: %w", err)
	}
	stored.Version = uc.questionnaire.Version
	return uc.build(ctx, userID, stored)
}

func (uc *AssessmentUseCase) build(ctx context.Context, userID string, stored *domain.AssessmentAnswers) (*SubmitResult, error) {
	texts := Assemble(uc.questionnaire, stored.Answers)

	vectors, err := uc.embedder.EmbedBatch(ctx, texts[:])
	if err != nil {
		uc.logger.Warn("assessment embedding failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if len(vectors) != domain.AxisCount {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", domain.ErrEmbeddingProvider, domain.AxisCount, len(vectors))
	}

	profile := &domain.Profile{
		UserID:            userID,
		AssessmentVersion: uc.questionnaire.Version,
	}
	profile.SetDescriptions(texts)
	copy(profile.Embeddings[:], vectors)

	if err := uc.profileRepo.Upsert(ctx, profile, stored); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	uc.logger.Info("profile updated",
		zap.String("user_id", userID),
		zap.Float64("assessment_version", profile.AssessmentVersion),
		zap.Int("dimensions", profile.Embeddings.Dimensions()),
	)
	return &SubmitResult{Success: true, ProfileComplete: profile.IsComplete()}, nil
}

// Status reports whether the user has a complete profile. A user without a
// profile is reported as incomplete rather than missing.
func (uc *AssessmentUseCase) Status(ctx context.Context, userID string) (*domain.ProfileStatus, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return &domain.ProfileStatus{UserID: userID}, nil
		}
		return nil, err
	}
	updatedAt := profile.UpdatedAt
	return &domain.ProfileStatus{
		UserID:            userID,
		ProfileComplete:   profile.IsComplete(),
		AssessmentVersion: profile.AssessmentVersion,
		UpdatedAt:         &updatedAt,
	}, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingProvider):
		return "embedding_error"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	}
	return "error"
}
