package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

type assessmentRepository struct {
	db *sqlx.DB
}

func NewAssessmentRepository(db *sqlx.DB) repository.AssessmentRepository {
	return &assessmentRepository{db: db}
}

type answersRow struct {
	UserID      string    `db:"user_id"`
	Answers     []byte    `db:"answers"`
	Version     float64   `db:"version"`
	SubmittedAt time.Time `db:"submitted_at"`
}

func (r *assessmentRepository) GetByUserID(ctx context.Context, userID string) (*domain.AssessmentAnswers, error) {
	var row answersRow
	query := `SELECT user_id, answers, version, submitted_at FROM assessment_answers WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAnswersNotFound
		}
		return nil, err
	}

	var answers domain.Answers
	if err := json.Unmarshal(row.Answers, &answers); err != nil {
		return nil, fmt.Errorf("decode answers for %s: %w", userID, err)
	}
	return &domain.AssessmentAnswers{
		UserID:      row.UserID,
		Answers:     answers,
		Version:     row.Version,
		SubmittedAt: row.SubmittedAt,
	}, nil
}

func (r *assessmentRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM assessment_answers ORDER BY user_id`); err != nil {
		return nil, err
	}
	return ids, nil
}
