package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/gdugdh24/mpit2026-matching/internal/vecmath"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

type profileRow struct {
	UserID                 string    `db:"user_id"`
	PsychologicalDesc      *string   `db:"psychological_desc"`
	ValuesDesc             *string   `db:"values_desc"`
	InterestsDesc          *string   `db:"interests_desc"`
	BehavioralDesc         *string   `db:"behavioral_desc"`
	PsychologicalEmbedding []byte    `db:"psychological_embedding"`
	ValuesEmbedding        []byte    `db:"values_embedding"`
	InterestsEmbedding     []byte    `db:"interests_embedding"`
	BehavioralEmbedding    []byte    `db:"behavioral_embedding"`
	AssessmentVersion      float64   `db:"assessment_version"`
	UpdatedAt              time.Time `db:"updated_at"`
}

func (r *profileRow) toDomain() (*domain.Profile, error) {
	embeddings, err := decodeAxes(r.PsychologicalEmbedding, r.ValuesEmbedding, r.InterestsEmbedding, r.BehavioralEmbedding)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", r.UserID, err)
	}
	return &domain.Profile{
		UserID:            r.UserID,
		PsychologicalDesc: r.PsychologicalDesc,
		ValuesDesc:        r.ValuesDesc,
		InterestsDesc:     r.InterestsDesc,
		BehavioralDesc:    r.BehavioralDesc,
		Embeddings:        embeddings,
		AssessmentVersion: r.AssessmentVersion,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

func decodeAxes(blobs ...[]byte) (domain.AxisVectors, error) {
	var out domain.AxisVectors
	for i, b := range blobs {
		vec, err := vecmath.DecodeEmbedding(b)
		if err != nil {
			return out, fmt.Errorf("%s embedding: %w", domain.Axes[i], err)
		}
		out[i] = vec
	}
	return out, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	var row profileRow
	query := `
		SELECT user_id, psychological_desc, values_desc, interests_desc, behavioral_desc,
		       psychological_embedding, values_embedding, interests_embedding, behavioral_embedding,
		       assessment_version, updated_at
		FROM profiles WHERE user_id = $1
	`
	err := r.db.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return row.toDomain()
}

// Upsert writes the answers and the profile in one transaction. Each table
// receives a single INSERT ... ON CONFLICT so the four embedding columns
// change together.
func (r *profileRepository) Upsert(ctx context.Context, profile *domain.Profile, answers *domain.AssessmentAnswers) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if answers != nil {
		raw, err := json.Marshal(answers.Answers)
		if err != nil {
			return fmt.Errorf("encode answers: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO assessment_answers (user_id, answers, version, submitted_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE
			SET answers = EXCLUDED.answers, version = EXCLUDED.version, submitted_at = EXCLUDED.submitted_at
		`, answers.UserID, raw, answers.Version, answers.SubmittedAt)
		if err != nil {
			return mapWriteError(err)
		}
	}

	e := profile.Embeddings
	err = tx.QueryRowContext(ctx, `
		INSERT INTO profiles (
			user_id, psychological_desc, values_desc, interests_desc, behavioral_desc,
			psychological_embedding, values_embedding, interests_embedding, behavioral_embedding,
			assessment_version, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE
		SET psychological_desc = EXCLUDED.psychological_desc,
		    values_desc = EXCLUDED.values_desc,
		    interests_desc = EXCLUDED.interests_desc,
		    behavioral_desc = EXCLUDED.behavioral_desc,
		    psychological_embedding = EXCLUDED.psychological_embedding,
		    values_embedding = EXCLUDED.values_embedding,
		    interests_embedding = EXCLUDED.interests_embedding,
		    behavioral_embedding = EXCLUDED.behavioral_embedding,
		    assessment_version = EXCLUDED.assessment_version,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING updated_at
	`,
		profile.UserID, profile.PsychologicalDesc, profile.ValuesDesc, profile.InterestsDesc, profile.BehavioralDesc,
		vecmath.EncodeEmbedding(e[domain.AxisPsychological]),
		vecmath.EncodeEmbedding(e[domain.AxisValues]),
		vecmath.EncodeEmbedding(e[domain.AxisInterests]),
		vecmath.EncodeEmbedding(e[domain.AxisBehavioral]),
		profile.AssessmentVersion,
	).Scan(&profile.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}

	return tx.Commit()
}

type candidateRow struct {
	UserID                 string     `db:"user_id"`
	Gender                 *string    `db:"gender"`
	BirthDate              *time.Time `db:"birth_date"`
	LocationLat            *float64   `db:"location_lat"`
	LocationLon            *float64   `db:"location_lon"`
	PsychologicalEmbedding []byte     `db:"psychological_embedding"`
	ValuesEmbedding        []byte     `db:"values_embedding"`
	InterestsEmbedding     []byte     `db:"interests_embedding"`
	BehavioralEmbedding    []byte     `db:"behavioral_embedding"`
}

func (r *candidateRow) toDomain() (*domain.MatchCandidate, error) {
	embeddings, err := decodeAxes(r.PsychologicalEmbedding, r.ValuesEmbedding, r.InterestsEmbedding, r.BehavioralEmbedding)
	if err != nil {
		return nil, fmt.Errorf("candidate %s: %w", r.UserID, err)
	}
	c := &domain.MatchCandidate{
		UserID:     r.UserID,
		BirthDate:  r.BirthDate,
		Embeddings: embeddings,
	}
	if r.Gender != nil {
		g := domain.Gender(*r.Gender)
		c.Gender = &g
	}
	if r.LocationLat != nil && r.LocationLon != nil {
		c.Location = &domain.GeoPoint{Lat: *r.LocationLat, Lon: *r.LocationLon}
	}
	return c, nil
}

func (r *profileRepository) ListCandidates(ctx context.Context, filter *domain.CandidateFilter) iter.Seq2[*domain.MatchCandidate, error] {
	return func(yield func(*domain.MatchCandidate, error) bool) {
		query, args := buildCandidateQuery(filter)
		rows, err := r.db.QueryxContext(ctx, query, args...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var row candidateRow
			if err := rows.StructScan(&row); err != nil {
				yield(nil, err)
				return
			}
			c, err := row.toDomain()
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(c, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// buildCandidateQuery translates the pushdown-able part of filter into SQL.
// Distance is only prefiltered with a bounding box; rows without a location
// are kept.
func buildCandidateQuery(f *domain.CandidateFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(`SELECT u.id AS user_id, u.gender, u.birth_date, u.location_lat, u.location_lon,
       p.psychological_embedding, p.values_embedding, p.interests_embedding, p.behavioral_embedding
FROM profiles p
JOIN users u ON u.id = p.user_id
WHERE 1=1`)

	args := []interface{}{}
	argCount := 1
	next := func(v interface{}) string {
		args = append(args, v)
		s := fmt.Sprintf("$%d", argCount)
		argCount++
		return s
	}

	if f.ExcludeUserID != "" {
		sb.WriteString(" AND p.user_id <> " + next(f.ExcludeUserID))
	}
	if f.ClientID != "" {
		scope := f.Scope
		if scope == "" {
			scope = domain.ScopeMatching
		}
		sb.WriteString(" AND EXISTS (SELECT 1 FROM consent_grants cg WHERE cg.user_id = p.user_id AND cg.client_id = " +
			next(f.ClientID) + " AND cg.revoked_at IS NULL AND " + next(scope) + " = ANY(cg.scopes))")
	}
	if f.RequireComplete {
		sb.WriteString(" AND p.psychological_embedding IS NOT NULL AND p.values_embedding IS NOT NULL" +
			" AND p.interests_embedding IS NOT NULL AND p.behavioral_embedding IS NOT NULL")
	}
	if len(f.Genders) > 0 {
		genders := make([]string, len(f.Genders))
		for i, g := range f.Genders {
			genders[i] = string(g)
		}
		sb.WriteString(" AND u.gender = ANY(" + next(pq.Array(genders)) + ")")
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	if f.MinAge != nil {
		sb.WriteString(" AND u.birth_date <= " + next(now.AddDate(-*f.MinAge, 0, 0)))
	}
	if f.MaxAge != nil {
		sb.WriteString(" AND u.birth_date > " + next(now.AddDate(-(*f.MaxAge+1), 0, 0)))
	}
	if f.Reference != nil && f.MaxDistanceKm != nil {
		minLat, maxLat, minLon, maxLon := vecmath.BoundingBox(f.Reference.Lat, f.Reference.Lon, *f.MaxDistanceKm)
		sb.WriteString(" AND (u.location_lat IS NULL OR u.location_lon IS NULL OR (u.location_lat BETWEEN " +
			next(minLat) + " AND " + next(maxLat) + " AND u.location_lon BETWEEN " +
			next(minLon) + " AND " + next(maxLon) + "))")
	}

	sb.WriteString(" ORDER BY p.user_id")
	return sb.String(), args
}

// mapWriteError turns a foreign-key violation on user_id into ErrUserNotFound.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, pqErr.Detail)
	}
	return err
}
