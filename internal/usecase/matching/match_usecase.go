// Package matching ranks a seed user's candidate pool by weighted multi-axis
// cosine similarity.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/gdugdh24/mpit2026-matching/internal/vecmath"
)

type Config struct {
	DefaultLimit int
	MaxLimit     int
	Workers      int
	BatchSize    int
}

// Query is a single match request. A zero Limit selects the default limit;
// nil Weights select DefaultWeights.
type Query struct {
	SeedUserID    string
	ClientID      string
	Limit         int
	Genders       []domain.Gender
	MinAge        *int
	MaxAge        *int
	MaxDistanceKm *float64
	Weights       map[string]float64
}

// MatchUseCase holds no per-query state and is safe for concurrent use.
type MatchUseCase struct {
	cfg         Config
	profileRepo repository.ProfileRepository
	userRepo    repository.UserRepository
	consentRepo repository.ConsentRepository
	logger      *zap.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewMatchUseCase(
	cfg Config,
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	consentRepo repository.ConsentRepository,
	logger *zap.Logger,
	m *metrics.Metrics,
) *MatchUseCase {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(20, cfg.MaxLimit)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchUseCase{
		cfg:         cfg,
		profileRepo: profileRepo,
		userRepo:    userRepo,
		consentRepo: consentRepo,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// FindMatches returns up to Limit candidates ordered by score descending,
// ties broken by ascending user ID. It either returns the full ranking or
// an error, never a partial list.
func (uc *MatchUseCase) FindMatches(ctx context.Context, q Query) ([]domain.MatchResult, error) {
	start := time.Now()
	results, scanned, err := uc.findMatches(ctx, q)
	uc.metrics.ObserveMatchQuery(queryOutcome(err), time.Since(start), scanned, len(results))
	if err != nil {
		return nil, err
	}
	return results, nil
}

type scoringPlan struct {
	seed    [domain.AxisCount]vecmath.Normalized
	weights [domain.AxisCount]float64
	filter  *domain.CandidateFilter
}

func (uc *MatchUseCase) findMatches(ctx context.Context, q Query) ([]domain.MatchResult, int, error) {
	limit, err := uc.resolveLimit(q.Limit)
	if err != nil {
		return nil, 0, err
	}
	weights, err := ResolveWeights(q.Weights)
	if err != nil {
		return nil, 0, err
	}
	if err := validateFilters(q); err != nil {
		return nil, 0, err
	}

	seedUser, err := uc.userRepo.GetByID(ctx, q.SeedUserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			uc.logger.Warn("match query for unknown user", zap.String("user_id", q.SeedUserID))
		}
		return nil, 0, fmt.Errorf("failed to load seed user: %w", err)
	}

	plan := &scoringPlan{weights: weights}
	if err := uc.loadSeed(ctx, q.SeedUserID, plan); err != nil {
		return nil, 0, err
	}

	if q.MaxDistanceKm != nil && seedUser.Location == nil {
		return nil, 0, domain.ErrLocationRequired
	}

	allowed, err := uc.consentScope(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	plan.filter = &domain.CandidateFilter{
		ExcludeUserID:   q.SeedUserID,
		ClientID:        q.ClientID,
		Scope:           domain.ScopeMatching,
		AllowedUserIDs:  allowed,
		Genders:         q.Genders,
		MinAge:          q.MinAge,
		MaxAge:          q.MaxAge,
		Reference:       seedUser.Location,
		MaxDistanceKm:   q.MaxDistanceKm,
		RequireComplete: true,
		Now:             uc.now(),
	}

	return uc.rank(ctx, plan, limit)
}

// MaxLimit is the largest result count a query may ask for.
func (uc *MatchUseCase) MaxLimit() int {
	return uc.cfg.MaxLimit
}

func (uc *MatchUseCase) resolveLimit(limit int) (int, error) {
	switch {
	case limit == 0:
		return uc.cfg.DefaultLimit, nil
	case limit < 0 || limit > uc.cfg.MaxLimit:
		return 0, fmt.Errorf("%w: must be between 1 and %d", domain.ErrInvalidLimit, uc.cfg.MaxLimit)
	}
	return limit, nil
}

func validateFilters(q Query) error {
	if q.MinAge != nil && *q.MinAge < 0 {
		return fmt.Errorf("%w: min age must be non-negative", domain.ErrInvalidAgeRange)
	}
	if q.MaxAge != nil && *q.MaxAge < 0 {
		return fmt.Errorf("%w: max age must be non-negative", domain.ErrInvalidAgeRange)
	}
	if q.MinAge != nil && q.MaxAge != nil && *q.MinAge > *q.MaxAge {
		return fmt.Errorf("%w: min age %d exceeds max age %d", domain.ErrInvalidAgeRange, *q.MinAge, *q.MaxAge)
	}
	if d := q.MaxDistanceKm; d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0) || *d <= 0) {
		return fmt.Errorf("%w: must be a positive number of kilometres", domain.ErrInvalidDistance)
	}
	return nil
}

// loadSeed fetches the seed profile and precomputes its norms. A missing
// profile counts as incomplete.
func (uc *MatchUseCase) loadSeed(ctx context.Context, userID string, plan *scoringPlan) error {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrProfileNotFound) {
			return domain.ErrProfileIncomplete
		}
		return fmt.Errorf("failed to load seed profile: %w", err)
	}
	if !profile.IsComplete() || profile.Embeddings.Dimensions() == 0 {
		return domain.ErrProfileIncomplete
	}
	for _, axis := range domain.Axes {
		n, err := vecmath.Normalize(profile.Embeddings[axis])
		if err != nil {
			uc.logger.Warn("seed embedding unusable",
				zap.String("user_id", userID),
				zap.Stringer("axis", axis),
				zap.Error(err),
			)
			return domain.ErrProfileIncomplete
		}
		plan.seed[axis] = n
	}
	return nil
}

// consentScope enforces that the seed opted in to the client and returns the
// set of users the client may see.
func (uc *MatchUseCase) consentScope(ctx context.Context, q Query) (map[string]struct{}, error) {
	if q.ClientID == "" {
		return nil, fmt.Errorf("%w: no client scope", domain.ErrConsentRequired)
	}
	ok, err := uc.consentRepo.HasGrant(ctx, q.ClientID, q.SeedUserID, domain.ScopeMatching)
	if err != nil {
		return nil, fmt.Errorf("failed to check consent: %w", err)
	}
	if !ok {
		return nil, domain.ErrConsentRequired
	}
	allowed, err := uc.consentRepo.ListGrantedUserIDs(ctx, q.ClientID, domain.ScopeMatching)
	if err != nil {
		return nil, fmt.Errorf("failed to load consent scope: %w", err)
	}
	if allowed == nil {
		allowed = map[string]struct{}{}
	}
	return allowed, nil
}

// rank streams candidates to a pool of scoring workers. Each worker keeps its
// own top-K and the heaps are merged once the stream is drained.
func (uc *MatchUseCase) rank(ctx context.Context, plan *scoringPlan, limit int) ([]domain.MatchResult, int, error) {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan []*domain.MatchCandidate, uc.cfg.Workers)
	scanned := 0

	g.Go(func() error {
		defer close(jobs)
		batch := make([]*domain.MatchCandidate, 0, uc.cfg.BatchSize)
		send := func() error {
			select {
			case jobs <- batch:
				batch = make([]*domain.MatchCandidate, 0, uc.cfg.BatchSize)
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		for c, err := range uc.profileRepo.ListCandidates(gctx, plan.filter) {
			if err != nil {
				return fmt.Errorf("failed to list candidates: %w", err)
			}
			scanned++
			if !plan.filter.Admits(c) {
				continue
			}
			batch = append(batch, c)
			if len(batch) == uc.cfg.BatchSize {
				if err := send(); err != nil {
					return err
				}
			}
		}
		if len(batch) > 0 {
			return send()
		}
		return nil
	})

	heaps := make([]*topK, uc.cfg.Workers)
	for w := range heaps {
		heaps[w] = newTopK(limit)
		g.Go(func() error {
			for batch := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, c := range batch {
					if r, ok := uc.score(plan, c); ok {
						heaps[w].offer(r)
					}
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, scanned, err
	}

	best := newTopK(limit)
	for _, h := range heaps {
		best.merge(h)
	}
	results := best.sorted()

	uc.logger.Debug("match query ranked",
		zap.Int("scanned", scanned),
		zap.Int("returned", len(results)),
		zap.Int("limit", limit),
	)
	return results, scanned, nil
}

// score computes the per-axis cosine breakdown and applies the distance
// gate. Candidates whose vectors cannot be compared are dropped.
func (uc *MatchUseCase) score(plan *scoringPlan, c *domain.MatchCandidate) (domain.MatchResult, bool) {
	var sims [domain.AxisCount]float64
	for _, axis := range domain.Axes {
		sim, err := plan.seed[axis].CosineTo(c.Embeddings[axis])
		if err != nil {
			uc.logger.Warn("candidate embedding unusable",
				zap.String("user_id", c.UserID),
				zap.Stringer("axis", axis),
				zap.Error(err),
			)
			return domain.MatchResult{}, false
		}
		sims[axis] = sim
	}

	result := domain.MatchResult{UserID: c.UserID}
	if ref := plan.filter.Reference; ref != nil && c.Location != nil {
		d := vecmath.HaversineKm(ref.Lat, ref.Lon, c.Location.Lat, c.Location.Lon)
		if maxKm := plan.filter.MaxDistanceKm; maxKm != nil && d > *maxKm {
			return domain.MatchResult{}, false
		}
		result.DistanceKm = &d
	}

	result.Score = Combine(plan.weights, sims)
	result.Compatibility = int(math.Round(result.Score * 100))
	result.Breakdown = domain.NewBreakdown(sims)
	return result, true
}

func queryOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidLimit), errors.Is(err, domain.ErrInvalidWeights),
		errors.Is(err, domain.ErrInvalidAgeRange), errors.Is(err, domain.ErrInvalidDistance):
		return "invalid"
	case errors.Is(err, domain.ErrProfileIncomplete), errors.Is(err, domain.ErrLocationRequired):
		return "unprocessable"
	case errors.Is(err, domain.ErrConsentRequired):
		return "forbidden"
	case domain.IsNotFound(err):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "error"
}
