package matching

import (
	"context"
	"errors"
	"iter"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/gdugdh24/mpit2026-matching/internal/repository/memory"
)

// vecWithCosine returns a 2-d vector whose cosine to (1, 0) is sim.
func vecWithCosine(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

func uniform(sim float64) domain.AxisVectors {
	return domain.AxisVectors{vecWithCosine(sim), vecWithCosine(sim), vecWithCosine(sim), vecWithCosine(sim)}
}

type fixture struct {
	t     *testing.T
	store *memory.Store
	uc    *MatchUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	f := &fixture{t: t, store: store}
	f.addUser(&domain.User{ID: "seed"}, uniform(1), "A")
	f.uc = NewMatchUseCase(
		Config{DefaultLimit: 20, MaxLimit: 100, Workers: 3, BatchSize: 2},
		memory.NewProfileRepository(store),
		memory.NewUserRepository(store),
		memory.NewConsentRepository(store),
		nil,
		nil,
	)
	return f
}

func (f *fixture) addUser(u *domain.User, vectors domain.AxisVectors, clients ...string) {
	f.t.Helper()
	f.store.PutUser(u)
	err := memory.NewProfileRepository(f.store).Upsert(context.Background(), &domain.Profile{UserID: u.ID, Embeddings: vectors}, nil)
	require.NoError(f.t, err)
	for _, c := range clients {
		err := memory.NewConsentRepository(f.store).Grant(context.Background(), &domain.ConsentGrant{
			ClientID: c, UserID: u.ID, Scopes: []string{domain.ScopeMatching},
		})
		require.NoError(f.t, err)
	}
}

func (f *fixture) setSeedLocation(p *domain.GeoPoint) {
	f.store.PutUser(&domain.User{ID: "seed", Location: p})
}

func query() Query {
	return Query{SeedUserID: "seed", ClientID: "A"}
}

func TestFindMatches_DefaultWeightScenario(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "c"}, domain.AxisVectors{
		vecWithCosine(0.9), vecWithCosine(0.6), vecWithCosine(0.3), vecWithCosine(0.1),
	}, "A")

	results, err := f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "c", r.UserID)
	assert.InDelta(t, 0.625, r.Score, 1e-6)
	assert.InDelta(t, 62.5, float64(r.Compatibility), 0.5)
	assert.InDelta(t, 0.9, r.Breakdown.Psychological, 1e-6)
	assert.InDelta(t, 0.6, r.Breakdown.Values, 1e-6)
	assert.InDelta(t, 0.3, r.Breakdown.Interests, 1e-6)
	assert.InDelta(t, 0.1, r.Breakdown.Behavioral, 1e-6)
	assert.Nil(t, r.DistanceKm)
}

func TestFindMatches_ScoreIsWeightedSumOfBreakdown(t *testing.T) {
	f := newFixture(t)
	sims := [][4]float64{{0.1, 0.9, 0.4, 0.2}, {0.8, 0.3, 0.5, 0.7}, {-0.2, 0.5, 0.9, 0.0}}
	for i, s := range sims {
		f.addUser(&domain.User{ID: string(rune('a' + i))}, domain.AxisVectors{
			vecWithCosine(s[0]), vecWithCosine(s[1]), vecWithCosine(s[2]), vecWithCosine(s[3]),
		}, "A")
	}

	weightSets := []map[string]float64{
		nil,
		{"psychological": 0.25, "values": 0.25, "interests": 0.25, "behavioral": 0.25},
		{"psychological": 0.1, "values": 0.2, "interests": 0.3, "behavioral": 0.4},
	}
	for _, raw := range weightSets {
		w, err := ResolveWeights(raw)
		require.NoError(t, err)

		q := query()
		q.Weights = raw
		results, err := f.uc.FindMatches(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, results, 3)
		for _, r := range results {
			want := 0.0
			for _, axis := range domain.Axes {
				want += w[axis] * axisSimilarity(r.Breakdown, axis)
			}
			assert.InDelta(t, want, r.Score, 1e-9)
		}
	}
}

func TestFindMatches_OrderingAndTieBreak(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "c"}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "a"}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "d"}, uniform(0.9), "A")
	f.addUser(&domain.User{ID: "b"}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "e"}, uniform(0.1), "A")

	results, err := f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b", "c", "e"}, ids(results))
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestFindMatches_ExcludesIncompleteAndUnusableCandidates(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "ok"}, uniform(0.5), "A")

	partial := uniform(0.5)
	partial[domain.AxisBehavioral] = nil
	f.addUser(&domain.User{ID: "partial"}, partial, "A")

	mismatch := uniform(0.5)
	mismatch[domain.AxisValues] = []float32{1, 0, 0}
	f.addUser(&domain.User{ID: "mismatch"}, mismatch, "A")

	zero := uniform(0.5)
	zero[domain.AxisInterests] = []float32{0, 0}
	f.addUser(&domain.User{ID: "zero"}, zero, "A")

	results, err := f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ids(results))
}

func TestFindMatches_NeverReturnsSeed(t *testing.T) {
	f := newFixture(t)
	results, err := f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestFindMatches_EmptyPoolAfterGenderFilter(t *testing.T) {
	f := newFixture(t)
	male := domain.GenderMale
	f.addUser(&domain.User{ID: "m", Gender: &male}, uniform(0.5), "A")

	q := query()
	q.Genders = []domain.Gender{domain.GenderFemale}
	results, err := f.uc.FindMatches(context.Background(), q)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestFindMatches_ConsentScoping(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "u1"}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "u2"}, uniform(0.6), "A")
	f.addUser(&domain.User{ID: "u3"}, uniform(0.99), "B")

	results, err := f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1"}, ids(results))
}

// leakyProfiles ignores the filter entirely, as a misbehaving store might.
type leakyProfiles struct {
	repository.ProfileRepository
	all []*domain.MatchCandidate
}

func (l *leakyProfiles) ListCandidates(context.Context, *domain.CandidateFilter) iter.Seq2[*domain.MatchCandidate, error] {
	return func(yield func(*domain.MatchCandidate, error) bool) {
		for _, c := range l.all {
			if !yield(c, nil) {
				return
			}
		}
	}
}

func TestFindMatches_ConsentHeldEvenIfStoreLeaks(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "u1"}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "u3"}, uniform(0.99), "B")

	leaky := &leakyProfiles{
		ProfileRepository: memory.NewProfileRepository(f.store),
		all: []*domain.MatchCandidate{
			{UserID: "seed", Embeddings: uniform(1)},
			{UserID: "u1", Embeddings: uniform(0.5)},
			{UserID: "u3", Embeddings: uniform(0.99)},
		},
	}
	uc := NewMatchUseCase(f.uc.cfg, leaky, memory.NewUserRepository(f.store), memory.NewConsentRepository(f.store), nil, nil)

	results, err := uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids(results))
}

func TestFindMatches_SeedWithoutConsent(t *testing.T) {
	f := newFixture(t)
	q := query()
	q.ClientID = "B"
	_, err := f.uc.FindMatches(context.Background(), q)
	assert.ErrorIs(t, err, domain.ErrConsentRequired)

	q.ClientID = ""
	_, err = f.uc.FindMatches(context.Background(), q)
	assert.ErrorIs(t, err, domain.ErrConsentRequired)
}

func TestFindMatches_SeedProfileStates(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.FindMatches(context.Background(), Query{SeedUserID: "ghost", ClientID: "A"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.True(t, domain.IsNotFound(err))

	f.store.PutUser(&domain.User{ID: "fresh"})
	_, err = f.uc.FindMatches(context.Background(), Query{SeedUserID: "fresh", ClientID: "A"})
	assert.ErrorIs(t, err, domain.ErrProfileIncomplete)

	partial := uniform(1)
	partial[domain.AxisValues] = nil
	f.addUser(&domain.User{ID: "half"}, partial, "A")
	_, err = f.uc.FindMatches(context.Background(), Query{SeedUserID: "half", ClientID: "A"})
	assert.ErrorIs(t, err, domain.ErrProfileIncomplete)

	zero := uniform(1)
	zero[domain.AxisValues] = []float32{0, 0}
	f.addUser(&domain.User{ID: "zero"}, zero, "A")
	_, err = f.uc.FindMatches(context.Background(), Query{SeedUserID: "zero", ClientID: "A"})
	assert.ErrorIs(t, err, domain.ErrProfileIncomplete)
}

func TestFindMatches_LocationRequired(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "c"}, uniform(0.5), "A")

	q := query()
	dist := 10.0
	q.MaxDistanceKm = &dist
	_, err := f.uc.FindMatches(context.Background(), q)
	assert.ErrorIs(t, err, domain.ErrLocationRequired)
}

func TestFindMatches_DistanceIsHardFilter(t *testing.T) {
	f := newFixture(t)
	moscow := &domain.GeoPoint{Lat: 55.7558, Lon: 37.6173}
	f.setSeedLocation(moscow)
	f.addUser(&domain.User{ID: "near", Location: &domain.GeoPoint{Lat: 55.80, Lon: 37.60}}, uniform(0.2), "A")
	f.addUser(&domain.User{ID: "far", Location: &domain.GeoPoint{Lat: 59.9343, Lon: 30.3351}}, uniform(0.99), "A")
	f.addUser(&domain.User{ID: "nowhere"}, uniform(0.5), "A")

	q := query()
	dist := 50.0
	q.MaxDistanceKm = &dist
	results, err := f.uc.FindMatches(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"nowhere", "near"}, ids(results))
	assert.Nil(t, results[0].DistanceKm)
	require.NotNil(t, results[1].DistanceKm)
	assert.Less(t, *results[1].DistanceKm, 10.0)

	// Without a distance cap, distance is reported but never filters.
	results, err = f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)
	assert.Equal(t, []string{"far", "nowhere", "near"}, ids(results))
	assert.InDelta(t, 634, *results[0].DistanceKm, 5)
}

func TestFindMatches_AgeFilter(t *testing.T) {
	f := newFixture(t)
	f.uc.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	young := time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)
	old := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	f.addUser(&domain.User{ID: "young", BirthDate: &young}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "old", BirthDate: &old}, uniform(0.5), "A")
	f.addUser(&domain.User{ID: "unknown"}, uniform(0.5), "A")

	q := query()
	minAge, maxAge := 18, 30
	q.MinAge, q.MaxAge = &minAge, &maxAge
	results, err := f.uc.FindMatches(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"young"}, ids(results))
}

func TestFindMatches_Limits(t *testing.T) {
	f := newFixture(t)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		f.addUser(&domain.User{ID: id}, uniform(0.5), "A")
	}

	q := query()
	q.Limit = 2
	results, err := f.uc.FindMatches(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(results))

	q.Limit = 0
	results, err = f.uc.FindMatches(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, results, 5)

	for _, bad := range []int{-1, 101} {
		q.Limit = bad
		_, err = f.uc.FindMatches(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrInvalidLimit)
	}
}

// countingUsers fails the test if storage is touched.
type countingUsers struct {
	repository.UserRepository
	calls int
}

func (c *countingUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	c.calls++
	return c.UserRepository.GetByID(ctx, id)
}

func TestFindMatches_ValidationBeforeStorage(t *testing.T) {
	f := newFixture(t)
	users := &countingUsers{UserRepository: memory.NewUserRepository(f.store)}
	uc := NewMatchUseCase(f.uc.cfg, memory.NewProfileRepository(f.store), users, memory.NewConsentRepository(f.store), nil, nil)

	neg, lo, hi, zero := -1, 40, 20, 0.0
	cases := []struct {
		name string
		mod  func(*Query)
		want error
	}{
		{"weights", func(q *Query) { q.Weights = map[string]float64{"values": 1} }, domain.ErrInvalidWeights},
		{"limit", func(q *Query) { q.Limit = 1000 }, domain.ErrInvalidLimit},
		{"negative age", func(q *Query) { q.MinAge = &neg }, domain.ErrInvalidAgeRange},
		{"inverted ages", func(q *Query) { q.MinAge, q.MaxAge = &lo, &hi }, domain.ErrInvalidAgeRange},
		{"zero distance", func(q *Query) { q.MaxDistanceKm = &zero }, domain.ErrInvalidDistance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := query()
			tc.mod(&q)
			_, err := uc.FindMatches(context.Background(), q)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Equal(t, 0, users.calls)
}

type failingProfiles struct {
	repository.ProfileRepository
}

func (failingProfiles) ListCandidates(context.Context, *domain.CandidateFilter) iter.Seq2[*domain.MatchCandidate, error] {
	return func(yield func(*domain.MatchCandidate, error) bool) {
		if !yield(&domain.MatchCandidate{UserID: "x", Embeddings: uniform(0.5)}, nil) {
			return
		}
		yield(nil, errors.New("connection reset"))
	}
}

func TestFindMatches_StorageErrorFailsWholeCall(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "x"}, uniform(0.5), "A")
	uc := NewMatchUseCase(f.uc.cfg, failingProfiles{memory.NewProfileRepository(f.store)},
		memory.NewUserRepository(f.store), memory.NewConsentRepository(f.store), nil, nil)

	results, err := uc.FindMatches(context.Background(), query())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Nil(t, results)
}

func TestFindMatches_CanceledContext(t *testing.T) {
	f := newFixture(t)
	f.addUser(&domain.User{ID: "a"}, uniform(0.5), "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.FindMatches(ctx, query())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindMatches_ConcurrentCallsAgree(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 40; i++ {
		f.addUser(&domain.User{ID: string(rune('A' + i))}, uniform(float64(i%7)/10), "A")
	}
	want, err := f.uc.FindMatches(context.Background(), query())
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.uc.FindMatches(context.Background(), query())
			if err != nil {
				errs <- err
				return
			}
			if len(got) != len(want) {
				errs <- errors.New("length mismatch")
				return
			}
			for j := range got {
				if got[j].UserID != want[j].UserID || got[j].Score != want[j].Score {
					errs <- errors.New("ranking mismatch")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func axisSimilarity(b domain.Breakdown, a domain.Axis) float64 {
	switch a {
	case domain.AxisPsychological:
		return b.Psychological
	case domain.AxisValues:
		return b.Values
	case domain.AxisInterests:
		return b.Interests
	}
	return b.Behavioral
}
