// Package memory is an in-process implementation of the repositories. Every
// write builds a new immutable snapshot and swaps it in atomically, so
// readers never take a lock and never see a half-applied write.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

type snapshot struct {
	users    map[string]*domain.User
	clients  map[string]*domain.Client
	profiles map[string]*domain.Profile
	answers  map[string]*domain.AssessmentAnswers
	consents map[string]*domain.ConsentGrant
}

func (s *snapshot) clone() *snapshot {
	return &snapshot{
		users:    cloneMap(s.users),
		clients:  cloneMap(s.clients),
		profiles: cloneMap(s.profiles),
		answers:  cloneMap(s.answers),
		consents: cloneMap(s.consents),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func consentKey(clientID, userID string) string {
	return clientID + "\x00" + userID
}

type Store struct {
	mu   sync.Mutex // serialises writers
	snap atomic.Pointer[snapshot]
	now  func() time.Time
}

func NewStore() *Store {
	s := &Store{now: time.Now}
	s.snap.Store(&snapshot{
		users:    map[string]*domain.User{},
		clients:  map[string]*domain.Client{},
		profiles: map[string]*domain.Profile{},
		answers:  map[string]*domain.AssessmentAnswers{},
		consents: map[string]*domain.ConsentGrant{},
	})
	return s
}

func (s *Store) load() *snapshot {
	return s.snap.Load()
}

func (s *Store) update(fn func(next *snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.load().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.snap.Store(next)
	return nil
}

func (s *Store) PutUser(u *domain.User) {
	cp := *u
	_ = s.update(func(next *snapshot) error {
		next.users[u.ID] = &cp
		return nil
	})
}

func (s *Store) PutClient(c *domain.Client) {
	cp := *c
	_ = s.update(func(next *snapshot) error {
		next.clients[c.ID] = &cp
		return nil
	})
}

// Seed is the JSON document accepted by LoadSeedFile.
type Seed struct {
	Users    []domain.User `json:"users"`
	Clients  []seedClient  `json:"clients"`
	Consents []struct {
		ClientID string   `json:"client_id"`
		UserID   string   `json:"user_id"`
		Scopes   []string `json:"scopes"`
	} `json:"consents"`
}

type seedClient struct {
	domain.Client
	APIKeyHash string `json:"api_key_hash"`
}

// LoadSeedFile populates users, clients and consent grants from a JSON file.
func (s *Store) LoadSeedFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for i := range seed.Users {
		s.PutUser(&seed.Users[i])
	}
	for _, c := range seed.Clients {
		client := c.Client
		client.APIKeyHash = c.APIKeyHash
		s.PutClient(&client)
	}
	consents := NewConsentRepository(s)
	for _, c := range seed.Consents {
		grant := &domain.ConsentGrant{ClientID: c.ClientID, UserID: c.UserID, Scopes: c.Scopes}
		if err := consents.Grant(context.Background(), grant); err != nil {
			return err
		}
	}
	return nil
}

type profileRepository struct {
	s *Store
}

func NewProfileRepository(s *Store) repository.ProfileRepository {
	return &profileRepository{s: s}
}

func (r *profileRepository) GetByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	p, ok := r.s.load().profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *profileRepository) Upsert(_ context.Context, profile *domain.Profile, answers *domain.AssessmentAnswers) error {
	return r.s.update(func(next *snapshot) error {
		if _, ok := next.users[profile.UserID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, profile.UserID)
		}
		profile.UpdatedAt = r.s.now()
		next.profiles[profile.UserID] = profile.Clone()
		if answers != nil {
			cp := *answers
			cp.Answers = make(domain.Answers, len(answers.Answers))
			for k, v := range answers.Answers {
				cp.Answers[k] = v
			}
			next.answers[answers.UserID] = &cp
		}
		return nil
	})
}

// ListCandidates walks one snapshot in user ID order, so a write that lands
// mid-iteration is either fully visible or not at all.
func (r *profileRepository) ListCandidates(ctx context.Context, filter *domain.CandidateFilter) iter.Seq2[*domain.MatchCandidate, error] {
	return func(yield func(*domain.MatchCandidate, error) bool) {
		snap := r.s.load()
		ids := make([]string, 0, len(snap.profiles))
		for id := range snap.profiles {
			ids = append(ids, id)
		}
		slices.Sort(ids)

		scope := filter.Scope
		if scope == "" {
			scope = domain.ScopeMatching
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			user, ok := snap.users[id]
			if !ok {
				continue
			}
			if filter.ClientID != "" && !snap.consents[consentKey(filter.ClientID, id)].Active(scope) {
				continue
			}
			c := &domain.MatchCandidate{
				UserID:     id,
				Gender:     user.Gender,
				BirthDate:  user.BirthDate,
				Location:   user.Location,
				Embeddings: snap.profiles[id].Embeddings,
			}
			if !filter.Admits(c) {
				continue
			}
			if !yield(c, nil) {
				return
			}
		}
	}
}

type assessmentRepository struct {
	s *Store
}

func NewAssessmentRepository(s *Store) repository.AssessmentRepository {
	return &assessmentRepository{s: s}
}

func (r *assessmentRepository) GetByUserID(_ context.Context, userID string) (*domain.AssessmentAnswers, error) {
	a, ok := r.s.load().answers[userID]
	if !ok {
		return nil, domain.ErrAnswersNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *assessmentRepository) ListUserIDs(_ context.Context) ([]string, error) {
	snap := r.s.load()
	ids := make([]string, 0, len(snap.answers))
	for id := range snap.answers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

type consentRepository struct {
	s *Store
}

func NewConsentRepository(s *Store) repository.ConsentRepository {
	return &consentRepository{s: s}
}

func (r *consentRepository) ListGrantedUserIDs(_ context.Context, clientID, scope string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, g := range r.s.load().consents {
		if g.ClientID == clientID && g.Active(scope) {
			out[g.UserID] = struct{}{}
		}
	}
	return out, nil
}

func (r *consentRepository) HasGrant(_ context.Context, clientID, userID, scope string) (bool, error) {
	return r.s.load().consents[consentKey(clientID, userID)].Active(scope), nil
}

func (r *consentRepository) Grant(_ context.Context, grant *domain.ConsentGrant) error {
	return r.s.update(func(next *snapshot) error {
		if _, ok := next.users[grant.UserID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrUserNotFound, grant.UserID)
		}
		key := consentKey(grant.ClientID, grant.UserID)
		if prev, ok := next.consents[key]; ok {
			grant.ID = prev.ID
		} else if grant.ID == uuid.Nil {
			grant.ID = uuid.New()
		}
		grant.GrantedAt = r.s.now()
		grant.RevokedAt = nil
		cp := *grant
		cp.Scopes = slices.Clone(grant.Scopes)
		next.consents[key] = &cp
		return nil
	})
}

func (r *consentRepository) Revoke(_ context.Context, clientID, userID string) error {
	return r.s.update(func(next *snapshot) error {
		key := consentKey(clientID, userID)
		prev, ok := next.consents[key]
		if !ok || prev.RevokedAt != nil {
			return domain.ErrConsentNotFound
		}
		cp := *prev
		now := r.s.now()
		cp.RevokedAt = &now
		next.consents[key] = &cp
		return nil
	})
}

type userRepository struct {
	s *Store
}

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{s: s}
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.s.load().users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type clientRepository struct {
	s *Store
}

func NewClientRepository(s *Store) repository.ClientRepository {
	return &clientRepository{s: s}
}

func (r *clientRepository) GetByID(_ context.Context, id string) (*domain.Client, error) {
	c, ok := r.s.load().clients[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	cp := *c
	return &cp, nil
}
