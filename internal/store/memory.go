package store

import (
	"context"
	"sync"
	"time"

	"github.com/starnotify/starnotify/internal/domain"
)

// MemoryStore is an ephemeral in-memory store. It backs tests and the
// explicit degraded fallback mode; nothing survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	subs []domain.Subscription
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) Create(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := findIndex(s.subs, owner, repo, email); i >= 0 {
		if s.subs[i].Status == domain.StatusActive {
			return nil, ErrDuplicateActive
		}
		existing := s.subs[i]
		return &existing, nil
	}

	sub := domain.Subscription{
		ID:        newID(),
		Owner:     owner,
		Repo:      repo,
		Email:     email,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.subs = append(s.subs, sub)
	return &sub, nil
}

func (s *MemoryStore) Activate(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := findIndex(s.subs, owner, repo, email)
	if i < 0 {
		return nil, ErrNotFound
	}
	if s.subs[i].Status == domain.StatusActive {
		active := s.subs[i]
		return &active, nil
	}

	now := time.Now().UTC()
	s.subs[i].Status = domain.StatusActive
	s.subs[i].VerifiedAt = &now
	updated := s.subs[i]
	return &updated, nil
}

func (s *MemoryStore) ListActive(ctx context.Context, owner, repo string) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := []domain.Subscription{}
	for _, sub := range s.subs {
		if sub.Status == domain.StatusActive && sub.Owner == owner && sub.Repo == repo {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]domain.Subscription, len(s.subs))
	copy(all, s.subs)
	return all, nil
}

func (s *MemoryStore) Find(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := findIndex(s.subs, owner, repo, email); i >= 0 {
		sub := s.subs[i]
		return &sub, nil
	}
	return nil, ErrNotFound
}
