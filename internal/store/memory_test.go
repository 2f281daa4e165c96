package store

import (
	"context"
	"errors"
	"testing"

	"github.com/starnotify/starnotify/internal/domain"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	sub, err := s.Create(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sub.Status != domain.StatusPending {
		t.Errorf("new subscription status: got %q, want %q", sub.Status, domain.StatusPending)
	}
	if sub.VerifiedAt != nil {
		t.Error("new subscription must not have VerifiedAt set")
	}
	if sub.ID == "" {
		t.Error("new subscription is missing an ID")
	}

	activated, err := s.Activate(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != domain.StatusActive {
		t.Errorf("activated status: got %q, want %q", activated.Status, domain.StatusActive)
	}
	if activated.VerifiedAt == nil {
		t.Error("activation must set VerifiedAt")
	}

	active, err := s.ListActive(ctx, "a", "b")
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 1 || active[0].Email != "x@y.com" {
		t.Errorf("unexpected active subscriptions: %+v", active)
	}
}

func TestMemoryStore_CreateIdempotentWhilePending(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	first, err := s.Create(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := s.Create(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("resubmission failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("resubmission created a duplicate: %q vs %q", second.ID, first.ID)
	}

	all, _ := s.ListAll(ctx)
	if len(all) != 1 {
		t.Errorf("expected 1 record, got %d", len(all))
	}
}

func TestMemoryStore_CreateDuplicateActive(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.Create(ctx, "a", "b", "x@y.com"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.Activate(ctx, "a", "b", "x@y.com"); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	_, err := s.Create(ctx, "a", "b", "x@y.com")
	if !errors.Is(err, ErrDuplicateActive) {
		t.Errorf("expected ErrDuplicateActive, got %v", err)
	}
}

func TestMemoryStore_ActivateNotFound(t *testing.T) {
	s := NewMemory()

	_, err := s.Activate(context.Background(), "a", "b", "x@y.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ActivateAlreadyActive(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if _, err := s.Create(ctx, "a", "b", "x@y.com"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	first, err := s.Activate(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	second, err := s.Activate(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("second activate failed: %v", err)
	}
	if !second.VerifiedAt.Equal(*first.VerifiedAt) {
		t.Error("re-activation must not move VerifiedAt")
	}
}

func TestMemoryStore_ListActiveFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	seed := []struct {
		owner, repo, email string
		activate           bool
	}{
		{"a", "b", "active@y.com", true},
		{"a", "b", "pending@y.com", false},
		{"a", "other", "other-repo@y.com", true},
		{"A", "b", "cased@y.com", true},
	}
	for _, rec := range seed {
		if _, err := s.Create(ctx, rec.owner, rec.repo, rec.email); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if rec.activate {
			if _, err := s.Activate(ctx, rec.owner, rec.repo, rec.email); err != nil {
				t.Fatalf("activate failed: %v", err)
			}
		}
	}

	active, err := s.ListActive(ctx, "a", "b")
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 1 || active[0].Email != "active@y.com" {
		t.Errorf("unexpected matches: %+v", active)
	}
}

func TestMemoryStore_FindNotFound(t *testing.T) {
	s := NewMemory()

	_, err := s.Find(context.Background(), "a", "b", "missing@y.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
