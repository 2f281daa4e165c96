package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/starnotify/starnotify/internal/domain"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisWithClient(client), mr
}

func TestRedisStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedisStore(t)

	sub, err := s.Create(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sub.Status != domain.StatusPending {
		t.Errorf("status: got %q, want %q", sub.Status, domain.StatusPending)
	}

	activated, err := s.Activate(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != domain.StatusActive || activated.VerifiedAt == nil {
		t.Errorf("activation did not stick: %+v", activated)
	}

	active, err := s.ListActive(ctx, "a", "b")
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 1 || active[0].Email != "x@y.com" {
		t.Errorf("unexpected active list: %+v", active)
	}
}

func TestRedisStore_CreateIdempotentWhilePending(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedisStore(t)

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
}

func TestRedisStore_CreateDuplicateActive(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedisStore(t)

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

func TestRedisStore_ActivateNotFound(t *testing.T) {
	s, _ := setupRedisStore(t)

	_, err := s.Activate(context.Background(), "a", "b", "missing@y.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRedisStore_ListPersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	clientA := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { clientA.Close() })
	if _, err := NewRedisWithClient(clientA).Create(ctx, "a", "b", "x@y.com"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A second store instance against the same Redis sees the record.
	clientB := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { clientB.Close() })
	sub, err := NewRedisWithClient(clientB).Find(ctx, "a", "b", "x@y.com")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if sub.Owner != "a" || sub.Repo != "b" {
		t.Errorf("unexpected record: %+v", sub)
	}
}

func TestRedisStore_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s, _ := setupRedisStore(t)

	// Distinct triples written concurrently must all survive the
	// compare-and-swap on the shared list key.
	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Create(ctx, "a", "b", fmt.Sprintf("user%d@y.com", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("create %d failed: %v", i, err)
		}
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != n {
		t.Errorf("expected %d records, got %d", n, len(all))
	}
}

func TestRedisStore_EmptyListAll(t *testing.T) {
	s, _ := setupRedisStore(t)

	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", all)
	}
}
