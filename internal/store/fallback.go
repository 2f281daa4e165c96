package store

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/starnotify/starnotify/internal/domain"
)

// Fallback wraps a primary store with an ephemeral in-memory fallback.
// When a primary operation fails with an infrastructure error, the
// operation is retried against the fallback, the failure is logged, and
// Degraded() reports true from then on so handlers can warn callers.
// Business errors (ErrNotFound, ErrDuplicateActive) pass through.
//
// Degraded mode loses data: records written to the fallback vanish on
// restart and records in the primary are invisible until it recovers.
// It is opt-in via STORE_FALLBACK_MEMORY.
type Fallback struct {
	primary  Store
	memory   *MemoryStore
	logger   *slog.Logger
	degraded atomic.Bool
}

func NewFallback(primary Store, logger *slog.Logger) *Fallback {
	return &Fallback{
		primary: primary,
		memory:  NewMemory(),
		logger:  logger,
	}
}

// Degraded reports whether any operation has failed over to the
// in-memory store.
func (f *Fallback) Degraded() bool {
	return f.degraded.Load()
}

func (f *Fallback) Close() {
	f.primary.Close()
}

func (f *Fallback) Create(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	sub, err := f.primary.Create(ctx, owner, repo, email)
	if f.failover(err, "create", owner, repo, email) {
		return f.memory.Create(ctx, owner, repo, email)
	}
	return sub, err
}

func (f *Fallback) Activate(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	sub, err := f.primary.Activate(ctx, owner, repo, email)
	if f.failover(err, "activate", owner, repo, email) {
		return f.memory.Activate(ctx, owner, repo, email)
	}
	return sub, err
}

func (f *Fallback) ListActive(ctx context.Context, owner, repo string) ([]domain.Subscription, error) {
	subs, err := f.primary.ListActive(ctx, owner, repo)
	if f.failover(err, "list_active", owner, repo, "") {
		return f.memory.ListActive(ctx, owner, repo)
	}
	return subs, err
}

func (f *Fallback) ListAll(ctx context.Context) ([]domain.Subscription, error) {
	subs, err := f.primary.ListAll(ctx)
	if f.failover(err, "list_all", "", "", "") {
		return f.memory.ListAll(ctx)
	}
	return subs, err
}

func (f *Fallback) Find(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	sub, err := f.primary.Find(ctx, owner, repo, email)
	if f.failover(err, "find", owner, repo, email) {
		return f.memory.Find(ctx, owner, repo, email)
	}
	return sub, err
}

// failover decides whether err warrants switching to the fallback and
// logs the transition.
func (f *Fallback) failover(err error, op, owner, repo, email string) bool {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateActive) {
		return false
	}

	f.degraded.Store(true)
	f.logger.Warn("storage degraded: falling back to in-memory store",
		"op", op,
		"owner", owner,
		"repo", repo,
		"email", email,
		"error", err,
	)
	return true
}
