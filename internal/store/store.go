package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/starnotify/starnotify/internal/domain"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound is returned when no subscription exists for the
	// requested (owner, repo, email) triple.
	ErrNotFound = errors.New("subscription not found")

	// ErrDuplicateActive is returned by Create when an active
	// subscription for the triple already exists.
	ErrDuplicateActive = errors.New("active subscription already exists")
)

// Store persists subscription records. At most one subscription exists
// per (owner, repo, email) triple; every implementation enforces this
// atomically (unique index, compare-and-swap, or mutex).
type Store interface {
	// Create inserts a pending subscription. If a pending record for
	// the triple already exists it is returned unchanged; if an active
	// one exists, Create fails with ErrDuplicateActive.
	Create(ctx context.Context, owner, repo, email string) (*domain.Subscription, error)

	// Activate transitions the subscription for the triple to active
	// and stamps VerifiedAt. Fails with ErrNotFound if no record
	// exists. Activating an already-active record is a no-op that
	// returns the record.
	Activate(ctx context.Context, owner, repo, email string) (*domain.Subscription, error)

	// ListActive returns the active subscriptions matching the
	// (owner, repo) pair with case-sensitive equality.
	ListActive(ctx context.Context, owner, repo string) ([]domain.Subscription, error)

	// ListAll returns every subscription, for the admin listing.
	ListAll(ctx context.Context) ([]domain.Subscription, error)

	// Find returns the subscription for the triple, or ErrNotFound.
	Find(ctx context.Context, owner, repo, email string) (*domain.Subscription, error)

	Close()
}

// newID generates a random subscription identifier.
func newID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return "sub_" + hex.EncodeToString(bytes)
}
