package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/starnotify/starnotify/internal/domain"
)

const subscriptionColumns = "id, owner, repo, email, status, created_at, verified_at"

func (s *PostgresStore) Create(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	// The unique index on (owner, repo, email) makes the insert the
	// arbiter of races: concurrent creates for the same triple conflict
	// and fall through to the existing-record path.
	var sub domain.Subscription
	err := s.pool.QueryRow(ctx, `
		INSERT INTO subscriptions (owner, repo, email, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, repo, email) DO NOTHING
		RETURNING `+subscriptionColumns,
		owner, repo, email, domain.StatusPending,
	).Scan(
		&sub.ID, &sub.Owner, &sub.Repo, &sub.Email,
		&sub.Status, &sub.CreatedAt, &sub.VerifiedAt,
	)
	if err == nil {
		return &sub, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("inserting subscription: %w", err)
	}

	// Conflict: a record for the triple already exists.
	existing, err := s.Find(ctx, owner, repo, email)
	if err != nil {
		return nil, err
	}
	if existing.Status == domain.StatusActive {
		return nil, ErrDuplicateActive
	}
	return existing, nil
}

func (s *PostgresStore) Activate(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := s.pool.QueryRow(ctx, `
		UPDATE subscriptions
		SET status = $4, verified_at = COALESCE(verified_at, NOW())
		WHERE owner = $1 AND repo = $2 AND email = $3
		RETURNING `+subscriptionColumns,
		owner, repo, email, domain.StatusActive,
	).Scan(
		&sub.ID, &sub.Owner, &sub.Repo, &sub.Email,
		&sub.Status, &sub.CreatedAt, &sub.VerifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("activating subscription: %w", err)
	}
	return &sub, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, owner, repo string) ([]domain.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE owner = $1 AND repo = $2 AND status = $3
		ORDER BY created_at
	`, owner, repo, domain.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("querying active subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Subscription, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying subscriptions: %w", err)
	}
	defer rows.Close()

	return scanSubscriptions(rows)
}

func (s *PostgresStore) Find(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := s.pool.QueryRow(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE owner = $1 AND repo = $2 AND email = $3
	`, owner, repo, email).Scan(
		&sub.ID, &sub.Owner, &sub.Repo, &sub.Email,
		&sub.Status, &sub.CreatedAt, &sub.VerifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying subscription: %w", err)
	}
	return &sub, nil
}

func scanSubscriptions(rows pgx.Rows) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	for rows.Next() {
		var sub domain.Subscription
		err := rows.Scan(
			&sub.ID, &sub.Owner, &sub.Repo, &sub.Email,
			&sub.Status, &sub.CreatedAt, &sub.VerifiedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if subs == nil {
		subs = []domain.Subscription{}
	}

	return subs, nil
}
