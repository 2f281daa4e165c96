package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/starnotify/starnotify/internal/domain"
)

// subscriptionsKey holds the full subscription list as one JSON array.
const subscriptionsKey = "subscriptions"

const maxCASRetries = 5

// RedisStore keeps the whole subscription list as a JSON blob under a
// single key. Mutations go through WATCH-guarded transactions, so two
// concurrent read-modify-write cycles on the list cannot lose updates.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisWithClient wraps an existing client. Used by tests.
func NewRedisWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() {
	s.client.Close()
}

func (s *RedisStore) Create(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	return s.mutate(ctx, func(subs []domain.Subscription) ([]domain.Subscription, *domain.Subscription, error) {
		if i := findIndex(subs, owner, repo, email); i >= 0 {
			if subs[i].Status == domain.StatusActive {
				return nil, nil, ErrDuplicateActive
			}
			existing := subs[i]
			return nil, &existing, nil
		}

		sub := domain.Subscription{
			ID:        newID(),
			Owner:     owner,
			Repo:      repo,
			Email:     email,
			Status:    domain.StatusPending,
			CreatedAt: time.Now().UTC(),
		}
		return append(subs, sub), &sub, nil
	})
}

func (s *RedisStore) Activate(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	return s.mutate(ctx, func(subs []domain.Subscription) ([]domain.Subscription, *domain.Subscription, error) {
		i := findIndex(subs, owner, repo, email)
		if i < 0 {
			return nil, nil, ErrNotFound
		}
		if subs[i].Status == domain.StatusActive {
			active := subs[i]
			return nil, &active, nil
		}

		now := time.Now().UTC()
		subs[i].Status = domain.StatusActive
		subs[i].VerifiedAt = &now
		updated := subs[i]
		return subs, &updated, nil
	})
}

func (s *RedisStore) ListActive(ctx context.Context, owner, repo string) ([]domain.Subscription, error) {
	subs, err := s.load(ctx, s.client)
	if err != nil {
		return nil, err
	}

	matched := []domain.Subscription{}
	for _, sub := range subs {
		if sub.Status == domain.StatusActive && sub.Owner == owner && sub.Repo == repo {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

func (s *RedisStore) ListAll(ctx context.Context) ([]domain.Subscription, error) {
	subs, err := s.load(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	return subs, nil
}

func (s *RedisStore) Find(ctx context.Context, owner, repo, email string) (*domain.Subscription, error) {
	subs, err := s.load(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if i := findIndex(subs, owner, repo, email); i >= 0 {
		sub := subs[i]
		return &sub, nil
	}
	return nil, ErrNotFound
}

// mutate runs fn against the current list inside a WATCH transaction.
// fn returns the next list (nil to skip the write), the record to hand
// back to the caller, and any business error, which aborts the
// transaction without retrying.
func (s *RedisStore) mutate(ctx context.Context, fn func([]domain.Subscription) ([]domain.Subscription, *domain.Subscription, error)) (*domain.Subscription, error) {
	var result *domain.Subscription

	txf := func(tx *redis.Tx) error {
		subs, err := s.load(ctx, tx)
		if err != nil {
			return err
		}

		next, rec, err := fn(subs)
		if err != nil {
			return err
		}
		result = rec

		if next == nil {
			return nil
		}

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshaling subscriptions: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, subscriptionsKey, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxCASRetries; i++ {
		err := s.client.Watch(ctx, txf, subscriptionsKey)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			// Another writer changed the list; reload and retry.
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("updating subscriptions: too many concurrent writes")
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) load(ctx context.Context, c redisGetter) ([]domain.Subscription, error) {
	raw, err := c.Get(ctx, subscriptionsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading subscriptions: %w", err)
	}

	var subs []domain.Subscription
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("unmarshaling subscriptions: %w", err)
	}
	return subs, nil
}

func findIndex(subs []domain.Subscription, owner, repo, email string) int {
	for i, sub := range subs {
		if sub.Owner == owner && sub.Repo == repo && sub.Email == email {
			return i
		}
	}
	return -1
}
