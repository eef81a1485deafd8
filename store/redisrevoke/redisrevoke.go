// Package redisrevoke backs the revocation set with Redis so multiple
// API replicas observe a revoked token immediately. Entries carry a TTL
// matching the remaining lifetime of the token they shadow, so Redis
// reclaims them once the token could no longer verify anyway.
package redisrevoke

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "gqlauth:revoked:v1:"

// retainFloor keeps untimed revocations around long enough to outlive any
// token the service could have issued.
const retainFloor = 30 * 24 * time.Hour

// Store implements gqlauth.RevocationStore on a Redis client.
type Store struct {
	client *redis.Client
	prefix string
}

// Option customizes the store.
type Option func(*Store)

// WithPrefix overrides the key namespace.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New builds a Redis-backed revocation store.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Revoke marks the token identifier revoked for ttl. Re-revoking an
// already revoked token succeeds and extends the entry.
func (s *Store) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return nil
	}

	if ttl <= 0 {
		ttl = retainFloor
	}

	if err := s.client.Set(ctx, s.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", tokenID, err)
	}

	return nil
}

// IsRevoked reports whether the token identifier is marked revoked.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	if err := s.client.Get(ctx, s.key(tokenID)).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("revocation lookup %s: %w", tokenID, err)
	}

	return true, nil
}

func (s *Store) key(tokenID string) string {
	return s.prefix + tokenID
}
