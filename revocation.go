package gqlauth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore keeps the identifiers of invalidated tokens. Verification
// consults it on every call, so implementations must be safe under
// concurrent reads and writes. Revoke is idempotent.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationStore is a process-local RevocationStore. Entries expire
// with the token they shadow so the set never outgrows the live token
// population. See store/redisrevoke for the shared deployment variant.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore builds an empty in-memory revocation set.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (s *MemoryRevocationStore) WithClock(clock func() time.Time) *MemoryRevocationStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Revoke adds the token identifier to the set for ttl. A non-positive ttl
// keeps the entry until process exit.
func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" {
		return nil
	}

	var expires time.Time
	if ttl > 0 {
		expires = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[tokenID] = expires
	s.mu.Unlock()

	return nil
}

// IsRevoked reports whether the token identifier is in the set.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}

	s.mu.RLock()
	expires, ok := s.entries[tokenID]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}

	if !expires.IsZero() && s.now().After(expires) {
		s.mu.Lock()
		delete(s.entries, tokenID)
		s.mu.Unlock()
		return false, nil
	}

	return true, nil
}
