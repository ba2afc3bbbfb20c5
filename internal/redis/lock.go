package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis. The offer lock is what
// enforces the at-most-one-outstanding-offer invariant per provider across
// concurrent dispatch rounds.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireOfferLock attempts to acquire the outstanding-offer lock for a
// provider. Returns true if the lock was acquired, false if already held.
// The TTL bounds the lock lifetime should a release ever be missed.
func (s *LockStore) AcquireOfferLock(ctx context.Context, providerID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:offer:%s", providerID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseOfferLock releases the outstanding-offer lock for a provider.
func (s *LockStore) ReleaseOfferLock(ctx context.Context, providerID string) error {
	key := fmt.Sprintf("lock:offer:%s", providerID)

	return s.client.Del(ctx, key).Err()
}
