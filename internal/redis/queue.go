package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ZoneQueueStore maintains the FIFO queue of waiting providers per zone as
// a sorted set scored by enqueue time. Queue position is the ZRANK.
type ZoneQueueStore struct {
	client *redis.Client
}

// NewZoneQueueStore creates a new ZoneQueueStore.
func NewZoneQueueStore(client *redis.Client) *ZoneQueueStore {
	return &ZoneQueueStore{client: client}
}

func zoneQueueKey(zoneID string) string {
	return fmt.Sprintf("zone:queue:%s", zoneID)
}

// Enqueue adds a provider to the tail of a zone queue. Re-enqueueing a
// provider already in the queue keeps its original position.
func (s *ZoneQueueStore) Enqueue(ctx context.Context, zoneID, providerID string) error {
	return s.client.ZAddNX(ctx, zoneQueueKey(zoneID), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: providerID,
	}).Err()
}

// Remove takes a provider out of a zone queue.
func (s *ZoneQueueStore) Remove(ctx context.Context, zoneID, providerID string) error {
	return s.client.ZRem(ctx, zoneQueueKey(zoneID), providerID).Err()
}

// Position returns the provider's zero-based FIFO position in the zone
// queue, or -1 when the provider is not queued.
func (s *ZoneQueueStore) Position(ctx context.Context, zoneID, providerID string) (int64, error) {
	rank, err := s.client.ZRank(ctx, zoneQueueKey(zoneID), providerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}

	return rank, nil
}
