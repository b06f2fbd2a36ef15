package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vagov/benefits-portal/internal/domain"
)

// RedisTrackerStore persists authentication-request trackers until the
// identity provider calls back or the TTL lapses.
type RedisTrackerStore struct {
	client *redis.Client
}

// NewRedisTrackerStore creates the tracker cache adapter.
func NewRedisTrackerStore(client *redis.Client) *RedisTrackerStore {
	return &RedisTrackerStore{client: client}
}

func (s *RedisTrackerStore) Put(ctx context.Context, tracker domain.Tracker, ttl time.Duration) error {
	raw, err := json.Marshal(tracker)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "portal:tracker:"+tracker.UUID.String(), raw, ttl).Err()
}

func (s *RedisTrackerStore) Get(ctx context.Context, uuid string) (*domain.Tracker, error) {
	raw, err := s.client.Get(ctx, "portal:tracker:"+uuid).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.Tracker
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisTrackerStore) Delete(ctx context.Context, uuid string) error {
	return s.client.Del(ctx, "portal:tracker:"+uuid).Err()
}
