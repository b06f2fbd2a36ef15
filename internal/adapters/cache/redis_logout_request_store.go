package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vagov/benefits-portal/internal/domain"
)

// RedisLogoutRequestStore keeps in-flight single-logout requests until the
// identity provider's callback resolves them.
type RedisLogoutRequestStore struct {
	client *redis.Client
}

// NewRedisLogoutRequestStore creates the logout-request cache adapter.
func NewRedisLogoutRequestStore(client *redis.Client) *RedisLogoutRequestStore {
	return &RedisLogoutRequestStore{client: client}
}

func (s *RedisLogoutRequestStore) Put(ctx context.Context, req domain.LogoutRequest, ttl time.Duration) error {
	raw, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, "portal:logout:"+req.RequestID, raw, ttl).Err()
}

func (s *RedisLogoutRequestStore) Get(ctx context.Context, requestID string) (*domain.LogoutRequest, error) {
	raw, err := s.client.Get(ctx, "portal:logout:"+requestID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.LogoutRequest
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *RedisLogoutRequestStore) Delete(ctx context.Context, requestID string) error {
	return s.client.Del(ctx, "portal:logout:"+requestID).Err()
}
