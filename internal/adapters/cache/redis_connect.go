package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Connect builds the Redis client backing the portal's response cache and
// ephemeral auth stores. Accepts either a redis:// / rediss:// URL or a
// bare host:port.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	opts.ClientName = "benefits-portal"

	slog.Default().InfoContext(ctx, "redis client configured",
		"module", "cache",
		"layer", "adapter",
		"operation", "connect",
		"outcome", "success",
		"addr", opts.Addr,
	)
	return redis.NewClient(opts), nil
}
