package ports

import (
	"context"
	"time"

	"github.com/vagov/benefits-portal/internal/domain"
)

// ResponseCache is a shared key/value store with per-key TTL, used to
// memoize expensive identity and reference-data lookups. Values are opaque
// JSON blobs; callers own (de)serialization. The check-then-populate
// sequence is not atomic across processes: a benign race costs at most one
// redundant upstream call, since upstream responses are idempotent reads.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TrackerStore persists ephemeral authentication-request trackers keyed by
// the UUID embedded in the outbound identity-provider redirect.
type TrackerStore interface {
	Put(ctx context.Context, tracker domain.Tracker, ttl time.Duration) error
	Get(ctx context.Context, uuid string) (*domain.Tracker, error)
	Delete(ctx context.Context, uuid string) error
}

// LogoutRequestStore keeps in-flight single-logout requests until the
// identity provider's callback resolves them by reference ID.
type LogoutRequestStore interface {
	Put(ctx context.Context, req domain.LogoutRequest, ttl time.Duration) error
	Get(ctx context.Context, requestID string) (*domain.LogoutRequest, error)
	Delete(ctx context.Context, requestID string) error
}
