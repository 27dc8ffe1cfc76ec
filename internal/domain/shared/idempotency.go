package shared

import (
	"context"
	"time"
)

// IdempotencyStore records processed request keys so that retried
// commands do not execute twice. Implementations must be safe for
// concurrent use.
type IdempotencyStore interface {
	// Get returns the stored value for the key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores the value under the key with a time-to-live.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}
