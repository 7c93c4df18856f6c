package cache

import (
	"context"
	"time"
)

// Store is a key-value cache with per-key expiration. Implementations must
// be safe for concurrent use.
type Store interface {
	// Set stores a value with an expiration
	Set(ctx context.Context, key, value string, expiration time.Duration) error

	// Get retrieves a value; the bool reports whether the key was present
	// and unexpired
	Get(ctx context.Context, key string) (string, bool, error)

	// Delete removes a key
	Delete(ctx context.Context, key string) error
}
