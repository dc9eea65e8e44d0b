package port

import (
	"context"
	"time"
)

// ValidityCache stores positive session-validity flags with a bounded
// lifetime. Implementations must be safe for concurrent use; the gate itself
// performs no locking.
type ValidityCache interface {
	// Get returns the cached flag for key. The second result is false on a
	// cache miss (absent or expired entry).
	Get(ctx context.Context, key string) (valid bool, ok bool, err error)
	// Set stores the flag under key for the supplied TTL.
	Set(ctx context.Context, key string, valid bool, ttl time.Duration) error
}
