package shared

import (
	"context"
	"time"
)

// IdempotencyStore stores processed identifiers (event IDs, gateway callback
// references) to prevent duplicate processing under at-least-once delivery.
type IdempotencyStore interface {
	// MarkProcessed marks an identifier as processed with a TTL.
	// Returns true if it was newly marked, false if it was already processed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an identifier has already been processed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Unmark removes an identifier, allowing it to be processed again.
	// Used to release a claim when processing fails and should be retried.
	Unmark(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for processed identifiers.
	// After this duration the same identifier can be processed again.
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
