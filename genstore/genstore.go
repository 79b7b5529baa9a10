// Package genstore keeps per-key generation counters for cachers stores.
// A write carries the generation observed before the value was read from the
// source of truth; Invalidate bumps the generation so that stale writes and
// stale entries are rejected.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable.
	Cleanup(retention time.Duration)
	Close(context.Context) error
}
