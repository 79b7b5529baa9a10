// Package provider defines the byte store a cachers Store persists entries
// in. Implementations must be byte-for-byte transparent: Get returns exactly
// the bytes previously passed to Set for the key.
//
// The keyspace "single:<ns>" is owned by cachers. Foreign values written
// under it are treated as corrupt and deleted on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. It must be safe for concurrent
// use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL (<= 0 means no expiry where the
	// store supports it). ok=false means the store refused the write under
	// pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}
