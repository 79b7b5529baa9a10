package cachers

import (
	"time"

	gen "github.com/unkn0wn-root/cachers/genstore"
	pr "github.com/unkn0wn-root/cachers/provider"
)

type SetCostFunc func(storageKey string, raw []byte) int64

// Options configure a Store. All fields are optional.
type Options struct {
	Namespace string // isolates storage keys; "" => "default"

	// Loader resolves lookups. nil => a provider-backed loader when Provider
	// is set, otherwise EchoLoader.
	Loader Loader

	// Provider backs the write path (Put, Invalidate) and the default loader.
	// Without it the write path reports NotImplemented.
	Provider pr.Provider
	GenStore gen.GenStore // nil => in-process generations (only with Provider)

	Logger          Logger        // nil => NopLogger
	Hooks           Hooks         // nil => NopHooks
	DefaultTTL      time.Duration // 0 => 10m
	CleanupInterval time.Duration // local generations; 0 => 1h
	GenRetention    time.Duration // local generations; 0 => 30d
	ComputeSetCost  SetCostFunc   // default 1
}

// Open creates a Store holding one reference, owned by the caller.
func Open(opts Options) (*Store, error) {
	return newStore(opts)
}
