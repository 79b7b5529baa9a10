package cachers

import (
	"context"
	"sync"
	"time"

	gen "github.com/unkn0wn-root/cachers/genstore"
	pr "github.com/unkn0wn-root/cachers/provider"
)

// Store is a cache session. It resolves keys into Responses through its
// Loader and, when a Provider is configured, accepts writes.
//
// A Store is reference counted: Open hands the caller one reference, every
// live Response holds another and so does every unfinished Request. The last Release closes the loader, the
// provider and an owned generation store.
type Store struct {
	refs refs

	ns             string
	loader         Loader
	provider       pr.Provider
	gen            gen.GenStore
	ownsGen        bool
	log            Logger
	hooks          Hooks
	defaultTTL     time.Duration
	computeSetCost SetCostFunc

	closeOnce sync.Once
}

func (*Store) kind() string     { return "store" }
func (s *Store) counter() *refs { return &s.refs }

func newStore(opts Options) (*Store, error) {
	s := &Store{
		ns:       coalesce(opts.Namespace, defaultNamespace),
		provider: opts.Provider,
	}
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.defaultTTL = coalesce(opts.DefaultTTL, defaultTTL)

	if opts.ComputeSetCost != nil {
		s.computeSetCost = opts.ComputeSetCost
	} else {
		s.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	if s.provider != nil {
		if opts.GenStore != nil {
			s.gen = opts.GenStore
		} else {
			s.gen = gen.NewLocal(
				coalesce(opts.CleanupInterval, defaultSweep),
				coalesce(opts.GenRetention, defaultGenRetention),
			)
			s.ownsGen = true
		}
	}

	switch {
	case opts.Loader != nil:
		s.loader = opts.Loader
	case s.provider != nil:
		s.loader = &providerLoader{s: s}
	default:
		s.loader = EchoLoader{}
	}

	s.refs.init(s)
	s.log.Debug("store opened", Fields{"namespace": s.ns, "handle": s.refs.h.String()})
	return s, nil
}

func (s *Store) Namespace() string { return s.ns }

// Handle returns the boundary handle of s without transferring ownership.
func (s *Store) Handle() Handle { return s.refs.h }

// Clone takes another reference on s. Every Clone needs a matching Release.
func (s *Store) Clone() *Store {
	if !s.refs.retain() {
		return nil
	}
	return s
}

// Lookup resolves key into a Response owned by the caller. Depending on the
// loader the Response is either already ready or completes later on another
// goroutine.
func (s *Store) Lookup(ctx context.Context, key []byte) (*Response, error) {
	if len(key) == 0 {
		return nil, errorf(InvalidArgument, "`key` is empty")
	}
	if !s.refs.retain() {
		return nil, errorf(InvalidArgument, "store is released")
	}
	r := newResponse(s, key)
	s.refs.retain() // held by the request until it is finished
	s.loader.Load(ctx, &Request{res: r})
	return r, nil
}

// Release drops the caller's reference. Releasing while responses (or other
// clones) are still alive is a lifetime bug on the caller's side: it is
// logged and reported to Hooks, and the release still happens.
func (s *Store) Release() error {
	n := s.refs.release()
	switch {
	case n < 0:
		return errorf(InvalidArgument, "store released more times than it was referenced")
	case n > 0:
		s.log.Warn("store released while still in use", Fields{"namespace": s.ns, "remaining": n})
		s.hooks.StoreReleasedInUse(s.ns, n)
		return nil
	}
	s.close()
	return nil
}

// unref drops a reference held internally by a Response.
func (s *Store) unref() {
	n := s.refs.release()
	switch {
	case n < 0:
		s.log.Error("store reference count went negative", Fields{"namespace": s.ns, "count": n})
	case n == 0:
		s.close()
	}
}

func (s *Store) close() {
	s.closeOnce.Do(func() {
		ctx := context.Background()
		if err := s.loader.Close(ctx); err != nil {
			s.log.Warn("loader close failed", Fields{"namespace": s.ns, "err": err})
		}
		if s.ownsGen {
			_ = s.gen.Close(ctx)
		}
		if s.provider != nil {
			if err := s.provider.Close(ctx); err != nil {
				s.log.Warn("provider close failed", Fields{"namespace": s.ns, "err": err})
			}
		}
		s.log.Debug("store closed", Fields{"namespace": s.ns})
	})
}
