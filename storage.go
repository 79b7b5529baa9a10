package cachers

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/cachers/internal/util"
	"github.com/unkn0wn-root/cachers/internal/wire"
)

// providerLoader reads framed entries from the Store's provider. Entries whose
// frame is corrupt or whose generation moved are deleted and reported as a
// miss. Concurrent lookups of one key share a single provider read.
type providerLoader struct {
	s  *Store
	sf singleflight.Group
}

func (l *providerLoader) Load(ctx context.Context, req *Request) {
	k := l.s.storageKey(req.Key())
	// the read is shared, so one caller's cancellation must not fail the rest
	shared := context.WithoutCancel(ctx)
	v, err, _ := l.sf.Do(k, func() (any, error) {
		return l.read(shared, k)
	})
	switch payload, _ := v.([]byte); {
	case err != nil:
		_ = req.Fail(err)
	case payload == nil:
		_ = req.Miss()
	default:
		_ = req.Complete(payload)
	}
}

// read returns nil on a miss.
func (l *providerLoader) read(ctx context.Context, k string) ([]byte, error) {
	s := l.s
	raw, ok, err := s.provider.Get(ctx, k)
	if err != nil || !ok {
		return nil, err
	}
	g, payload, err := wire.DecodeSingle(raw)
	if err != nil {
		_ = s.provider.Del(ctx, k) // self-heal corrupt
		s.hooks.SelfHeal(k, "corrupt")
		return nil, nil
	}
	if g != s.snapshotGen(ctx, k) {
		_ = s.provider.Del(ctx, k)
		s.hooks.SelfHeal(k, "gen_mismatch")
		return nil, nil
	}
	if payload == nil {
		payload = []byte{}
	}
	return payload, nil
}

func (*providerLoader) Close(context.Context) error { return nil }

func (s *Store) writable() error {
	if s.provider == nil {
		return errorf(NotImplemented, "store %q has no provider; writes are not supported", s.ns)
	}
	return nil
}

// SnapshotGen returns the current generation of key. Read it before fetching
// the value from the source of truth and pass it to PutWithGen.
func (s *Store) SnapshotGen(ctx context.Context, key []byte) (uint64, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}
	return s.snapshotGen(ctx, s.storageKey(key)), nil
}

// Put stores data under the current generation of key.
func (s *Store) Put(ctx context.Context, key, data []byte, ttl time.Duration) error {
	if err := s.writable(); err != nil {
		return err
	}
	return s.PutWithGen(ctx, key, data, s.snapshotGen(ctx, s.storageKey(key)), ttl)
}

// PutWithGen stores data only if key's generation still equals observedGen,
// so a value read before an Invalidate can not overwrite the invalidation.
func (s *Store) PutWithGen(ctx context.Context, key, data []byte, observedGen uint64, ttl time.Duration) error {
	if err := s.writable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return errorf(InvalidArgument, "`key` is empty")
	}
	ttl = coalesce(ttl, s.defaultTTL)
	k := s.storageKey(key)
	if s.snapshotGen(ctx, k) != observedGen {
		s.log.Debug("put skipped (gen mismatch)", Fields{"key": k, "obs": observedGen})
		return nil
	}
	entry := wire.EncodeSingle(observedGen, data)
	ok, err := s.provider.Set(ctx, k, entry, s.computeSetCost(k, entry), ttl)
	if err != nil {
		return err
	}
	if !ok {
		s.log.Debug("put rejected by provider (pressure)", Fields{"key": k})
		s.hooks.ProviderSetRejected(k)
	}
	return nil
}

// Invalidate bumps key's generation and deletes the stored entry. Either
// step is enough to hide the old value; it fails only if both do.
func (s *Store) Invalidate(ctx context.Context, key []byte) error {
	if err := s.writable(); err != nil {
		return err
	}
	if len(key) == 0 {
		return errorf(InvalidArgument, "`key` is empty")
	}
	k := s.storageKey(key)
	newGen, bumpErr := s.gen.Bump(ctx, k)
	if bumpErr != nil {
		s.hooks.GenBumpError(k, bumpErr)
	}
	delErr := s.provider.Del(ctx, k)
	if bumpErr != nil && delErr != nil {
		s.hooks.InvalidateOutage(k, bumpErr, delErr)
		return &InvalidateError{Key: k, BumpErr: bumpErr, DelErr: delErr}
	}
	if delErr != nil {
		// the bump alone makes the stored entry unreadable
		s.log.Warn("invalidate: delete failed", Fields{"key": k, "err": delErr})
	}
	s.log.Debug("invalidated key", Fields{"key": k, "newGen": newGen})
	return nil
}

func (s *Store) snapshotGen(ctx context.Context, storageKey string) uint64 {
	g, err := s.gen.Snapshot(ctx, storageKey)
	if err != nil {
		// treat as 0 so stale writes skip and reads self-heal
		s.log.Warn("gen snapshot error", Fields{"key": storageKey, "err": err})
		s.hooks.GenSnapshotError(storageKey, err)
		return 0
	}
	return g
}

func (s *Store) storageKey(key []byte) string {
	return util.StorageKey("single:"+s.ns, key)
}
