package cachers

import (
	"context"
	"fmt"
	"time"

	c "github.com/unkn0wn-root/cachers/codec"
)

// Typed is a value-typed view of a Store. It borrows the Store: the caller
// keeps ownership and must keep it alive while Typed is in use.
type Typed[V any] struct {
	s     *Store
	codec c.Codec[V]
}

func NewTyped[V any](s *Store, codec c.Codec[V]) Typed[V] {
	return Typed[V]{s: s, codec: codec}
}

// Get looks key up and waits for the result. A key that resolves to no data
// reports ok=false with a nil error.
func (t Typed[V]) Get(ctx context.Context, key string) (v V, ok bool, err error) {
	r, err := t.s.Lookup(ctx, []byte(key))
	if err != nil {
		return v, false, err
	}
	defer r.Release()

	snap, err := r.Await(ctx)
	if err != nil {
		return v, false, err
	}
	switch snap.State {
	case StateComplete:
		v, err = t.codec.Decode(snap.Data)
		if err != nil {
			return v, false, fmt.Errorf("cachers: decode %q: %w", key, err)
		}
		return v, true, nil
	case StateError:
		return v, false, fmt.Errorf("cachers: load %q: %s", key, snap.Err)
	default:
		return v, false, nil
	}
}

func (t Typed[V]) Put(ctx context.Context, key string, v V, ttl time.Duration) error {
	b, err := t.codec.Encode(v)
	if err != nil {
		return err
	}
	return t.s.Put(ctx, []byte(key), b, ttl)
}

func (t Typed[V]) Invalidate(ctx context.Context, key string) error {
	return t.s.Invalidate(ctx, []byte(key))
}
