package codec

import "fmt"

// ErrTooLarge is returned by Limit when a payload exceeds its bound.
type ErrTooLarge struct {
	Size, Max int
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("payload too large: %d > %d", e.Size, e.Max)
}

// Limit wraps a codec and refuses to decode payloads longer than max bytes,
// which protects against oversized values in a shared cache. max <= 0
// disables the check. Encode is forwarded unchanged.
func Limit[V any](inner Codec[V], max int) Codec[V] {
	return limit[V]{inner: inner, max: max}
}

type limit[V any] struct {
	inner Codec[V]
	max   int
}

func (l limit[V]) Encode(v V) ([]byte, error) { return l.inner.Encode(v) }

func (l limit[V]) Decode(b []byte) (V, error) {
	if l.max > 0 && len(b) > l.max {
		var zero V
		return zero, &ErrTooLarge{Size: len(b), Max: l.max}
	}
	return l.inner.Decode(b)
}
