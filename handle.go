package cachers

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Handle is an opaque, boundary-safe identifier for a reference-counted
// Store or Response. The zero Handle is null.
type Handle uintptr

// HandleAlign is the alignment of every live handle. A handle with any of the
// low bits set was never minted by this package.
const HandleAlign = 8

var (
	handleSeq atomic.Uint64
	registry  sync.Map // Handle -> counted
)

// counted is implemented by every object that can cross the boundary.
type counted interface {
	counter() *refs
	kind() string
}

// refs is the shared count of a counted object. Counts move only through
// acquireBorrowed, acquireConsuming, releaseIntoHandle and the Clone/Release
// methods of the owning type.
type refs struct {
	n atomic.Int64
	h Handle
}

// init registers owner under a freshly minted handle with one count.
func (r *refs) init(owner counted) {
	r.n.Store(1)
	r.h = Handle(handleSeq.Add(1) * HandleAlign)
	registry.Store(r.h, owner)
}

// retain adds a count unless the object is already dead.
func (r *refs) retain() bool {
	for {
		n := r.n.Load()
		if n <= 0 {
			return false
		}
		if r.n.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release drops one count and returns the remainder. The registry entry goes
// away with the last count; a negative result means an over-release.
func (r *refs) release() int64 {
	n := r.n.Add(-1)
	if n == 0 {
		registry.Delete(r.h)
	}
	return n
}

func (r *refs) live() bool { return r.n.Load() > 0 }

func lookupHandle[T counted](name string, h Handle) (T, error) {
	var zero T
	if h == 0 {
		return zero, errorf(InvalidArgument, "handle `%s` is null", name)
	}
	if h%HandleAlign != 0 {
		return zero, errorf(InvalidArgument, "handle `%s` appears misaligned", name)
	}
	v, ok := registry.Load(h)
	if !ok {
		return zero, errorf(InvalidArgument, "handle `%s` does not refer to a live %s", name, zero.kind())
	}
	obj, ok := v.(T)
	if !ok {
		return zero, errorf(InvalidArgument, "handle `%s` refers to a %s, not a %s",
			name, v.(counted).kind(), zero.kind())
	}
	return obj, nil
}

// acquireBorrowed resolves h without taking ownership. The returned done func
// must be called before the entry point returns; it gives back the temporary
// count so the caller's ownership is untouched.
func acquireBorrowed[T counted](name string, h Handle) (T, func(), error) {
	obj, err := lookupHandle[T](name, h)
	if err != nil {
		return obj, nil, err
	}
	if !obj.counter().retain() {
		var zero T
		return zero, nil, errorf(InvalidArgument, "handle `%s` does not refer to a live %s", name, zero.kind())
	}
	return obj, func() { obj.counter().release() }, nil
}

// acquireConsuming resolves h and takes over the count it carried. The handle
// must not be used by the caller afterwards.
func acquireConsuming[T counted](name string, h Handle) (T, error) {
	obj, err := lookupHandle[T](name, h)
	if err != nil {
		return obj, err
	}
	if !obj.counter().live() {
		var zero T
		return zero, errorf(InvalidArgument, "handle `%s` does not refer to a live %s", name, zero.kind())
	}
	return obj, nil
}

// releaseIntoHandle hands one owned count across the boundary.
func releaseIntoHandle(obj counted) Handle {
	return obj.counter().h
}

// rawBytes validates a pointer/length pair coming from the other side.
// A nil pointer with zero length is "no data".
func rawBytes(name string, p unsafe.Pointer, n int) ([]byte, error) {
	return rawSlice[byte](name, p, n)
}

func rawSlice[T any](name string, p unsafe.Pointer, n int) ([]T, error) {
	if n < 0 {
		return nil, errorf(InvalidArgument, "length of `%s` is negative (%d)", name, n)
	}
	if p == nil {
		if n == 0 {
			return nil, nil
		}
		return nil, errorf(InvalidArgument, "pointer `%s` is null", name)
	}
	var elem T
	if uintptr(p)%unsafe.Alignof(elem) != 0 {
		return nil, errorf(InvalidArgument, "pointer `%s` appears misaligned", name)
	}
	return unsafe.Slice((*T)(p), n), nil
}

func (h Handle) String() string { return fmt.Sprintf("%#x", uintptr(h)) }
