package cachers

import (
	"context"
	"errors"
	"unsafe"
)

// The methods below are the handle-based surface of the library. Each one
// validates its handles and out-parameters before touching them, returns a
// Code, and records the failure on t for LastError.

// Open creates a Store with default options and writes its handle to out.
// The caller owns the handle and must pass it to Release.
func (t *Thread) Open(out *Handle) Code {
	return t.OpenWith(Options{}, out)
}

func (t *Thread) OpenWith(opts Options, out *Handle) Code {
	return t.call(func() error {
		if out == nil {
			return errorf(InvalidArgument, "pointer `out` is null")
		}
		s, err := Open(opts)
		if err != nil {
			return err
		}
		*out = releaseIntoHandle(s)
		return nil
	})
}

// Release consumes the store handle.
func (t *Thread) Release(store Handle) Code {
	return t.call(func() error {
		s, err := acquireConsuming[*Store]("store", store)
		if err != nil {
			return err
		}
		return s.Release()
	})
}

// Lookup borrows store and writes a snapshot of the new response to out.
// out.Token is owned by the caller and must be passed to ReleaseResponse.
func (t *Thread) Lookup(store Handle, key []byte, out *Snapshot) Code {
	return t.call(func() error {
		return lookup(store, key, out)
	})
}

// LookupRaw is Lookup for a key given as a pointer/length pair.
func (t *Thread) LookupRaw(store Handle, key unsafe.Pointer, keyLen int, out *Snapshot) Code {
	return t.call(func() error {
		k, err := rawBytes("key", key, keyLen)
		if err != nil {
			return err
		}
		return lookup(store, k, out)
	})
}

func lookup(store Handle, key []byte, out *Snapshot) error {
	s, done, err := acquireBorrowed[*Store]("store", store)
	if err != nil {
		return err
	}
	defer done()
	if out == nil {
		return errorf(InvalidArgument, "pointer `out` is null")
	}
	r, err := s.Lookup(context.Background(), key)
	if err != nil {
		return err
	}
	*out = r.Peek()
	out.Token = releaseIntoHandle(r)
	return nil
}

// ReadOrBind borrows cell. If the response is ready its snapshot is written
// to out and cb is never called. Otherwise cb is bound and out gets a
// StateInProgress snapshot; cb later runs once on the completing thread.
func (t *Thread) ReadOrBind(cell Handle, cb Callback, cxt any, out *Snapshot) Code {
	return t.call(func() error {
		r, done, err := acquireBorrowed[*Response]("cell", cell)
		if err != nil {
			return err
		}
		defer done()
		if cb == nil {
			return errorf(InvalidArgument, "`callback` can not be null")
		}
		if out == nil {
			return errorf(InvalidArgument, "pointer `out` is null")
		}
		snap, _, err := r.ReadOrBind(cb, cxt)
		if err != nil {
			return err
		}
		*out = snap
		return nil
	})
}

// Complete borrows cell and stores data as its value. A nil data means the
// key resolved to nothing (StateNoData).
func (t *Thread) Complete(cell Handle, data []byte) Code {
	return t.call(func() error {
		return complete(cell, data)
	})
}

func (t *Thread) CompleteRaw(cell Handle, data unsafe.Pointer, dataLen int) Code {
	return t.call(func() error {
		b, err := rawBytes("data", data, dataLen)
		if err != nil {
			return err
		}
		return complete(cell, b)
	})
}

func complete(cell Handle, data []byte) error {
	r, done, err := acquireBorrowed[*Response]("cell", cell)
	if err != nil {
		return err
	}
	defer done()
	if data == nil {
		return r.Miss()
	}
	return r.Complete(data)
}

// Fail borrows cell and finishes it with StateError.
func (t *Thread) Fail(cell Handle, msg string) Code {
	return t.call(func() error {
		r, done, err := acquireBorrowed[*Response]("cell", cell)
		if err != nil {
			return err
		}
		defer done()
		if msg == "" {
			return errorf(InvalidArgument, "`msg` is empty")
		}
		return r.Fail(errors.New(msg))
	})
}

// ReleaseResponse consumes the cell handle.
func (t *Thread) ReleaseResponse(cell Handle) Code {
	return t.call(func() error {
		r, err := acquireConsuming[*Response]("cell", cell)
		if err != nil {
			return err
		}
		return r.Release()
	})
}

// Put borrows store and writes data under key.
func (t *Thread) Put(store Handle, key, data []byte) Code {
	return t.call(func() error {
		s, done, err := acquireBorrowed[*Store]("store", store)
		if err != nil {
			return err
		}
		defer done()
		return s.Put(context.Background(), key, data, 0)
	})
}

// Invalidate borrows store and invalidates key.
func (t *Thread) Invalidate(store Handle, key []byte) Code {
	return t.call(func() error {
		s, done, err := acquireBorrowed[*Store]("store", store)
		if err != nil {
			return err
		}
		defer done()
		return s.Invalidate(context.Background(), key)
	})
}
