package cachers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unsafe"
)

func TestLookupHandleRejects(t *testing.T) {
	s := openStore(t, Options{})
	defer s.Release()
	r, _ := s.Lookup(context.Background(), []byte("k"))
	defer r.Release()

	tests := []struct {
		name string
		h    Handle
		want string
	}{
		{"null", 0, "is null"},
		{"misaligned", s.Handle() + 1, "misaligned"},
		{"unknown", Handle(1 << 40), "does not refer to a live store"},
		{"wrong kind", r.Handle(), "refers to a response, not a store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lookupHandle[*Store]("store", tt.h)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("got %v, want InvalidArgument", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("message %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestBorrowLeavesCountUnchanged(t *testing.T) {
	s := openStore(t, Options{})
	before := s.refs.n.Load()

	got, done, err := acquireBorrowed[*Store]("store", s.Handle())
	if err != nil || got != s {
		t.Fatalf("acquireBorrowed: %v", err)
	}
	if n := s.refs.n.Load(); n != before+1 {
		t.Fatalf("count during borrow=%d, want %d", n, before+1)
	}
	done()
	if n := s.refs.n.Load(); n != before {
		t.Fatalf("count after borrow=%d, want %d", n, before)
	}
	_ = s.Release()

	if _, _, err := acquireBorrowed[*Store]("store", s.Handle()); err == nil {
		t.Fatalf("borrowed a released store")
	}
	if _, err := acquireConsuming[*Store]("store", s.Handle()); err == nil {
		t.Fatalf("consumed a released store")
	}
}

func TestHandlesAreUniqueAndAligned(t *testing.T) {
	seen := make(map[Handle]bool)
	var stores []*Store
	for i := 0; i < 64; i++ {
		s := openStore(t, Options{})
		h := s.Handle()
		if h%HandleAlign != 0 || seen[h] {
			t.Fatalf("handle %v reused or misaligned", h)
		}
		seen[h] = true
		stores = append(stores, s)
	}
	for _, s := range stores {
		_ = s.Release()
	}
}

func TestRawBytes(t *testing.T) {
	if b, err := rawBytes("key", nil, 0); err != nil || b != nil {
		t.Fatalf("nil/0: b=%v err=%v", b, err)
	}
	if _, err := rawBytes("key", nil, 3); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil/3: got %v", err)
	}
	buf := []byte("hello")
	if _, err := rawBytes("key", unsafe.Pointer(&buf[0]), -1); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative length: got %v", err)
	}
	b, err := rawBytes("key", unsafe.Pointer(&buf[0]), len(buf))
	if err != nil || string(b) != "hello" {
		t.Fatalf("got %q, %v", b, err)
	}

	words := make([]uint64, 2)
	p := unsafe.Add(unsafe.Pointer(&words[0]), 1)
	if _, err := rawSlice[uint64]("words", p, 1); err == nil || !strings.Contains(err.Error(), "misaligned") {
		t.Fatalf("misaligned pointer accepted: %v", err)
	}
}
