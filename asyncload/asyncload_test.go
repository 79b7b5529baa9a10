package asyncload

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/cachers"
)

// gatedLoader completes every request with its key once gate is closed.
type gatedLoader struct {
	gate   chan struct{}
	closed atomic.Bool
}

func (g *gatedLoader) Load(_ context.Context, req *cachers.Request) {
	<-g.gate
	_ = req.Complete(append([]byte("v:"), req.Key()...))
}

func (g *gatedLoader) Close(context.Context) error {
	g.closed.Store(true)
	return nil
}

func TestLookupCompletesOnWorker(t *testing.T) {
	inner := &gatedLoader{gate: make(chan struct{})}
	l := New(inner, Options{Workers: 1, Queue: 4})
	s, err := cachers.Open(cachers.Options{Loader: l})
	if err != nil {
		t.Fatal(err)
	}

	r, err := s.Lookup(context.Background(), []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	if st := r.Peek().State; st != cachers.StateInProgress {
		t.Fatalf("state=%v, want InProgress", st)
	}

	got := make(chan cachers.Snapshot, 2)
	if _, ready, err := r.ReadOrBind(func(s cachers.Snapshot, _ any) { got <- s }, nil); err != nil || ready {
		t.Fatalf("ReadOrBind: ready=%v err=%v", ready, err)
	}
	close(inner.gate)

	select {
	case snap := <-got:
		if snap.State != cachers.StateComplete || string(snap.Data) != "v:k" {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	select {
	case <-got:
		t.Fatal("callback fired twice")
	case <-time.After(20 * time.Millisecond):
	}

	if err := r.Release(); err != nil {
		t.Fatal(err)
	}
	if err := s.Release(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after the store closed")
	}
	if !inner.closed.Load() {
		t.Fatal("inner loader not closed with the store")
	}
}

func TestQueueFullFailsRequest(t *testing.T) {
	inner := &gatedLoader{gate: make(chan struct{})}
	l := New(inner, Options{Workers: 1, Queue: 1})
	s, err := cachers.Open(cachers.Options{Loader: l})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	// one in the worker (maybe), one queued, the rest must fail fast
	var failed int
	var rs []*cachers.Response
	for i := 0; i < 4; i++ {
		r, err := s.Lookup(ctx, []byte{'k', byte('0' + i)})
		if err != nil {
			t.Fatal(err)
		}
		rs = append(rs, r)
		if snap := r.Peek(); snap.State == cachers.StateError {
			if snap.Err != ErrQueueFull.Error() {
				t.Fatalf("unexpected error %q", snap.Err)
			}
			failed++
		}
	}
	if failed < 2 {
		t.Fatalf("expected at least 2 rejected lookups, got %d", failed)
	}
	close(inner.gate)
	for _, r := range rs {
		_ = r.Release()
	}
	_ = s.Release()
	select {
	case <-l.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("queued loads never drained")
	}
}

func TestLoadAfterCloseFails(t *testing.T) {
	l := New(cachers.EchoLoader{}, Options{})
	if err := l.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	s, err := cachers.Open(cachers.Options{Loader: cachers.LoaderFunc(func(ctx context.Context, req *cachers.Request) {
		l.Load(ctx, req)
	})})
	if err != nil {
		t.Fatal(err)
	}
	r, err := s.Lookup(context.Background(), []byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	snap := r.Peek()
	if snap.State != cachers.StateError || snap.Err != ErrClosed.Error() {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	_ = r.Release()
	_ = s.Release()
}
