package cachers

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unsafe"

	"github.com/unkn0wn-root/cachers/provider/memory"
)

func TestThreadOpenRelease(t *testing.T) {
	th := NewThread()
	var h Handle
	if code := th.Open(&h); code != Ok {
		t.Fatalf("Open: %v", code)
	}
	if code := th.Release(h); code != Ok {
		t.Fatalf("Release: %v", code)
	}
	if _, ok := th.LastError(); ok {
		t.Fatalf("LastError set after success")
	}
	// the handle is gone now
	if code := th.Release(h); code != InvalidArgument {
		t.Fatalf("second Release: %v", code)
	}
	if code := th.Open(nil); code != InvalidArgument {
		t.Fatalf("Open(nil): %v", code)
	}
}

func TestThreadReportsLastError(t *testing.T) {
	th := NewThread()
	var out Snapshot

	if code := th.Lookup(0, []byte("k"), &out); code != InvalidArgument {
		t.Fatalf("null handle: %v", code)
	}
	msg, ok := th.LastError()
	if !ok || !strings.Contains(msg, "null") {
		t.Fatalf("LastError=%q ok=%v", msg, ok)
	}
	if th.LastCode() != InvalidArgument {
		t.Fatalf("LastCode=%v", th.LastCode())
	}

	if code := th.Lookup(Handle(HandleAlign+3), []byte("k"), &out); code != InvalidArgument {
		t.Fatalf("misaligned handle: %v", code)
	}
	if msg, _ := th.LastError(); !strings.Contains(msg, "misaligned") {
		t.Fatalf("LastError=%q", msg)
	}

	// reading does not clear; a success does
	if _, ok := th.LastError(); !ok {
		t.Fatalf("LastError cleared by reading")
	}
	var h Handle
	_ = th.Open(&h)
	if _, ok := th.LastError(); ok {
		t.Fatalf("LastError survived a successful call")
	}
	_ = th.Release(h)
}

func TestThreadsDoNotShareErrors(t *testing.T) {
	a, b := NewThread(), NewThread()
	_ = a.Release(0)
	if _, ok := b.LastError(); ok {
		t.Fatalf("error leaked across threads")
	}
}

func TestThreadLookupReadOrBindComplete(t *testing.T) {
	ml := newManualLoader()
	th := NewThread()
	var store Handle
	if code := th.OpenWith(Options{Loader: ml}, &store); code != Ok {
		t.Fatalf("OpenWith: %v", code)
	}

	var out Snapshot
	if code := th.Lookup(store, []byte("k"), &out); code != Ok {
		t.Fatalf("Lookup: %v", code)
	}
	if out.State != StateInProgress || string(out.Header) != "k" || out.Token == 0 {
		t.Fatalf("unexpected lookup snapshot %+v", out)
	}
	cell := out.Token
	req := ml.next(t)

	var calls atomic.Int32
	got := make(chan Snapshot, 1)
	cb := func(s Snapshot, cxt any) {
		calls.Add(1)
		if cxt == "user" {
			got <- s
		}
	}
	if code := th.ReadOrBind(cell, cb, "user", &out); code != Ok {
		t.Fatalf("ReadOrBind: %v", code)
	}
	if out.State != StateInProgress {
		t.Fatalf("state=%v", out.State)
	}
	if code := th.ReadOrBind(cell, cb, nil, &out); code != HasData {
		t.Fatalf("second ReadOrBind: %v", code)
	}

	// another thread completes the cell through the boundary
	done := make(chan Code, 1)
	go func() { done <- NewThread().Complete(cell, []byte("v")) }()
	select {
	case snap := <-got:
		if snap.State != StateComplete || string(snap.Data) != "v" {
			t.Fatalf("unexpected snapshot %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	if code := <-done; code != Ok {
		t.Fatalf("Complete: %v", code)
	}
	if code := th.Complete(cell, []byte("again")); code != HasData {
		t.Fatalf("second Complete: %v", code)
	}
	if calls.Load() != 1 {
		t.Fatalf("callback calls=%d", calls.Load())
	}

	_ = req.Miss() // the loader's own late answer is rejected
	if code := th.ReleaseResponse(cell); code != Ok {
		t.Fatalf("ReleaseResponse: %v", code)
	}
	if code := th.Release(store); code != Ok {
		t.Fatalf("Release: %v", code)
	}
}

func TestThreadReadyCellIsSynchronous(t *testing.T) {
	th := NewThread()
	var store Handle
	_ = th.Open(&store)
	defer th.Release(store)

	var out Snapshot
	if code := th.Lookup(store, []byte("echo"), &out); code != Ok {
		t.Fatalf("Lookup: %v", code)
	}
	cell := out.Token
	defer th.ReleaseResponse(cell)

	var calls atomic.Int32
	if code := th.ReadOrBind(cell, func(Snapshot, any) { calls.Add(1) }, nil, &out); code != Ok {
		t.Fatalf("ReadOrBind: %v", code)
	}
	if out.State != StateComplete || string(out.Data) != "echo" {
		t.Fatalf("unexpected snapshot %+v", out)
	}
	if calls.Load() != 0 {
		t.Fatalf("callback invoked for a ready cell")
	}
}

func TestThreadArgumentChecks(t *testing.T) {
	th := NewThread()
	var store Handle
	_ = th.Open(&store)
	defer th.Release(store)

	var out Snapshot
	if code := th.Lookup(store, []byte("k"), nil); code != InvalidArgument {
		t.Fatalf("nil out: %v", code)
	}
	if code := th.Lookup(store, nil, &out); code != InvalidArgument {
		t.Fatalf("empty key: %v", code)
	}
	_ = th.Lookup(store, []byte("k"), &out)
	cell := out.Token
	defer th.ReleaseResponse(cell)

	if code := th.ReadOrBind(cell, nil, nil, &out); code != InvalidArgument {
		t.Fatalf("nil callback: %v", code)
	}
	if code := th.ReadOrBind(store, func(Snapshot, any) {}, nil, &out); code != InvalidArgument {
		t.Fatalf("store handle as cell: %v", code)
	}
	if msg, _ := th.LastError(); !strings.Contains(msg, "not a response") {
		t.Fatalf("LastError=%q", msg)
	}
	if code := th.Fail(cell, ""); code != InvalidArgument {
		t.Fatalf("empty message: %v", code)
	}
	if code := th.Put(store, []byte("k"), []byte("v")); code != NotImplemented {
		t.Fatalf("Put without provider: %v", code)
	}
	if code := th.Invalidate(store, []byte("k")); code != NotImplemented {
		t.Fatalf("Invalidate without provider: %v", code)
	}
}

func TestThreadRawVariants(t *testing.T) {
	ml := newManualLoader()
	th := NewThread()
	var store Handle
	_ = th.OpenWith(Options{Loader: ml}, &store)
	defer th.Release(store)

	key := []byte("raw")
	var out Snapshot
	if code := th.LookupRaw(store, unsafe.Pointer(&key[0]), len(key), &out); code != Ok {
		t.Fatalf("LookupRaw: %v", code)
	}
	cell := out.Token
	defer th.ReleaseResponse(cell)
	req := ml.next(t)
	defer req.Miss()

	if code := th.LookupRaw(store, nil, 4, &out); code != InvalidArgument {
		t.Fatalf("null key pointer: %v", code)
	}

	data := []byte("payload")
	if code := th.CompleteRaw(cell, unsafe.Pointer(&data[0]), len(data)); code != Ok {
		t.Fatalf("CompleteRaw: %v", code)
	}
	data[0] = 'X' // the cell keeps its own copy
	if code := th.ReadOrBind(cell, func(Snapshot, any) {}, nil, &out); code != Ok {
		t.Fatalf("ReadOrBind: %v", code)
	}
	if string(out.Data) != "payload" {
		t.Fatalf("data=%q", out.Data)
	}
}

func TestThreadMissAndFail(t *testing.T) {
	ml := newManualLoader()
	th := NewThread()
	var store Handle
	_ = th.OpenWith(Options{Loader: ml}, &store)
	defer th.Release(store)

	var out Snapshot
	_ = th.Lookup(store, []byte("a"), &out)
	a := out.Token
	_ = th.Lookup(store, []byte("b"), &out)
	b := out.Token
	reqA, reqB := ml.next(t), ml.next(t)
	defer reqA.Miss()
	defer reqB.Miss()

	if code := th.Complete(a, nil); code != Ok {
		t.Fatalf("Complete(nil): %v", code)
	}
	if code := th.Fail(b, "upstream timeout"); code != Ok {
		t.Fatalf("Fail: %v", code)
	}
	_ = th.ReadOrBind(a, func(Snapshot, any) {}, nil, &out)
	if out.State != StateNoData {
		t.Fatalf("a state=%v", out.State)
	}
	_ = th.ReadOrBind(b, func(Snapshot, any) {}, nil, &out)
	if out.State != StateError || out.Err != "upstream timeout" {
		t.Fatalf("b snapshot %+v", out)
	}
	_ = th.ReleaseResponse(a)
	_ = th.ReleaseResponse(b)
}

func TestThreadStoreReleasedWithLiveCell(t *testing.T) {
	h := &recHooks{}
	th := NewThread()
	var store Handle
	_ = th.OpenWith(Options{Hooks: h}, &store)

	var out Snapshot
	_ = th.Lookup(store, []byte("k"), &out)
	if code := th.Release(store); code != Ok {
		t.Fatalf("Release with live cell: %v", code)
	}
	if len(h.inUse) != 1 {
		t.Fatalf("StoreReleasedInUse not reported")
	}
	if code := th.ReleaseResponse(out.Token); code != Ok {
		t.Fatalf("ReleaseResponse: %v", code)
	}
}

func TestThreadPutInvalidate(t *testing.T) {
	th := NewThread()
	var store Handle
	if code := th.OpenWith(Options{Provider: memory.New()}, &store); code != Ok {
		t.Fatalf("OpenWith: %v", code)
	}
	defer th.Release(store)

	if code := th.Put(store, []byte("k"), []byte("v")); code != Ok {
		t.Fatalf("Put: %v", code)
	}
	var out Snapshot
	_ = th.Lookup(store, []byte("k"), &out)
	if out.State != StateComplete || string(out.Data) != "v" {
		t.Fatalf("after Put: %+v", out)
	}
	_ = th.ReleaseResponse(out.Token)

	if code := th.Invalidate(store, []byte("k")); code != Ok {
		t.Fatalf("Invalidate: %v", code)
	}
	_ = th.Lookup(store, []byte("k"), &out)
	if out.State != StateNoData {
		t.Fatalf("after Invalidate: %+v", out)
	}
	_ = th.ReleaseResponse(out.Token)
}
