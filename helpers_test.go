package cachers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/cachers/provider/memory"
)

// recHooks counts events; safe for concurrent use.
type recHooks struct {
	NopHooks

	mu       sync.Mutex
	inUse    []int64
	dropped  int
	bindRej  int
	compRej  int
	loadFail int
	heal     []string
	outage   int
}

func (h *recHooks) StoreReleasedInUse(_ string, remaining int64) {
	h.mu.Lock()
	h.inUse = append(h.inUse, remaining)
	h.mu.Unlock()
}

func (h *recHooks) CallbackDropped([]byte) {
	h.mu.Lock()
	h.dropped++
	h.mu.Unlock()
}

func (h *recHooks) BindRejected([]byte) {
	h.mu.Lock()
	h.bindRej++
	h.mu.Unlock()
}

func (h *recHooks) CompleteRejected([]byte) {
	h.mu.Lock()
	h.compRej++
	h.mu.Unlock()
}

func (h *recHooks) LoadFailed([]byte, error) {
	h.mu.Lock()
	h.loadFail++
	h.mu.Unlock()
}

func (h *recHooks) SelfHeal(_, reason string) {
	h.mu.Lock()
	h.heal = append(h.heal, reason)
	h.mu.Unlock()
}

func (h *recHooks) InvalidateOutage(string, error, error) {
	h.mu.Lock()
	h.outage++
	h.mu.Unlock()
}

// recLogger keeps the messages logged at Warn level.
type recLogger struct {
	NopLogger

	mu    sync.Mutex
	warns []string
}

func (l *recLogger) Warn(msg string, _ Fields) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *recLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

// manualLoader hands every request to the test instead of finishing it.
type manualLoader struct {
	reqs chan *Request
}

func newManualLoader() *manualLoader { return &manualLoader{reqs: make(chan *Request, 16)} }

func (m *manualLoader) Load(_ context.Context, req *Request) { m.reqs <- req }
func (m *manualLoader) Close(context.Context) error          { return nil }

func (m *manualLoader) next(t *testing.T) *Request {
	t.Helper()
	select {
	case req := <-m.reqs:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("no request reached the loader")
		return nil
	}
}

func openStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func openMemStore(t *testing.T, ns string, opts Options) (*Store, *memory.Provider) {
	t.Helper()
	mp := memory.New()
	opts.Namespace = ns
	opts.Provider = mp
	return openStore(t, opts), mp
}
