// Package asynchook moves cachers.Hooks calls off the hot path. Events are
// queued to a fixed set of workers and dropped when the queue is full, so a
// slow hook can never stall a completing goroutine.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{})
//	hooks := asynchook.New(raw, 1, 1000)
//	defer hooks.Close()
//
//	store, _ := cachers.Open(cachers.Options{Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/cachers"
)

type Hooks struct {
	inner   cachers.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ cachers.Hooks = (*Hooks)(nil)

func New(inner cachers.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent afterwards
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

// Byte slices are shared with the response and never mutated, so passing
// them to another goroutine is safe.

func (h *Hooks) StoreReleasedInUse(ns string, n int64) {
	h.try(func() { h.inner.StoreReleasedInUse(ns, n) })
}
func (h *Hooks) CallbackDropped(k []byte)       { h.try(func() { h.inner.CallbackDropped(k) }) }
func (h *Hooks) BindRejected(k []byte)          { h.try(func() { h.inner.BindRejected(k) }) }
func (h *Hooks) CompleteRejected(k []byte)      { h.try(func() { h.inner.CompleteRejected(k) }) }
func (h *Hooks) LoadFailed(k []byte, err error) { h.try(func() { h.inner.LoadFailed(k, err) }) }
func (h *Hooks) SelfHeal(k, r string)           { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) ProviderSetRejected(k string)   { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) GenSnapshotError(k string, err error) {
	h.try(func() { h.inner.GenSnapshotError(k, err) })
}
func (h *Hooks) GenBumpError(k string, err error) { h.try(func() { h.inner.GenBumpError(k, err) }) }
func (h *Hooks) InvalidateOutage(k string, be, de error) {
	h.try(func() { h.inner.InvalidateOutage(k, be, de) })
}
