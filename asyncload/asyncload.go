// Package asyncload runs a cachers.Loader on a fixed pool of worker
// goroutines, so Store.Lookup returns at once with a pending Response that
// completes on a worker.
//
//	l := asyncload.New(slowLoader, asyncload.Options{Workers: 4, Queue: 256})
//	store, _ := cachers.Open(cachers.Options{Loader: l})
package asyncload

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/cachers"
)

var (
	// ErrQueueFull finishes a request that could not be queued.
	ErrQueueFull = errors.New("asyncload: queue full")
	// ErrClosed finishes a request that arrived after Close.
	ErrClosed = errors.New("asyncload: loader closed")
)

type Options struct {
	Workers int           // 0 => 1
	Queue   int           // 0 => 1024
	Timeout time.Duration // per load; 0 => none
}

// Loader must wrap a loader that finishes each request before its Load
// returns; the per-load context is cancelled right after.
type Loader struct {
	inner   cachers.Loader
	timeout time.Duration
	q       chan job

	mu     sync.RWMutex // guards closed against concurrent sends
	closed bool
	live   atomic.Int32
	once   sync.Once
	done   chan struct{}
}

type job struct {
	ctx context.Context
	req *cachers.Request
}

var _ cachers.Loader = (*Loader)(nil)

func New(inner cachers.Loader, opts Options) *Loader {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Queue <= 0 {
		opts.Queue = 1024
	}
	l := &Loader{
		inner:   inner,
		timeout: opts.Timeout,
		q:       make(chan job, opts.Queue),
		done:    make(chan struct{}),
	}
	l.live.Store(int32(opts.Workers))
	for i := 0; i < opts.Workers; i++ {
		go l.work()
	}
	return l
}

func (l *Loader) work() {
	defer l.exit()
	for j := range l.q {
		ctx, cancel := j.ctx, context.CancelFunc(func() {})
		if l.timeout > 0 {
			ctx, cancel = context.WithTimeout(ctx, l.timeout)
		}
		l.inner.Load(ctx, j.req)
		cancel()
	}
}

func (l *Loader) exit() {
	if l.live.Add(-1) == 0 {
		_ = l.inner.Close(context.Background())
		close(l.done)
	}
}

// Load queues req. The lookup's context only contributes its values: the
// load outlives the Lookup call that started it.
func (l *Loader) Load(ctx context.Context, req *cachers.Request) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		_ = req.Fail(ErrClosed)
		return
	}
	select {
	case l.q <- job{ctx: context.WithoutCancel(ctx), req: req}:
	default:
		_ = req.Fail(ErrQueueFull)
	}
}

// Close stops accepting loads. Queued loads still run; the inner loader is
// closed once the last worker has exited, which Done reports. Close does not
// wait: the last reference to a Store may well be dropped on a worker.
func (l *Loader) Close(context.Context) error {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.q)
		l.mu.Unlock()
	})
	return nil
}

// Done is closed after every worker has exited and the inner loader is closed.
func (l *Loader) Done() <-chan struct{} { return l.done }
