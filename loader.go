package cachers

import (
	"context"
	"sync/atomic"
)

// Loader resolves the keys looked up on a Store. Load may finish the request
// before returning or hand it to another goroutine and finish it later; it
// must not block waiting for the data.
type Loader interface {
	Load(ctx context.Context, req *Request)
	Close(ctx context.Context) error
}

// LoaderFunc adapts a function to Loader. Close is a no-op.
type LoaderFunc func(ctx context.Context, req *Request)

func (f LoaderFunc) Load(ctx context.Context, req *Request) { f(ctx, req) }
func (LoaderFunc) Close(context.Context) error              { return nil }

// Request is a pending lookup handed to a Loader. It keeps the Store alive,
// not the Response: if the consumer releases the Response first, finishing
// the request fails with InvalidArgument and no callback runs. Exactly one of
// Complete, Miss, Fail or Abandon takes effect; later calls fail with HasData.
type Request struct {
	res  *Response
	done atomic.Bool
}

// Key returns the looked-up key. It must not be modified.
func (q *Request) Key() []byte { return q.res.header }

// Response returns the cell this request fills. It is not owned by the
// request; Clone it (nil once released) to keep it past completion.
func (q *Request) Response() *Response { return q.res }

func (q *Request) Complete(data []byte) error {
	return q.finish(func() error { return q.res.Complete(data) })
}

func (q *Request) Miss() error {
	return q.finish(q.res.Miss)
}

func (q *Request) Fail(err error) error {
	return q.finish(func() error {
		s := q.res.store
		s.log.Warn("lookup failed", Fields{"header": string(q.res.header), "err": err})
		s.hooks.LoadFailed(q.res.header, err)
		return q.res.Fail(err)
	})
}

// Abandon lets go of the request without answering it. A consumer still
// waiting on the Response gets nothing; use it only when the Response is
// known to be released or the loader is shutting down.
func (q *Request) Abandon() error {
	return q.finish(func() error {
		q.res.store.log.Debug("lookup abandoned", Fields{"header": string(q.res.header)})
		return nil
	})
}

func (q *Request) finish(f func() error) error {
	if !q.done.CompareAndSwap(false, true) {
		return errorf(HasData, "request already finished")
	}
	defer q.res.store.unref()
	return f()
}

// EchoLoader answers every lookup at once with the key itself as the data.
// It is the loader of a Store opened without a backing store.
type EchoLoader struct{}

func (EchoLoader) Load(_ context.Context, req *Request) { _ = req.Complete(req.Key()) }
func (EchoLoader) Close(context.Context) error          { return nil }
