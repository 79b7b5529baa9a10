package cachers

import (
	"sync"
)

// DataState describes what a Snapshot carries.
type DataState uint8

const (
	// StateNoData: no data is associated with the key and none will arrive.
	StateNoData DataState = iota
	// StateComplete: the data has been fetched.
	StateComplete
	// StateInProgress: the data has not arrived yet.
	StateInProgress
	// StateError: the loader gave up; Snapshot.Err says why.
	StateError
)

func (s DataState) String() string {
	switch s {
	case StateNoData:
		return "NoData"
	case StateComplete:
		return "Complete"
	case StateInProgress:
		return "InProgress"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Snapshot is a self-describing view of a Response. Header and Data are
// shared with the Response and must not be modified.
type Snapshot struct {
	Token  Handle
	Header []byte
	State  DataState
	Data   []byte
	Err    string
}

// Callback receives the terminal snapshot of a bound Response. It runs on the
// goroutine that completes the response, with no lock held.
type Callback func(snap Snapshot, cxt any)

type phase uint8

const (
	phaseEmpty phase = iota
	phaseBound
	phaseReady
)

// Response is a single-assignment asynchronous value: it can be completed
// before or after a consumer asks for it, and the data is delivered exactly
// once, either synchronously by ReadOrBind or through the bound callback.
//
// Transitions are Empty -> Bound -> Ready or Empty -> Ready. Ready is terminal.
type Response struct {
	refs   refs
	header []byte
	store  *Store // retained; released on destroy

	mu    sync.Mutex
	phase phase
	dead  bool // destroyed; no further binding or completion
	cb    Callback
	cxt   any
	state DataState
	data  []byte
	err   string
}

func (*Response) kind() string     { return "response" }
func (r *Response) counter() *refs { return &r.refs }

func newResponse(s *Store, key []byte) *Response {
	r := &Response{
		header: append([]byte(nil), key...),
		store:  s,
	}
	r.refs.init(r)
	return r
}

func (r *Response) Header() []byte { return r.header }

// Handle returns the boundary handle of r without transferring ownership.
func (r *Response) Handle() Handle { return r.refs.h }

// Clone takes another reference on r. Every Clone needs a matching Release.
func (r *Response) Clone() *Response {
	if !r.refs.retain() {
		return nil
	}
	return r
}

// Release drops one reference. The last release destroys the response
// whether or not it ever became ready: a bound callback is dropped and a
// pending loader can no longer complete it.
func (r *Response) Release() error {
	n := r.refs.release()
	switch {
	case n > 0:
		return nil
	case n < 0:
		return errorf(InvalidArgument, "response released more times than it was referenced")
	}
	r.destroy()
	return nil
}

func (r *Response) destroy() {
	r.mu.Lock()
	dropped := r.phase == phaseBound
	r.cb, r.cxt = nil, nil
	r.dead = true
	r.mu.Unlock()

	if r.store != nil {
		if dropped {
			r.store.log.Warn("response released with a pending callback; callback dropped",
				Fields{"header": string(r.header)})
			r.store.hooks.CallbackDropped(r.header)
		}
		r.store.unref()
	}
}

// snapshotLocked must be called with r.mu held.
func (r *Response) snapshotLocked() Snapshot {
	snap := Snapshot{Token: r.refs.h, Header: r.header}
	if r.phase != phaseReady {
		snap.State = StateInProgress
		return snap
	}
	snap.State = r.state
	snap.Data = r.data
	snap.Err = r.err
	return snap
}

// Peek returns the current snapshot without binding anything.
func (r *Response) Peek() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// ReadOrBind returns the data if r is ready (ok=true, cb is never called).
// Otherwise it binds cb and reports ok=false; cb then runs exactly once when r
// completes. A second binding fails with HasData and leaves the first intact.
func (r *Response) ReadOrBind(cb Callback, cxt any) (snap Snapshot, ok bool, err error) {
	if cb == nil {
		return Snapshot{}, false, errorf(InvalidArgument, "`callback` can not be null")
	}

	r.mu.Lock()
	if r.dead {
		r.mu.Unlock()
		return Snapshot{}, false, errResponseReleased
	}
	switch r.phase {
	case phaseReady:
		snap = r.snapshotLocked()
		r.mu.Unlock()
		return snap, true, nil
	case phaseEmpty:
		r.phase = phaseBound
		r.cb, r.cxt = cb, cxt
		snap = r.snapshotLocked()
		r.mu.Unlock()
		return snap, false, nil
	default:
		r.mu.Unlock()
		r.rejected(true)
		return Snapshot{}, false, errorf(HasData, "callback already registered")
	}
}

// Complete stores data as the terminal value of r. If a callback is bound it
// is invoked, after the lock is released, on the calling goroutine. data is
// copied.
func (r *Response) Complete(data []byte) error {
	return r.finish(StateComplete, append([]byte(nil), data...), "")
}

// Miss marks r as resolved with no data.
func (r *Response) Miss() error {
	return r.finish(StateNoData, nil, "")
}

// Fail marks r as failed; err's text is delivered in Snapshot.Err.
func (r *Response) Fail(err error) error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return r.finish(StateError, nil, msg)
}

func (r *Response) finish(state DataState, data []byte, msg string) error {
	r.mu.Lock()
	if r.dead {
		r.mu.Unlock()
		return errResponseReleased
	}
	if r.phase == phaseReady {
		r.mu.Unlock()
		r.rejected(false)
		return errorf(HasData, "response already complete")
	}
	cb, cxt := r.cb, r.cxt
	r.cb, r.cxt = nil, nil
	bound := r.phase == phaseBound
	r.phase = phaseReady
	r.state, r.data, r.err = state, data, msg
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if bound && cb != nil {
		cb(snap, cxt)
	}
	return nil
}

var errResponseReleased = &Error{Code: InvalidArgument, Msg: "response released"}

func (r *Response) rejected(bind bool) {
	if r.store == nil {
		return
	}
	if bind {
		r.store.hooks.BindRejected(r.header)
	} else {
		r.store.hooks.CompleteRejected(r.header)
	}
}
