package cachers

// Thread is the calling context of boundary operations and holds the most
// recent failure for that caller. A host keeps one Thread per OS thread (or
// per goroutine) that calls in; a Thread must not be shared between callers
// running concurrently, which is what keeps one caller's diagnostics from
// leaking into another's.
type Thread struct {
	last *Error
}

func NewThread() *Thread { return &Thread{} }

func (t *Thread) report(err *Error) { t.last = err }

func (t *Thread) clear() { t.last = nil }

// LastError returns the message of the last failed operation on this Thread.
// It reports false if the last operation succeeded. Reading does not clear it.
func (t *Thread) LastError() (string, bool) {
	if t.last == nil {
		return "", false
	}
	return t.last.Msg, true
}

// LastCode returns the code of the last failed operation, or Ok.
func (t *Thread) LastCode() Code {
	if t.last == nil {
		return Ok
	}
	return t.last.Code
}

// call runs f as one boundary operation: success clears the slot, failure
// replaces it.
func (t *Thread) call(f func() error) Code {
	err := f()
	if err == nil {
		t.clear()
		return Ok
	}
	e, ok := err.(*Error)
	if !ok {
		e = &Error{Code: CodeOf(err), Msg: err.Error()}
	}
	t.report(e)
	return e.Code
}
