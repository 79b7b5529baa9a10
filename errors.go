package cachers

import (
	"errors"
	"fmt"
)

// Code is the closed set of failure codes returned by boundary operations.
type Code int

const (
	Ok Code = iota
	NotImplemented
	InvalidArgument
	Empty
	HasData
)

func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case NotImplemented:
		return "NotImplemented"
	case InvalidArgument:
		return "InvalidArgument"
	case Empty:
		return "Empty"
	case HasData:
		return "HasData"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Error pairs a Code with diagnostic text.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, cachers.ErrHasData).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrNotImplemented  = &Error{Code: NotImplemented, Msg: "not implemented"}
	ErrInvalidArgument = &Error{Code: InvalidArgument, Msg: "invalid argument"}
	ErrEmpty           = &Error{Code: Empty, Msg: "no data"}
	ErrHasData         = &Error{Code: HasData, Msg: "has data"}
)

func errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf reports the Code carried by err. Errors from outside this package map
// to InvalidArgument.
func CodeOf(err error) Code {
	if err == nil {
		return Ok
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return InvalidArgument
}

type InvalidateError struct {
	Key     string
	BumpErr error
	DelErr  error
}

func (e *InvalidateError) Error() string {
	switch {
	case e.BumpErr != nil && e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: generation bump and delete failed: bump=%v; delete=%v",
			e.Key, e.BumpErr, e.DelErr)
	case e.BumpErr != nil:
		return fmt.Sprintf("invalidate %q: generation bump failed: %v", e.Key, e.BumpErr)
	case e.DelErr != nil:
		return fmt.Sprintf("invalidate %q: delete failed: %v", e.Key, e.DelErr)
	default:
		return fmt.Sprintf("invalidate %q: unknown error", e.Key)
	}
}

func (e *InvalidateError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.BumpErr != nil {
		errs = append(errs, e.BumpErr)
	}
	if e.DelErr != nil {
		errs = append(errs, e.DelErr)
	}
	return errs
}
