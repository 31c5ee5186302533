// Package snacerr defines the tool-wide error type and its exit-code
// taxonomy. Every fatal condition is carried as an *Error so the CLI can
// map it to the documented process exit status.
package snacerr

import (
	"errors"
	"fmt"
)

// Code is a machine-distinguishable error kind, doubling as the process
// exit status.
type Code int

const (
	ExOK             Code = 0
	ExError          Code = 1
	ExUsage          Code = 2
	ExBadEnvironment Code = 128
	ExCheckFailure   Code = 129
)

// String returns a short name for the code.
func (c Code) String() string {
	switch c {
	case ExOK:
		return "ok"
	case ExError:
		return "error"
	case ExUsage:
		return "usage error"
	case ExBadEnvironment:
		return "bad environment"
	case ExCheckFailure:
		return "check failure"
	default:
		return fmt.Sprintf("code(%d)", int(c))
	}
}

// Error is the single error type used for fatal conditions.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping err with the given code and message.
func Wrap(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the exit code carried by err. Errors that are not
// *Error default to ExError; nil maps to ExOK.
func CodeOf(err error) Code {
	if err == nil {
		return ExOK
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ExError
}
