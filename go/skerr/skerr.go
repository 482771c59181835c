// Package skerr provides errors that carry the call site where they were
// created or wrapped. Wrapped errors keep working with errors.Is and
// errors.As.
package skerr

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// StackTrace is a single frame of call-site context.
type StackTrace struct {
	File string
	Line int
}

func (st StackTrace) String() string {
	return fmt.Sprintf("%s:%d", st.File, st.Line)
}

// ErrorWithContext is an error annotated with the call sites it passed
// through.
type ErrorWithContext struct {
	wrapped error
	msg     string
	// CallStack is ordered innermost first.
	CallStack []StackTrace
}

// Error implements the error interface.
func (e *ErrorWithContext) Error() string {
	var sb strings.Builder
	sb.WriteString(e.msg)
	sb.WriteString(". At")
	for _, st := range e.CallStack {
		sb.WriteString(" ")
		sb.WriteString(st.String())
	}
	return sb.String()
}

// Unwrap returns the wrapped error.
func (e *ErrorWithContext) Unwrap() error {
	return e.wrapped
}

// CallStack returns up to height frames, starting skip frames above the
// caller.
func CallStack(height, skip int) []StackTrace {
	var ret []StackTrace
	for i := skip + 1; i < skip+1+height; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		ret = append(ret, StackTrace{File: filepath.Base(file), Line: line})
	}
	return ret
}

// Fmt is like fmt.Errorf, but records the call site.
func Fmt(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	return &ErrorWithContext{
		wrapped:   errors.Unwrap(err),
		msg:       err.Error(),
		CallStack: CallStack(5, 1),
	}
}

// Wrap adds the call site to err. Returns nil if err is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if prev, ok := err.(*ErrorWithContext); ok {
		msg = prev.msg
	}
	return &ErrorWithContext{
		wrapped:   err,
		msg:       msg,
		CallStack: CallStack(5, 1),
	}
}

// Wrapf adds a message and the call site to err. Returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if prev, ok := err.(*ErrorWithContext); ok {
		msg = prev.msg
	}
	return &ErrorWithContext{
		wrapped:   err,
		msg:       fmt.Sprintf(format, args...) + ": " + msg,
		CallStack: CallStack(5, 1),
	}
}

// Unwrap returns the innermost error that isn't an *ErrorWithContext.
func Unwrap(err error) error {
	for {
		e, ok := err.(*ErrorWithContext)
		if !ok || e.wrapped == nil {
			return err
		}
		err = e.wrapped
	}
}
