// Package ctxutil has helpers for context deadlines.
package ctxutil

import (
	"context"
	"time"

	"github.com/lwz9103/conbench/go/skerr"
	"github.com/lwz9103/conbench/go/sklog"
)

// ConfirmContextHasDeadline logs an error with the call stack if ctx has no
// deadline. SQL calls are expected to always carry one.
func ConfirmContextHasDeadline(ctx context.Context) {
	if _, ok := ctx.Deadline(); ok {
		return
	}
	var stack []string
	for _, st := range skerr.CallStack(10, 1) {
		stack = append(stack, st.String())
	}
	sklog.Errorf("ctx is missing deadline at %s", stack)
}

// WithContextTimeout calls f with a derived context bounded by timeout.
func WithContextTimeout(ctx context.Context, timeout time.Duration, f func(ctx context.Context)) {
	timeoutContext, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	f(timeoutContext)
}
