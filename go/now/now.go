// Package now returns the current time, overridable through a context so
// tests can pin it.
package now

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type contextKeyType string

// ContextKey holds either a time.Time or a NowProvider:
//
//	ctx = context.WithValue(ctx, now.ContextKey, time.Unix(12, 0).UTC())
const ContextKey contextKeyType = "overwriteNow"

// NowProvider is evaluated on every call to Now. It must be safe for
// concurrent use if the context is shared across goroutines.
type NowProvider func() time.Time

// Now returns the time stored in ctx, or time.Now().
func Now(ctx context.Context) time.Time {
	switch v := ctx.Value(ContextKey).(type) {
	case nil:
		return time.Now()
	case NowProvider:
		return v()
	case time.Time:
		return v
	default:
		panic(fmt.Sprintf("Unknown value for ContextKey: %v", v))
	}
}

// TimeTravelCtx is a context whose apparent time can be moved by tests.
type TimeTravelCtx struct {
	context.Context

	mutex sync.RWMutex
	ts    time.Time
}

// TimeTravelingContext returns a *TimeTravelCtx rooted at the background
// context and starting at start.
func TimeTravelingContext(start time.Time) *TimeTravelCtx {
	t := &TimeTravelCtx{ts: start}
	t.Context = context.WithValue(context.Background(), ContextKey, NowProvider(t.now))
	return t
}

func (t *TimeTravelCtx) now() time.Time {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.ts
}

// SetTime changes the time returned by Now for this context.
func (t *TimeTravelCtx) SetTime(newTime time.Time) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.ts = newTime
}

// Advance moves the apparent time forward by d.
func (t *TimeTravelCtx) Advance(d time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.ts = t.ts.Add(d)
}
