package now

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNow_FixedTimeInContext_ReturnsIt(t *testing.T) {
	fixed := time.Unix(12, 11).UTC()
	ctx := context.WithValue(context.Background(), ContextKey, fixed)
	require.Equal(t, fixed, Now(ctx))
	require.NotEqual(t, fixed, Now(context.Background()))
}

func TestNow_Provider_CalledEveryTime(t *testing.T) {
	var calls int64
	ctx := context.WithValue(context.Background(), ContextKey, NowProvider(func() time.Time {
		calls++
		return time.Unix(calls, 0).UTC()
	}))
	assert.Equal(t, int64(1), Now(ctx).Unix())
	assert.Equal(t, int64(2), Now(ctx).Unix())
}

func TestTimeTravelingContext_AdvanceAndSet(t *testing.T) {
	start := time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC)
	ctx := TimeTravelingContext(start)
	assert.Equal(t, start, Now(ctx))

	ctx.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), Now(ctx))

	ctx.SetTime(start)
	assert.Equal(t, start, Now(ctx))
}

func TestNow_UnknownValueType_Panics(t *testing.T) {
	ctx := context.WithValue(context.Background(), ContextKey, "noon")
	assert.Panics(t, func() { Now(ctx) })
}
