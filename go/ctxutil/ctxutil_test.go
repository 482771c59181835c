package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lwz9103/conbench/go/sklog/sklogimpl"
	"github.com/lwz9103/conbench/go/sklog/sklogtest"
)

func TestConfirmContextHasDeadline_NoDeadline_LogsError(t *testing.T) {
	rec := sklogtest.Capture(t)
	ConfirmContextHasDeadline(context.Background())
	assert.True(t, rec.Contains(sklogimpl.Error, "ctx is missing deadline"))
}

func TestConfirmContextHasDeadline_WithDeadline_Silent(t *testing.T) {
	rec := sklogtest.Capture(t)
	WithContextTimeout(context.Background(), time.Minute, func(ctx context.Context) {
		ConfirmContextHasDeadline(ctx)
	})
	assert.Empty(t, rec.Lines(sklogimpl.Debug))
}
