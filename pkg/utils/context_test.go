package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/robalyx/invitegate/pkg/utils"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestSleep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		duration    time.Duration
		cancelAfter time.Duration
		want        bool
	}{
		{
			name:     "sleep completes normally",
			duration: 10 * time.Millisecond,
			want:     true,
		},
		{
			name:        "context cancelled before sleep completes",
			duration:    time.Second,
			cancelAfter: 10 * time.Millisecond,
		},
		{
			name: "zero duration sleep",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			if tt.cancelAfter > 0 {
				go func() {
					time.Sleep(tt.cancelAfter)
					cancel()
				}()
			}

			assert.Equal(t, tt.want, utils.Sleep(ctx, tt.duration))
		})
	}
}

func TestWorkerSleeps(t *testing.T) {
	t.Parallel()

	logger := zaptest.NewLogger(t)

	assert.True(t, utils.IntervalSleep(t.Context(), time.Millisecond, logger, "test worker"))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	assert.False(t, utils.ErrorSleep(ctx, time.Second, logger, "test worker"))
	assert.False(t, utils.IntervalSleep(ctx, time.Second, nil, "test worker"))
}
