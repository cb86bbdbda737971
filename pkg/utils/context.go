package utils

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sleep waits for duration unless ctx ends first. It reports whether the
// full duration elapsed.
func Sleep(ctx context.Context, duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// IntervalSleep waits for the next iteration of a worker loop.
// Returns false when the worker should stop.
func IntervalSleep(ctx context.Context, duration time.Duration, logger *zap.Logger, workerName string) bool {
	return sleepWithLog(ctx, duration, logger, "Context cancelled during pause, stopping "+workerName)
}

// ErrorSleep pauses a worker after a failure.
// Returns false when the worker should stop.
func ErrorSleep(ctx context.Context, duration time.Duration, logger *zap.Logger, workerName string) bool {
	return sleepWithLog(ctx, duration, logger, "Context cancelled during error wait, stopping "+workerName)
}

func sleepWithLog(ctx context.Context, duration time.Duration, logger *zap.Logger, cancelMessage string) bool {
	if Sleep(ctx, duration) {
		return true
	}

	if logger != nil {
		logger.Info(cancelMessage)
	}

	return false
}
