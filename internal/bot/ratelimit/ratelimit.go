// Package ratelimit caps how many assistant replies a member gets per window.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const keyPrefix = "invitegate:replies"

// Limiter counts replies per member in fixed windows stored in Redis, so
// the quota holds across restarts and multiple bot processes.
type Limiter struct {
	client rueidis.Client
	limit  int64
	window time.Duration
	logger *zap.Logger
}

// New creates a Limiter allowing limit replies per member in each window.
func New(client rueidis.Client, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: logger.Named("reply_limiter"),
	}
}

// Allow consumes one reply from the member's quota and reports whether the
// reply may be sent.
func (l *Limiter) Allow(ctx context.Context, groupID, userID int64) (bool, error) {
	key := fmt.Sprintf("%s:%d:%d", keyPrefix, groupID, userID)

	count, err := l.client.Do(ctx, l.client.B().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to increment reply counter: %w", err)
	}

	// The first reply of a window starts its expiry
	if count == 1 {
		err := l.client.Do(ctx, l.client.B().Expire().Key(key).Seconds(int64(l.window.Seconds())).Build()).Error()
		if err != nil {
			return false, fmt.Errorf("failed to set reply window: %w", err)
		}
	}

	if count > l.limit {
		l.logger.Debug("Reply quota exhausted",
			zap.Int64("groupID", groupID),
			zap.Int64("userID", userID),
			zap.Int64("count", count))
		return false, nil
	}

	return true, nil
}

// Unlimited allows every reply. It is used when Redis is not configured or
// the quota is disabled.
type Unlimited struct{}

// Allow always reports true.
func (Unlimited) Allow(context.Context, int64, int64) (bool, error) {
	return true, nil
}
