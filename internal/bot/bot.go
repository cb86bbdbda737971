// Package bot routes platform events to the access gate, the admin commands
// and the assistant.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/invitegate/internal/ai"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/gate"
	"github.com/robalyx/invitegate/internal/locale"
	"github.com/robalyx/invitegate/pkg/utils"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Platform is the chat platform as seen by the handlers.
type Platform interface {
	gate.Platform
	Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
	IsAdmin(ctx context.Context, chatID, userID int64) (bool, error)
}

// Gatekeeper runs the invite gate of the groups.
type Gatekeeper interface {
	InitGroup(ctx context.Context, groupID int64) (*types.GroupSetting, error)
	Join(ctx context.Context, req gate.JoinRequest) (*types.GroupMember, error)
	Leave(ctx context.Context, groupID, userID int64) error
	HandleMessage(ctx context.Context, groupID int64, author gate.Person, messageID int64) (bool, error)
	CheckStatus(ctx context.Context, groupID, userID int64) (*gate.Status, error)
	Grandfather(ctx context.Context, groupID, adminID int64) (int, error)
	SetRequired(ctx context.Context, groupID, adminID int64, required int) (*types.GroupSetting, error)
	GroupStatus(ctx context.Context, groupID int64) (*gate.GroupStatus, error)
}

// Assistant answers members who passed the gate.
type Assistant interface {
	Respond(ctx context.Context, req ai.Request) (*ai.Reply, error)
}

// Limiter caps assistant replies per member.
type Limiter interface {
	Allow(ctx context.Context, groupID, userID int64) (bool, error)
}

// Bot dispatches events to their handlers.
type Bot struct {
	gate        Gatekeeper
	platform    Platform
	assistant   Assistant
	limiter     Limiter
	texts       *locale.Localizer
	replyPolicy utils.RetryPolicy
	maxHandlers int
	logger      *zap.Logger
}

// New creates a Bot. The assistant may be nil to disable replies.
func New(
	gatekeeper Gatekeeper,
	platform Platform,
	assistant Assistant,
	limiter Limiter,
	texts *locale.Localizer,
	replyPolicy utils.RetryPolicy,
	maxHandlers int,
	logger *zap.Logger,
) *Bot {
	logger = logger.Named("bot")

	replyPolicy.OnRetry = func(attempt uint64, err error, wait time.Duration) {
		logger.Warn("Failed to send reply, retrying",
			zap.Error(err),
			zap.Uint64("attempt", attempt),
			zap.Duration("wait", wait))
	}

	return &Bot{
		gate:        gatekeeper,
		platform:    platform,
		assistant:   assistant,
		limiter:     limiter,
		texts:       texts,
		replyPolicy: replyPolicy,
		maxHandlers: max(maxHandlers, 1),
		logger:      logger,
	}
}

// Run handles events from source until it is closed or ctx is cancelled.
// Each event runs in its own goroutine, bounded by the handler limit.
// In-flight handlers are awaited before returning.
func (b *Bot) Run(ctx context.Context, source <-chan events.Event) {
	p := pool.New().WithMaxGoroutines(b.maxHandlers)
	defer p.Wait()

	b.logger.Info("Bot started", zap.Int("maxHandlers", b.maxHandlers))

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Bot stopping, waiting for in-flight handlers")
			return
		case ev, ok := <-source:
			if !ok {
				return
			}

			p.Go(func() {
				b.Dispatch(ctx, ev)
			})
		}
	}
}

// Dispatch handles a single event. Failures are logged and reported to the
// user by the handlers; panics are recovered so one bad update cannot stop
// the bot.
func (b *Bot) Dispatch(ctx context.Context, ev events.Event) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic in event handler",
				zap.Any("panic", r),
				zap.Int64("groupID", ev.GroupKey()),
				zap.String("event", fmt.Sprintf("%T", ev)))
		}
		b.logger.Debug("Event handled",
			zap.String("event", fmt.Sprintf("%T", ev)),
			zap.Duration("duration", time.Since(start)))
	}()

	switch ev := ev.(type) {
	case events.Join:
		b.handleJoin(ctx, ev)
	case events.Leave:
		b.handleLeave(ctx, ev)
	case events.BotAdded:
		b.handleBotAdded(ctx, ev)
	case events.Message:
		b.handleMessage(ctx, ev)
	case events.PrivateMessage:
		b.handlePrivateMessage(ctx, ev)
	case events.Callback:
		b.handleCallback(ctx, ev)
	case events.AdminCommand:
		b.handleCommand(ctx, ev)
	default:
		b.logger.Warn("Unhandled event type", zap.String("event", fmt.Sprintf("%T", ev)))
	}
}

// reply answers a message, retrying transient platform failures.
func (b *Bot) reply(ctx context.Context, chatID, replyTo int64, text string) {
	_, err := utils.Retry(ctx, b.replyPolicy, isTransient, func(ctx context.Context) (int64, error) {
		return b.platform.Reply(ctx, chatID, replyTo, text)
	})
	if err != nil {
		b.logger.Error("Failed to send reply",
			zap.Error(err),
			zap.Int64("groupID", chatID),
			zap.Int64("replyTo", replyTo),
			zap.String("operation", "reply"))
	}
}
