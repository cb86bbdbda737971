package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/robalyx/invitegate/internal/ai"
	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/locale"
	"go.uber.org/zap"
)

// handleMessage gates a group message and lets the assistant answer
// members who may post.
func (b *Bot) handleMessage(ctx context.Context, ev events.Message) {
	if ev.From.IsBot {
		return
	}

	admin, err := b.platform.IsAdmin(ctx, ev.GroupID, ev.From.ID)
	if err != nil {
		b.logger.Warn("Failed to check admin status",
			zap.Error(err),
			zap.Int64("groupID", ev.GroupID),
			zap.Int64("userID", ev.From.ID))
	}
	if admin {
		return
	}

	allowed, err := b.gate.HandleMessage(ctx, ev.GroupID, person(ev.From), ev.MessageID)
	if err != nil {
		if !isCancelled(err) {
			b.logger.Error("Failed to gate message",
				zap.Error(err),
				zap.Int64("groupID", ev.GroupID),
				zap.Int64("userID", ev.From.ID),
				zap.String("operation", "handle_message"))
		}
		return
	}
	if !allowed {
		return
	}

	b.answer(ctx, ev)
}

// answer runs the assistant on a message from a member who may post.
func (b *Bot) answer(ctx context.Context, ev events.Message) {
	if b.assistant == nil || strings.TrimSpace(ev.Text) == "" {
		return
	}

	ok, err := b.limiter.Allow(ctx, ev.GroupID, ev.From.ID)
	if err != nil {
		// The quota is best effort
		b.logger.Warn("Failed to check reply quota",
			zap.Error(err),
			zap.Int64("groupID", ev.GroupID),
			zap.Int64("userID", ev.From.ID))
		ok = true
	}
	if !ok {
		b.reply(ctx, ev.GroupID, ev.MessageID, b.texts.Text(locale.KeyReplyQuota, ev.From.Name))
		return
	}

	resp, err := b.assistant.Respond(ctx, ai.Request{
		GroupID: ev.GroupID,
		UserID:  ev.From.ID,
		Name:    ev.From.Name,
		Text:    ev.Text,
	})
	if err != nil {
		if isCancelled(err) || errors.Is(err, apperr.ErrValidation) {
			return
		}

		b.logger.Error("Failed to answer message",
			zap.Error(err),
			zap.Int64("groupID", ev.GroupID),
			zap.Int64("userID", ev.From.ID),
			zap.String("operation", "respond"))
		b.reply(ctx, ev.GroupID, ev.MessageID, b.texts.Text(errorKey(err)))
		return
	}

	b.reply(ctx, ev.GroupID, ev.MessageID, resp.Text)
}

// handlePrivateMessage answers anything sent to the bot directly with help.
func (b *Bot) handlePrivateMessage(ctx context.Context, ev events.PrivateMessage) {
	if ev.From.IsBot {
		return
	}

	b.reply(ctx, ev.ChatID, ev.MessageID, b.texts.Text(locale.KeyHelp))
}
