package bot

import (
	"context"

	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/gate"
	"github.com/robalyx/invitegate/internal/locale"
	"go.uber.org/zap"
)

// handleCallback answers a press of the status check button.
func (b *Bot) handleCallback(ctx context.Context, ev events.Callback) {
	userID, groupID, err := gate.ParseCheckCallback(ev.Data)
	if err != nil {
		b.logger.Debug("Ignoring unknown callback",
			zap.String("data", ev.Data),
			zap.Int64("userID", ev.From.ID))
		b.answerCallback(ctx, ev, b.texts.Text(locale.KeyGeneralError), false)
		return
	}

	if ev.From.ID != userID {
		b.answerCallback(ctx, ev, b.texts.Text(locale.KeyNotYourButton), true)
		return
	}

	status, err := b.gate.CheckStatus(ctx, groupID, userID)
	if err != nil {
		if isCancelled(err) {
			return
		}

		b.logger.Error("Failed to check member status",
			zap.Error(err),
			zap.Int64("groupID", groupID),
			zap.Int64("userID", userID),
			zap.String("operation", "check_status"))
		b.answerCallback(ctx, ev, b.texts.Text(errorKey(err)), true)
		return
	}

	if status.Restricted {
		b.answerCallback(ctx, ev, b.texts.Text(locale.KeyStillNotEnough, status.Remaining), true)
		return
	}

	b.answerCallback(ctx, ev, b.texts.Text(locale.KeyAccessGranted), false)

	if status.Lifted {
		b.notify(ctx, groupID, b.texts.Text(locale.KeyAccessGrantedGroup, ev.From.Name))
		return
	}

	// An earlier press already lifted the restriction, the button is stale
	if err := b.platform.EditMessage(ctx, ev.ChatID, ev.MessageID, b.texts.Text(locale.KeyAccessGranted)); err != nil {
		b.logger.Debug("Failed to edit stale welcome",
			zap.Error(err),
			zap.Int64("groupID", groupID),
			zap.Int64("userID", userID))
	}
}

func (b *Bot) answerCallback(ctx context.Context, ev events.Callback, text string, alert bool) {
	if err := b.platform.AnswerCallback(ctx, ev.ID, text, alert); err != nil {
		b.logger.Warn("Failed to answer callback",
			zap.Error(err),
			zap.Int64("userID", ev.From.ID),
			zap.String("operation", "answer_callback"))
	}
}
