package bot

import (
	"context"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/gate"
	"github.com/robalyx/invitegate/internal/locale"
	"go.uber.org/zap"
)

func person(u events.User) gate.Person {
	return gate.Person{ID: u.ID, Name: u.Name}
}

func (b *Bot) handleJoin(ctx context.Context, ev events.Join) {
	if ev.User.IsBot {
		return
	}

	req := gate.JoinRequest{GroupID: ev.GroupID, User: person(ev.User)}
	if ev.Inviter != nil && !ev.Inviter.IsBot {
		inviter := person(*ev.Inviter)
		req.Inviter = &inviter
	}

	if _, err := b.gate.Join(ctx, req); err != nil {
		if isCancelled(err) {
			return
		}

		b.logger.Error("Failed to handle join",
			zap.Error(err),
			zap.Int64("groupID", ev.GroupID),
			zap.Int64("userID", ev.User.ID),
			zap.Int("source", int(ev.Source)),
			zap.String("operation", "join"))

		// Admins need to know when the bot cannot restrict anyone
		if apperr.KindOf(err) == apperr.KindPermission {
			b.notify(ctx, ev.GroupID, b.texts.Text(locale.KeyPermissionError))
		}
	}
}

func (b *Bot) handleLeave(ctx context.Context, ev events.Leave) {
	if err := b.gate.Leave(ctx, ev.GroupID, ev.User.ID); err != nil && !isCancelled(err) {
		b.logger.Error("Failed to handle leave",
			zap.Error(err),
			zap.Int64("groupID", ev.GroupID),
			zap.Int64("userID", ev.User.ID),
			zap.String("operation", "leave"))
	}
}

func (b *Bot) handleBotAdded(ctx context.Context, ev events.BotAdded) {
	settings, err := b.gate.InitGroup(ctx, ev.GroupID)
	if err != nil {
		if !isCancelled(err) {
			b.logger.Error("Failed to initialize group",
				zap.Error(err),
				zap.Int64("groupID", ev.GroupID),
				zap.Int64("userID", ev.By.ID),
				zap.String("operation", "init_group"))
		}
		return
	}

	b.notify(ctx, ev.GroupID, b.texts.Text(locale.KeyBotAdded, settings.RequiredInvites))
}

// notify posts a standalone message in a chat.
func (b *Bot) notify(ctx context.Context, chatID int64, text string) {
	_, err := b.platform.SendMessage(ctx, gate.OutgoingMessage{ChatID: chatID, Text: text})
	if err != nil {
		b.logger.Warn("Failed to send notice",
			zap.Error(err),
			zap.Int64("groupID", chatID),
			zap.String("operation", "notify"))
	}
}
