package bot

import (
	"context"
	"strconv"

	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/locale"
	"go.uber.org/zap"
)

// statusTimeLayout formats the last settings update in /status.
const statusTimeLayout = "2006-01-02 15:04"

// handleCommand runs a bot command sent in a group.
func (b *Bot) handleCommand(ctx context.Context, ev events.AdminCommand) {
	if ev.Command.AdminOnly() {
		admin, err := b.platform.IsAdmin(ctx, ev.GroupID, ev.From.ID)
		if err != nil {
			b.logger.Error("Failed to check admin status",
				zap.Error(err),
				zap.Int64("groupID", ev.GroupID),
				zap.Int64("userID", ev.From.ID),
				zap.String("operation", string(ev.Command)))
			b.reply(ctx, ev.GroupID, ev.MessageID, b.texts.Text(errorKey(err)))
			return
		}
		if !admin {
			b.reply(ctx, ev.GroupID, ev.MessageID, b.texts.Text(locale.KeyAdminOnly))
			return
		}
	}

	var text string
	switch ev.Command {
	case events.CommandSetRequired:
		text = b.setRequired(ctx, ev)
	case events.CommandGrandfather:
		text = b.grandfather(ctx, ev)
	case events.CommandStatus:
		text = b.groupStatus(ctx, ev)
	case events.CommandHelp:
		text = b.texts.Text(locale.KeyHelp)
	default:
		return
	}

	if text != "" {
		b.reply(ctx, ev.GroupID, ev.MessageID, text)
	}
}

func (b *Bot) setRequired(ctx context.Context, ev events.AdminCommand) string {
	if len(ev.Args) == 0 {
		return b.texts.Text(locale.KeySetRequiredUsage)
	}

	required, err := strconv.Atoi(ev.Args[0])
	if err != nil {
		return b.texts.Text(locale.KeyInvalidRange)
	}

	settings, err := b.gate.SetRequired(ctx, ev.GroupID, ev.From.ID, required)
	if err != nil {
		return b.commandFailed(ev, err)
	}

	return b.texts.Text(locale.KeyRequiredUpdated, settings.RequiredInvites)
}

func (b *Bot) grandfather(ctx context.Context, ev events.AdminCommand) string {
	count, err := b.gate.Grandfather(ctx, ev.GroupID, ev.From.ID)
	if err != nil {
		return b.commandFailed(ev, err)
	}

	return b.texts.Text(locale.KeyGrandfathered, count)
}

func (b *Bot) groupStatus(ctx context.Context, ev events.AdminCommand) string {
	status, err := b.gate.GroupStatus(ctx, ev.GroupID)
	if err != nil {
		return b.commandFailed(ev, err)
	}

	return b.texts.Text(locale.KeyGroupStatus,
		status.Required, status.Restricted, status.UpdatedAt.Format(statusTimeLayout))
}

// commandFailed logs a failed command and returns the text for the admin.
// Nothing is sent once the handler context is gone.
func (b *Bot) commandFailed(ev events.AdminCommand, err error) string {
	if isCancelled(err) {
		return ""
	}

	b.logger.Error("Admin command failed",
		zap.Error(err),
		zap.Int64("groupID", ev.GroupID),
		zap.Int64("userID", ev.From.ID),
		zap.String("operation", string(ev.Command)))

	return b.texts.Text(errorKey(err))
}
