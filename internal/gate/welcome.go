package gate

import (
	"context"
	"errors"
	"fmt"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/database/types/enum"
	"github.com/robalyx/invitegate/internal/locale"
	"go.uber.org/zap"
)

// welcomePlan lists the notifications a join produces.
type welcomePlan struct {
	private     bool
	groupNotice bool
}

// planWelcome decides which notifications a join produces. Every restricted
// member gets the private welcome, only self-joins are announced in the group
// since members added by someone else were already shown by the platform.
func planWelcome(member *types.GroupMember) welcomePlan {
	return welcomePlan{
		private:     true,
		groupNotice: member.JoinedVia == enum.JoinedViaSelf,
	}
}

// messageRef points at a message in a chat.
type messageRef struct {
	chatID    int64
	messageID int64
}

// welcomeRef returns the stored welcome message of a member, if one can be deleted.
func welcomeRef(member *types.GroupMember) (messageRef, bool) {
	if member.WelcomeMessageID == nil || *member.WelcomeMessageID == 0 || member.WelcomeChatID == nil {
		return messageRef{}, false
	}

	return messageRef{chatID: *member.WelcomeChatID, messageID: *member.WelcomeMessageID}, true
}

// ensureWelcome delivers the welcome of a member exactly once per join. The
// slot is claimed first and only the claimer sends, so duplicate deliveries
// of a join racing on the same record produce one welcome.
func (g *Gate) ensureWelcome(ctx context.Context, member *types.GroupMember, required int) error {
	if member.WelcomeSent() {
		return nil
	}

	claimed, err := g.store.ClaimWelcome(ctx, member.GroupID, member.UserID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	plan := planWelcome(member)
	current := member.InviteCount
	remaining := member.Remaining(required)
	button := &Button{
		Text: g.texts.Text(locale.KeyCheckButton),
		Data: EncodeCheckCallback(member.UserID, member.GroupID),
	}

	var (
		delivered *messageRef
		sendErr   error
		dmFailed  bool
	)

	if plan.private {
		id, err := g.platform.SendMessage(ctx, OutgoingMessage{
			ChatID: member.UserID,
			Text:   g.texts.Text(locale.KeyWelcomePrivate, required, current, remaining),
			Button: button,
		})
		if err != nil {
			dmFailed = true
			sendErr = err

			if !errors.Is(err, apperr.ErrUnreachable) {
				g.logger.Warn("Failed to send private welcome",
					zap.Error(err),
					zap.Int64("groupID", member.GroupID),
					zap.Int64("userID", member.UserID))
			}
		} else {
			delivered = &messageRef{chatID: member.UserID, messageID: id}
		}
	}

	if plan.groupNotice || dmFailed {
		msg := OutgoingMessage{ChatID: member.GroupID}
		if plan.groupNotice {
			msg.Text = g.texts.Text(locale.KeyWelcomeGroup, member.DisplayName, required, current, remaining)
		} else {
			msg.Text = g.texts.Text(locale.KeyGroupRestriction, member.DisplayName, current, remaining)
		}

		// The button lives in the group when the member cannot be reached privately
		if dmFailed {
			msg.Button = button
		}

		id, err := g.platform.SendMessage(ctx, msg)
		if err != nil {
			sendErr = err
			g.logger.Warn("Failed to send group welcome",
				zap.Error(err),
				zap.Int64("groupID", member.GroupID),
				zap.Int64("userID", member.UserID))
		} else {
			delivered = &messageRef{chatID: member.GroupID, messageID: id}
		}
	}

	if delivered == nil {
		if err := g.store.ReleaseWelcome(ctx, member.GroupID, member.UserID); err != nil {
			g.logger.Error("Failed to release welcome slot",
				zap.Error(err),
				zap.Int64("groupID", member.GroupID),
				zap.Int64("userID", member.UserID))
		}
		return fmt.Errorf("failed to deliver welcome to %d: %w", member.UserID, sendErr)
	}

	if err := g.store.ConfirmWelcome(
		ctx, member.GroupID, member.UserID, delivered.chatID, delivered.messageID,
	); err != nil {
		return err
	}

	member.WelcomeChatID = &delivered.chatID
	member.WelcomeMessageID = &delivered.messageID

	g.logger.Debug("Welcome delivered",
		zap.Int64("groupID", member.GroupID),
		zap.Int64("userID", member.UserID),
		zap.Bool("groupNotice", plan.groupNotice),
		zap.Bool("privateFailed", dmFailed))

	return nil
}

// removeWelcome deletes the stored welcome message of a member and keeps the
// slot claimed so the same join never produces another welcome.
func (g *Gate) removeWelcome(ctx context.Context, member *types.GroupMember) {
	ref, ok := welcomeRef(member)
	if !ok {
		return
	}

	g.deleteMessage(ctx, member, ref)

	if err := g.store.ClearWelcome(ctx, member.GroupID, member.UserID); err != nil {
		g.logger.Warn("Failed to clear welcome",
			zap.Error(err),
			zap.Int64("groupID", member.GroupID),
			zap.Int64("userID", member.UserID))
		return
	}

	claimed := int64(0)
	member.WelcomeMessageID = &claimed
	member.WelcomeChatID = nil
}

func (g *Gate) deleteMessage(ctx context.Context, member *types.GroupMember, ref messageRef) {
	if err := g.platform.DeleteMessage(ctx, ref.chatID, ref.messageID); err != nil {
		g.logger.Warn("Failed to delete message",
			zap.Error(err),
			zap.Int64("groupID", member.GroupID),
			zap.Int64("userID", member.UserID),
			zap.Int64("chatID", ref.chatID),
			zap.Int64("messageID", ref.messageID))
	}
}
