// Package telegram adapts the Telegram Bot API to the bot's platform contract.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robalyx/invitegate/internal/events"
	"github.com/robalyx/invitegate/internal/gate"
	"github.com/robalyx/invitegate/internal/setup/config"
	"go.uber.org/zap"
)

// allowedUpdates lists the update types the bot subscribes to.
var allowedUpdates = []string{"message", "chat_member", "my_chat_member", "callback_query"}

// restrictedPermissions lets a gated member invite others but not post.
var restrictedPermissions = tgbotapi.ChatPermissions{
	CanInviteUsers: true,
}

// memberPermissions are the rights of a member who passed the gate.
var memberPermissions = tgbotapi.ChatPermissions{
	CanSendMessages:       true,
	CanSendMediaMessages:  true,
	CanSendPolls:          true,
	CanSendOtherMessages:  true,
	CanAddWebPagePreviews: true,
	CanInviteUsers:        true,
}

// Client talks to the Bot API.
type Client struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
	logger      *zap.Logger
}

// NewClient authenticates the bot token and returns a Client.
func NewClient(cfg *config.Telegram, logger *zap.Logger) (*Client, error) {
	httpClient := &http.Client{
		// Long polling holds the request open for the poll timeout
		Timeout: time.Duration(cfg.PollTimeout+15) * time.Second,
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate bot: %w", err)
	}
	api.Debug = cfg.Debug

	logger = logger.Named("telegram")
	logger.Info("Authorized on Telegram",
		zap.String("username", api.Self.UserName),
		zap.Int64("botID", api.Self.ID))

	return &Client{
		api:         api,
		pollTimeout: cfg.PollTimeout,
		logger:      logger,
	}, nil
}

// BotID returns the user id of the bot account.
func (c *Client) BotID() int64 {
	return c.api.Self.ID
}

// Listen long polls for updates and sends the translated events to out until
// ctx is cancelled. The channel is closed on return.
func (c *Client) Listen(ctx context.Context, out chan<- events.Event) {
	defer close(out)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	u.AllowedUpdates = allowedUpdates

	updates := c.api.GetUpdatesChan(u)
	defer c.api.StopReceivingUpdates()

	c.logger.Info("Listening for updates", zap.Strings("allowedUpdates", allowedUpdates))

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			for _, ev := range Translate(update, c.BotID()) {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// RestrictMember revokes the right to post of a member.
func (c *Client) RestrictMember(ctx context.Context, groupID, userID int64) error {
	return c.setPermissions(ctx, "restrict member", groupID, userID, restrictedPermissions)
}

// UnrestrictMember restores the posting rights of a member.
func (c *Client) UnrestrictMember(ctx context.Context, groupID, userID int64) error {
	return c.setPermissions(ctx, "unrestrict member", groupID, userID, memberPermissions)
}

func (c *Client) setPermissions(
	ctx context.Context, op string, groupID, userID int64, permissions tgbotapi.ChatPermissions,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.api.Request(tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: groupID,
			UserID: userID,
		},
		Permissions: &permissions,
	})

	return classify(op, err)
}

// SendMessage sends a text message with an optional inline button and
// returns the id of the sent message.
func (c *Client) SendMessage(ctx context.Context, msg gate.OutgoingMessage) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	req := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	if msg.Button != nil {
		req.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(msg.Button.Text, msg.Button.Data),
			),
		)
	}

	sent, err := c.api.Send(req)
	if err != nil {
		return 0, classify("send message", err)
	}

	return int64(sent.MessageID), nil
}

// Reply answers a message in the same chat.
func (c *Client) Reply(ctx context.Context, chatID, replyTo int64, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	req := tgbotapi.NewMessage(chatID, text)
	req.ReplyToMessageID = int(replyTo)
	req.AllowSendingWithoutReply = true

	sent, err := c.api.Send(req)
	if err != nil {
		return 0, classify("reply", err)
	}

	return int64(sent.MessageID), nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	return classify("delete message", err)
}

// EditMessage replaces the text of a message and drops its buttons.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := c.api.Request(tgbotapi.NewEditMessageText(chatID, int(messageID), text))
	return classify("edit message", err)
}

// AnswerCallback acknowledges a button press, optionally as an alert.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	req := tgbotapi.NewCallback(callbackID, text)
	if alert {
		req = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}

	_, err := c.api.Request(req)
	return classify("answer callback", err)
}

// IsAdmin reports whether the user administers the chat.
func (c *Client) IsAdmin(ctx context.Context, chatID, userID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, classify("get chat member", err)
	}

	return member.IsCreator() || member.IsAdministrator(), nil
}
