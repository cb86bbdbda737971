package telegram

import (
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robalyx/invitegate/internal/events"
)

// Chat member statuses reported by the Bot API.
const (
	statusCreator       = "creator"
	statusAdministrator = "administrator"
	statusMember        = "member"
	statusRestricted    = "restricted"
)

// Translate turns a raw update into the events it carries. Updates the bot
// does not react to produce no events.
func Translate(update tgbotapi.Update, botID int64) []events.Event {
	switch {
	case update.CallbackQuery != nil:
		return translateCallback(update.CallbackQuery)
	case update.MyChatMember != nil:
		return translateMyChatMember(update.MyChatMember, botID)
	case update.ChatMember != nil:
		return translateChatMember(update.ChatMember, botID)
	case update.Message != nil:
		return translateMessage(update.Message, botID)
	default:
		return nil
	}
}

func translateCallback(query *tgbotapi.CallbackQuery) []events.Event {
	if query.From == nil {
		return nil
	}

	ev := events.Callback{
		ID:   query.ID,
		From: toUser(query.From),
		Data: query.Data,
	}
	if query.Message != nil && query.Message.Chat != nil {
		ev.ChatID = query.Message.Chat.ID
		ev.MessageID = int64(query.Message.MessageID)
	}

	return []events.Event{ev}
}

func translateMyChatMember(update *tgbotapi.ChatMemberUpdated, botID int64) []events.Event {
	if update.NewChatMember.User == nil || update.NewChatMember.User.ID != botID {
		return nil
	}

	if isPresent(update.OldChatMember) || !isPresent(update.NewChatMember) {
		return nil
	}

	return []events.Event{events.BotAdded{
		GroupID: update.Chat.ID,
		By:      toUser(&update.From),
	}}
}

func translateChatMember(update *tgbotapi.ChatMemberUpdated, botID int64) []events.Event {
	subject := update.NewChatMember.User
	if subject == nil || subject.IsBot {
		return nil
	}

	// The bot's own membership arrives through my_chat_member
	if subject.ID == botID {
		return nil
	}

	wasPresent := isPresent(update.OldChatMember)
	nowPresent := isPresent(update.NewChatMember)

	switch {
	case !wasPresent && nowPresent:
		ev := events.Join{
			GroupID: update.Chat.ID,
			User:    toUser(subject),
			Source:  events.SourceMemberUpdate,
		}

		// Joins through an invite link are performed by the joiner themselves
		if update.From.ID != 0 && update.From.ID != subject.ID && update.InviteLink == nil {
			inviter := toUser(&update.From)
			ev.Inviter = &inviter
		}

		return []events.Event{ev}
	case wasPresent && !nowPresent:
		return []events.Event{events.Leave{
			GroupID: update.Chat.ID,
			User:    toUser(subject),
			Source:  events.SourceMemberUpdate,
		}}
	default:
		return nil
	}
}

func translateMessage(msg *tgbotapi.Message, botID int64) []events.Event {
	if msg.Chat == nil || msg.From == nil {
		return nil
	}

	from := toUser(msg.From)

	if msg.Chat.IsPrivate() {
		return []events.Event{events.PrivateMessage{
			ChatID:    msg.Chat.ID,
			MessageID: int64(msg.MessageID),
			From:      from,
			Text:      msg.Text,
		}}
	}

	if !msg.Chat.IsGroup() && !msg.Chat.IsSuperGroup() {
		return nil
	}

	if len(msg.NewChatMembers) > 0 {
		return translateNewMembers(msg, from, botID)
	}

	if msg.LeftChatMember != nil {
		if msg.LeftChatMember.IsBot {
			return nil
		}
		return []events.Event{events.Leave{
			GroupID: msg.Chat.ID,
			User:    toUser(msg.LeftChatMember),
			Source:  events.SourceServiceMessage,
		}}
	}

	if msg.IsCommand() {
		if name, ok := parseCommand(msg.Command()); ok {
			return []events.Event{events.AdminCommand{
				GroupID:   msg.Chat.ID,
				MessageID: int64(msg.MessageID),
				From:      from,
				Command:   name,
				Args:      strings.Fields(msg.CommandArguments()),
			}}
		}
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	return []events.Event{events.Message{
		GroupID:   msg.Chat.ID,
		MessageID: int64(msg.MessageID),
		From:      from,
		Text:      text,
	}}
}

// translateNewMembers handles the new chat members service message, a
// fallback join source for groups where member updates are not delivered.
func translateNewMembers(msg *tgbotapi.Message, from events.User, botID int64) []events.Event {
	result := make([]events.Event, 0, len(msg.NewChatMembers))

	for i := range msg.NewChatMembers {
		member := &msg.NewChatMembers[i]

		if member.ID == botID {
			result = append(result, events.BotAdded{GroupID: msg.Chat.ID, By: from})
			continue
		}
		if member.IsBot {
			continue
		}

		ev := events.Join{
			GroupID: msg.Chat.ID,
			User:    toUser(member),
			Source:  events.SourceServiceMessage,
		}
		if from.ID != member.ID {
			inviter := from
			ev.Inviter = &inviter
		}

		result = append(result, ev)
	}

	return result
}

// parseCommand recognizes the commands the bot serves.
func parseCommand(command string) (events.CommandName, bool) {
	switch name := events.CommandName(strings.ToLower(command)); name {
	case events.CommandSetRequired, events.CommandGrandfather, events.CommandStatus, events.CommandHelp:
		return name, true
	default:
		return "", false
	}
}

// isPresent reports whether a member status means the user is in the chat.
func isPresent(member tgbotapi.ChatMember) bool {
	switch member.Status {
	case statusCreator, statusAdministrator, statusMember:
		return true
	case statusRestricted:
		return member.IsMember
	default:
		return false
	}
}

func toUser(u *tgbotapi.User) events.User {
	return events.User{
		ID:    u.ID,
		Name:  DisplayName(u),
		IsBot: u.IsBot,
	}
}

// DisplayName returns the name used to address a user in messages.
func DisplayName(u *tgbotapi.User) string {
	switch {
	case u.UserName != "":
		return "@" + u.UserName
	case u.FirstName != "":
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	default:
		return "User " + strconv.FormatInt(u.ID, 10)
	}
}
