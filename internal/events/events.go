// Package events defines the closed set of platform events the bot reacts to.
//
// The platform adapter translates raw updates into these variants and the
// dispatcher handles them with an exhaustive type switch.
package events

// Event is one of Join, Leave, BotAdded, Message, PrivateMessage, Callback
// or AdminCommand.
type Event interface {
	// GroupKey returns the chat the event belongs to, used for logging.
	GroupKey() int64

	event()
}

// User is the author or subject of an event.
type User struct {
	ID    int64
	Name  string
	IsBot bool
}

// Source tells which platform update produced a join or leave.
type Source int

const (
	// SourceMemberUpdate is a member status change update.
	SourceMemberUpdate Source = iota
	// SourceServiceMessage is a new or left chat members service message.
	SourceServiceMessage
)

// Join is a user entering a group. Inviter is set when someone else added them.
type Join struct {
	GroupID int64
	User    User
	Inviter *User
	Source  Source
}

// Leave is a user leaving or being removed from a group.
type Leave struct {
	GroupID int64
	User    User
	Source  Source
}

// BotAdded is the bot itself being added to a group.
type BotAdded struct {
	GroupID int64
	By      User
}

// Message is a text or media message posted in a group.
type Message struct {
	GroupID   int64
	MessageID int64
	From      User
	Text      string
}

// PrivateMessage is a message sent to the bot in a private chat.
type PrivateMessage struct {
	ChatID    int64
	MessageID int64
	From      User
	Text      string
}

// Callback is an inline button press.
type Callback struct {
	ID        string
	From      User
	ChatID    int64
	MessageID int64
	Data      string
}

// CommandName identifies a bot command.
type CommandName string

const (
	CommandSetRequired CommandName = "set_required_users"
	CommandGrandfather CommandName = "grandfather_existing"
	CommandStatus      CommandName = "status"
	CommandHelp        CommandName = "help"
)

// AdminOnly reports whether the command is restricted to group administrators.
func (c CommandName) AdminOnly() bool {
	switch c {
	case CommandSetRequired, CommandGrandfather, CommandStatus:
		return true
	default:
		return false
	}
}

// AdminCommand is a bot command issued in a group.
type AdminCommand struct {
	GroupID   int64
	MessageID int64
	From      User
	Command   CommandName
	Args      []string
}

func (e Join) GroupKey() int64           { return e.GroupID }
func (e Leave) GroupKey() int64          { return e.GroupID }
func (e BotAdded) GroupKey() int64       { return e.GroupID }
func (e Message) GroupKey() int64        { return e.GroupID }
func (e PrivateMessage) GroupKey() int64 { return e.ChatID }
func (e Callback) GroupKey() int64       { return e.ChatID }
func (e AdminCommand) GroupKey() int64   { return e.GroupID }

func (Join) event()           {}
func (Leave) event()          {}
func (BotAdded) event()       {}
func (Message) event()        {}
func (PrivateMessage) event() {}
func (Callback) event()       {}
func (AdminCommand) event()   {}
