package types

import (
	"time"

	"github.com/robalyx/invitegate/internal/database/types/enum"
)

// ConversationRetention is how long conversation turns are kept.
const ConversationRetention = 7 * 24 * time.Hour

// ConversationTurn is one message of a member's exchange with the assistant.
type ConversationTurn struct {
	ID        int64         `bun:",pk,autoincrement"`
	GroupID   int64         `bun:",notnull"`
	UserID    int64         `bun:",notnull"`
	Role      enum.TurnRole `bun:",notnull"`
	Content   string        `bun:",notnull"`
	IsError   bool          `bun:",notnull"`
	CreatedAt time.Time     `bun:",notnull"`
}
