package types

import (
	"time"

	"github.com/robalyx/invitegate/internal/database/types/enum"
)

const (
	// MinRequiredInvites is the lowest invite threshold a group may configure.
	MinRequiredInvites = 1
	// MaxRequiredInvites is the highest invite threshold a group may configure.
	MaxRequiredInvites = 20
	// DefaultRequiredInvites is used for groups that never configured a threshold.
	DefaultRequiredInvites = 5
)

// GroupSetting stores the invite gate configuration of a group.
type GroupSetting struct {
	GroupID         int64     `bun:",pk"`
	RequiredInvites int       `bun:",notnull"`
	BotAddedAt      time.Time `bun:",nullzero"`
	CreatedAt       time.Time `bun:",notnull"`
	UpdatedAt       time.Time `bun:",notnull"`
}

// GroupMember tracks a single member of a gated group.
type GroupMember struct {
	GroupID          int64          `bun:",pk"`
	UserID           int64          `bun:",pk"`
	DisplayName      string         `bun:",notnull"`
	InviterID        *int64         `bun:",nullzero"`
	InviteCount      int            `bun:",notnull"`
	IsRestricted     bool           `bun:",notnull"`
	JoinedVia        enum.JoinedVia `bun:",notnull"`
	WelcomeMessageID *int64         `bun:",nullzero"`
	WelcomeChatID    *int64         `bun:",nullzero"`
	HasLeft          bool           `bun:",notnull"`
	CreatedAt        time.Time      `bun:",notnull"`
	UpdatedAt        time.Time      `bun:",notnull"`
}

// Remaining returns how many more invites the member needs under the given threshold.
func (m *GroupMember) Remaining(required int) int {
	return max(required-m.InviteCount, 0)
}

// MeetsThreshold reports whether the member may be unrestricted.
func (m *GroupMember) MeetsThreshold(required int) bool {
	return m.InviteCount >= required || m.JoinedVia == enum.JoinedViaGrandfathered
}

// WelcomeSent reports whether a welcome was already delivered or is being delivered.
func (m *GroupMember) WelcomeSent() bool {
	return m.WelcomeMessageID != nil
}
