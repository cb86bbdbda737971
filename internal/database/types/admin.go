package types

import "time"

// Admin command names recorded in the audit log.
const (
	CommandSetRequiredUsers    = "set_required_users"
	CommandGrandfatherExisting = "grandfather_existing"
)

// AdminCommandLog is an append-only audit record of an administrator action.
type AdminCommandLog struct {
	ID          int64          `bun:",pk,autoincrement"`
	GroupID     int64          `bun:",notnull"`
	AdminUserID int64          `bun:",notnull"`
	Command     string         `bun:",notnull"`
	Parameters  map[string]any `bun:",type:jsonb"`
	ExecutedAt  time.Time      `bun:",notnull"`
}
