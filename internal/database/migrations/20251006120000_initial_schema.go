package migrations

import (
	"context"
	"fmt"

	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.GroupSetting)(nil),
			(*types.GroupMember)(nil),
			(*types.AdminCommandLog)(nil),
			(*types.ConversationTurn)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table for %T: %w", model, err)
			}
		}

		_, err := db.NewRaw(fmt.Sprintf(`
			ALTER TABLE group_settings
			ADD CONSTRAINT chk_group_settings_required_invites
			CHECK (required_invites BETWEEN %d AND %d);

			ALTER TABLE group_members
			ADD CONSTRAINT chk_group_members_invite_count
			CHECK (invite_count >= 0);
		`, types.MinRequiredInvites, types.MaxRequiredInvites)).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add check constraints: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP TABLE IF EXISTS conversation_turns, admin_command_logs, group_members, group_settings CASCADE
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}

		return nil
	})
}
