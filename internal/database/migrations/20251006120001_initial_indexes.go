package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- Member ledger indexes
			CREATE INDEX IF NOT EXISTS idx_group_members_inviter
			ON group_members (group_id, inviter_id)
			WHERE inviter_id IS NOT NULL;

			CREATE INDEX IF NOT EXISTS idx_group_members_restricted
			ON group_members (group_id)
			WHERE is_restricted = true;

			-- Audit log indexes
			CREATE INDEX IF NOT EXISTS idx_admin_command_logs_group_time
			ON admin_command_logs (group_id, executed_at DESC);

			-- Conversation history indexes
			CREATE INDEX IF NOT EXISTS idx_conversation_turns_member_time
			ON conversation_turns (group_id, user_id, created_at DESC);

			CREATE INDEX IF NOT EXISTS idx_conversation_turns_created
			ON conversation_turns (created_at);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_group_members_inviter;
			DROP INDEX IF EXISTS idx_group_members_restricted;
			DROP INDEX IF EXISTS idx_admin_command_logs_group_time;
			DROP INDEX IF EXISTS idx_conversation_turns_member_time;
			DROP INDEX IF EXISTS idx_conversation_turns_created;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop indexes: %w", err)
		}

		return nil
	})
}
