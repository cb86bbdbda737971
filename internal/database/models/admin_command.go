package models

import (
	"context"
	"fmt"
	"time"

	"github.com/robalyx/invitegate/internal/database/dbretry"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// AdminCommandModel handles database operations for the admin audit log.
type AdminCommandModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewAdminCommand creates an AdminCommandModel with database access.
func NewAdminCommand(db *bun.DB, logger *zap.Logger) *AdminCommandModel {
	return &AdminCommandModel{
		db:     db,
		logger: logger.Named("db_admin_command"),
	}
}

// LogCommand appends an entry to the audit log.
func (r *AdminCommandModel) LogCommand(ctx context.Context, entry *types.AdminCommandLog) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		return r.InsertCommand(ctx, r.db, entry)
	})
}

// InsertCommand appends an entry to the audit log using the given connection or transaction.
func (r *AdminCommandModel) InsertCommand(ctx context.Context, db bun.IDB, entry *types.AdminCommandLog) error {
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now()
	}

	_, err := db.NewInsert().Model(entry).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to log admin command: %w (groupID=%d, command=%s)",
			err, entry.GroupID, entry.Command)
	}

	return nil
}

// RecentCommands returns the latest audit entries of a group, newest first.
func (r *AdminCommandModel) RecentCommands(
	ctx context.Context, groupID int64, limit int,
) ([]types.AdminCommandLog, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.AdminCommandLog, error) {
		var entries []types.AdminCommandLog

		err := r.db.NewSelect().Model(&entries).
			Where("group_id = ?", groupID).
			Order("executed_at DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get admin commands: %w (groupID=%d)", err, groupID)
		}

		return entries, nil
	})
}
