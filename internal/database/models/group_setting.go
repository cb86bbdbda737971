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

// GroupSettingModel handles database operations for per-group gate settings.
type GroupSettingModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewGroupSetting creates a GroupSettingModel with database access.
func NewGroupSetting(db *bun.DB, logger *zap.Logger) *GroupSettingModel {
	return &GroupSettingModel{
		db:     db,
		logger: logger.Named("db_group_setting"),
	}
}

// GetOrCreate returns the settings of a group, creating them with the given
// default threshold when the group has never been seen.
func (r *GroupSettingModel) GetOrCreate(
	ctx context.Context, groupID int64, defaultRequired int,
) (*types.GroupSetting, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GroupSetting, error) {
		now := time.Now()
		settings := &types.GroupSetting{
			GroupID:         groupID,
			RequiredInvites: defaultRequired,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		// Settings may already exist, in which case the row is left untouched
		_, err := r.db.NewInsert().Model(settings).
			On("CONFLICT (group_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create group settings: %w (groupID=%d)", err, groupID)
		}

		err = r.db.NewSelect().Model(settings).
			WherePK().
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get group settings: %w (groupID=%d)", err, groupID)
		}

		return settings, nil
	})
}

// MarkBotAdded records when the bot joined a group, creating settings if needed.
func (r *GroupSettingModel) MarkBotAdded(
	ctx context.Context, groupID int64, defaultRequired int,
) (*types.GroupSetting, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GroupSetting, error) {
		now := time.Now()
		settings := &types.GroupSetting{
			GroupID:         groupID,
			RequiredInvites: defaultRequired,
			BotAddedAt:      now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		_, err := r.db.NewInsert().Model(settings).
			On("CONFLICT (group_id) DO UPDATE").
			Set("bot_added_at = EXCLUDED.bot_added_at").
			Returning("*").
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to mark bot added: %w (groupID=%d)", err, groupID)
		}

		return settings, nil
	})
}

// SetRequired stores a new invite threshold for a group using the given
// connection or transaction.
func (r *GroupSettingModel) SetRequired(
	ctx context.Context, db bun.IDB, groupID int64, required int,
) (*types.GroupSetting, error) {
	now := time.Now()
	settings := &types.GroupSetting{
		GroupID:         groupID,
		RequiredInvites: required,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := db.NewInsert().Model(settings).
		On("CONFLICT (group_id) DO UPDATE").
		Set("required_invites = EXCLUDED.required_invites").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to set required invites: %w (groupID=%d, required=%d)",
			err, groupID, required)
	}

	r.logger.Debug("Updated required invites",
		zap.Int64("groupID", groupID),
		zap.Int("required", required))

	return settings, nil
}
