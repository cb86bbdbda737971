package models

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/robalyx/invitegate/internal/database/dbretry"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ConversationModel handles database operations for assistant conversation history.
type ConversationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewConversation creates a ConversationModel with database access.
func NewConversation(db *bun.DB, logger *zap.Logger) *ConversationModel {
	return &ConversationModel{
		db:     db,
		logger: logger.Named("db_conversation"),
	}
}

// AddTurn appends a turn to a member's conversation.
func (r *ConversationModel) AddTurn(ctx context.Context, turn *types.ConversationTurn) error {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().Model(turn).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add conversation turn: %w (groupID=%d, userID=%d)",
				err, turn.GroupID, turn.UserID)
		}

		return nil
	})
}

// Window returns up to limit of the most recent successful turns created
// after since, ordered oldest first.
func (r *ConversationModel) Window(
	ctx context.Context, groupID, userID int64, limit int, since time.Time,
) ([]types.ConversationTurn, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.ConversationTurn, error) {
		var turns []types.ConversationTurn

		err := r.db.NewSelect().Model(&turns).
			Where("group_id = ?", groupID).
			Where("user_id = ?", userID).
			Where("created_at > ?", since).
			Where("is_error = false").
			Order("created_at DESC", "id DESC").
			Limit(limit).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation window: %w (groupID=%d, userID=%d)",
				err, groupID, userID)
		}

		slices.Reverse(turns)

		return turns, nil
	})
}

// DeleteOlderThan removes every turn created before the cutoff and returns
// the number of deleted rows.
func (r *ConversationModel) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int64, error) {
		result, err := r.db.NewDelete().
			Model((*types.ConversationTurn)(nil)).
			Where("created_at < ?", cutoff).
			Exec(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to delete old conversation turns: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get affected rows: %w", err)
		}

		r.logger.Debug("Deleted old conversation turns",
			zap.Int64("count", affected),
			zap.Time("cutoff", cutoff))

		return affected, nil
	})
}
