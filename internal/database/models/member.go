package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/database/dbretry"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/database/types/enum"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// welcomeClaimed marks a welcome slot that is taken but whose message id is
// not known yet, or whose message was already removed.
const welcomeClaimed int64 = 0

// MemberModel handles database operations for the member ledger.
type MemberModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMember creates a MemberModel with database access.
func NewMember(db *bun.DB, logger *zap.Logger) *MemberModel {
	return &MemberModel{
		db:     db,
		logger: logger.Named("db_member"),
	}
}

// GetMember retrieves a member record.
func (r *MemberModel) GetMember(ctx context.Context, groupID, userID int64) (*types.GroupMember, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GroupMember, error) {
		member := &types.GroupMember{GroupID: groupID, UserID: userID}

		err := r.db.NewSelect().Model(member).
			WherePK().
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("member %w (groupID=%d, userID=%d)", apperr.ErrNotFound, groupID, userID)
			}
			return nil, fmt.Errorf("failed to get member: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return member, nil
	})
}

// CreateMember inserts a new member record. It reports false without error
// when the member already exists.
func (r *MemberModel) CreateMember(ctx context.Context, member *types.GroupMember) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		now := time.Now()
		member.CreatedAt = now
		member.UpdatedAt = now

		result, err := r.db.NewInsert().Model(member).
			On("CONFLICT (group_id, user_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to create member: %w (groupID=%d, userID=%d)",
				err, member.GroupID, member.UserID)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}

		return affected > 0, nil
	})
}

// RejoinMember reactivates a member who previously left. It returns
// ErrNotFound when there is no departed record to reactivate.
func (r *MemberModel) RejoinMember(
	ctx context.Context, groupID, userID int64, displayName string, restricted bool,
) (*types.GroupMember, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GroupMember, error) {
		member := &types.GroupMember{}

		err := r.db.NewUpdate().Model(member).
			Set("has_left = false").
			Set("display_name = ?", displayName).
			Set("is_restricted = ?", restricted).
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Where("has_left = true").
			Returning("*").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("departed member %w (groupID=%d, userID=%d)", apperr.ErrNotFound, groupID, userID)
			}
			return nil, fmt.Errorf("failed to rejoin member: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return member, nil
	})
}

// IncrementInvites adds one invite to an existing inviter. It returns
// ErrNotFound when the inviter has no record.
func (r *MemberModel) IncrementInvites(
	ctx context.Context, groupID, inviterID int64, displayName string,
) (*types.GroupMember, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (*types.GroupMember, error) {
		member := &types.GroupMember{}

		err := r.db.NewUpdate().Model(member).
			Set("invite_count = invite_count + 1").
			Set("display_name = ?", displayName).
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, inviterID).
			Returning("*").
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("inviter %w (groupID=%d, inviterID=%d)", apperr.ErrNotFound, groupID, inviterID)
			}
			return nil, fmt.Errorf("failed to increment invites: %w (groupID=%d, inviterID=%d)",
				err, groupID, inviterID)
		}

		return member, nil
	})
}

// LiftRestriction clears the restriction flag of a restricted member. It
// reports false when the member was already unrestricted.
func (r *MemberModel) LiftRestriction(ctx context.Context, groupID, userID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		res, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("is_restricted = false").
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Where("is_restricted = true").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to lift restriction: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to read lifted rows: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return affected > 0, nil
	})
}

// Grandfather unrestricts a member and marks them as exempt from the gate.
func (r *MemberModel) Grandfather(ctx context.Context, groupID, userID int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("is_restricted = false").
			Set("joined_via = ?", enum.JoinedViaGrandfathered).
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to grandfather member: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return nil
	})
}

// ClaimWelcome reserves the welcome slot of a member. Only one caller can
// win the claim until the slot is released or the member leaves.
func (r *MemberModel) ClaimWelcome(ctx context.Context, groupID, userID int64) (bool, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (bool, error) {
		result, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("welcome_message_id = ?", welcomeClaimed).
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Where("welcome_message_id IS NULL").
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to claim welcome: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("failed to get affected rows: %w", err)
		}

		return affected > 0, nil
	})
}

// ConfirmWelcome stores the location of the delivered welcome message.
func (r *MemberModel) ConfirmWelcome(ctx context.Context, groupID, userID, chatID, messageID int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("welcome_message_id = ?", messageID).
			Set("welcome_chat_id = ?", chatID).
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to confirm welcome: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return nil
	})
}

// ReleaseWelcome frees a claimed slot whose message could not be delivered.
func (r *MemberModel) ReleaseWelcome(ctx context.Context, groupID, userID int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("welcome_message_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Where("welcome_message_id = ?", welcomeClaimed).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to release welcome: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return nil
	})
}

// ClearWelcome forgets the location of a removed welcome message while
// keeping the slot taken.
func (r *MemberModel) ClearWelcome(ctx context.Context, groupID, userID int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("welcome_message_id = ?", welcomeClaimed).
			Set("welcome_chat_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Where("welcome_message_id IS NOT NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear welcome: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return nil
	})
}

// MarkLeft flags a member as departed and frees the welcome slot for a later rejoin.
func (r *MemberModel) MarkLeft(ctx context.Context, groupID, userID int64) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewUpdate().
			Model((*types.GroupMember)(nil)).
			Set("has_left = true").
			Set("welcome_message_id = NULL").
			Set("welcome_chat_id = NULL").
			Set("updated_at = ?", time.Now()).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark member left: %w (groupID=%d, userID=%d)", err, groupID, userID)
		}

		return nil
	})
}

// RestrictedMembers returns all present members of a group that are still restricted.
func (r *MemberModel) RestrictedMembers(ctx context.Context, groupID int64) ([]types.GroupMember, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.GroupMember, error) {
		var members []types.GroupMember

		err := r.db.NewSelect().Model(&members).
			Where("group_id = ?", groupID).
			Where("is_restricted = true").
			Where("has_left = false").
			Order("created_at ASC").
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get restricted members: %w (groupID=%d)", err, groupID)
		}

		return members, nil
	})
}

// CountRestricted returns the number of present restricted members of a group.
func (r *MemberModel) CountRestricted(ctx context.Context, groupID int64) (int, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) (int, error) {
		count, err := r.db.NewSelect().
			Model((*types.GroupMember)(nil)).
			Where("group_id = ?", groupID).
			Where("is_restricted = true").
			Where("has_left = false").
			Count(ctx)
		if err != nil {
			return 0, fmt.Errorf("failed to count restricted members: %w (groupID=%d)", err, groupID)
		}

		return count, nil
	})
}
