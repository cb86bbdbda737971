package service

import (
	"context"

	"github.com/robalyx/invitegate/internal/database/dbretry"
	"github.com/robalyx/invitegate/internal/database/models"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// MemberService combines group settings, the member ledger and the audit log
// into the storage contract used by the access gate.
type MemberService struct {
	db              *bun.DB
	settings        *models.GroupSettingModel
	members         *models.MemberModel
	commands        *models.AdminCommandModel
	defaultRequired int
	logger          *zap.Logger
}

// NewMember creates a new member service.
func NewMember(
	db *bun.DB,
	settings *models.GroupSettingModel,
	members *models.MemberModel,
	commands *models.AdminCommandModel,
	defaultRequired int,
	logger *zap.Logger,
) *MemberService {
	return &MemberService{
		db:              db,
		settings:        settings,
		members:         members,
		commands:        commands,
		defaultRequired: defaultRequired,
		logger:          logger.Named("member_service"),
	}
}

// GetOrCreateSettings returns the settings of a group, creating defaults when missing.
func (s *MemberService) GetOrCreateSettings(ctx context.Context, groupID int64) (*types.GroupSetting, error) {
	return s.settings.GetOrCreate(ctx, groupID, s.defaultRequired)
}

// MarkBotAdded records the bot joining a group.
func (s *MemberService) MarkBotAdded(ctx context.Context, groupID int64) (*types.GroupSetting, error) {
	return s.settings.MarkBotAdded(ctx, groupID, s.defaultRequired)
}

// SetRequired updates the threshold of a group and records the change in the
// audit log within one transaction.
func (s *MemberService) SetRequired(
	ctx context.Context, groupID int64, required int, entry *types.AdminCommandLog,
) (*types.GroupSetting, error) {
	var settings *types.GroupSetting

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		var err error

		settings, err = s.settings.SetRequired(ctx, tx, groupID, required)
		if err != nil {
			return err
		}

		return s.commands.InsertCommand(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// GetMember retrieves a member record.
func (s *MemberService) GetMember(ctx context.Context, groupID, userID int64) (*types.GroupMember, error) {
	return s.members.GetMember(ctx, groupID, userID)
}

// CreateMember inserts a member record and reports whether it was new.
func (s *MemberService) CreateMember(ctx context.Context, member *types.GroupMember) (bool, error) {
	return s.members.CreateMember(ctx, member)
}

// RejoinMember reactivates a departed member.
func (s *MemberService) RejoinMember(
	ctx context.Context, groupID, userID int64, displayName string, restricted bool,
) (*types.GroupMember, error) {
	return s.members.RejoinMember(ctx, groupID, userID, displayName, restricted)
}

// IncrementInvites credits one invite to an existing inviter.
func (s *MemberService) IncrementInvites(
	ctx context.Context, groupID, inviterID int64, displayName string,
) (*types.GroupMember, error) {
	return s.members.IncrementInvites(ctx, groupID, inviterID, displayName)
}

// LiftRestriction clears the restriction flag of a restricted member and
// reports whether it changed.
func (s *MemberService) LiftRestriction(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.members.LiftRestriction(ctx, groupID, userID)
}

// Grandfather exempts a member from the gate.
func (s *MemberService) Grandfather(ctx context.Context, groupID, userID int64) error {
	return s.members.Grandfather(ctx, groupID, userID)
}

// ClaimWelcome reserves the welcome slot of a member.
func (s *MemberService) ClaimWelcome(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.members.ClaimWelcome(ctx, groupID, userID)
}

// ConfirmWelcome stores the delivered welcome message.
func (s *MemberService) ConfirmWelcome(ctx context.Context, groupID, userID, chatID, messageID int64) error {
	return s.members.ConfirmWelcome(ctx, groupID, userID, chatID, messageID)
}

// ReleaseWelcome frees an undelivered welcome slot.
func (s *MemberService) ReleaseWelcome(ctx context.Context, groupID, userID int64) error {
	return s.members.ReleaseWelcome(ctx, groupID, userID)
}

// ClearWelcome forgets a removed welcome message.
func (s *MemberService) ClearWelcome(ctx context.Context, groupID, userID int64) error {
	return s.members.ClearWelcome(ctx, groupID, userID)
}

// MarkLeft flags a member as departed.
func (s *MemberService) MarkLeft(ctx context.Context, groupID, userID int64) error {
	return s.members.MarkLeft(ctx, groupID, userID)
}

// RestrictedMembers lists the restricted members of a group.
func (s *MemberService) RestrictedMembers(ctx context.Context, groupID int64) ([]types.GroupMember, error) {
	return s.members.RestrictedMembers(ctx, groupID)
}

// CountRestricted counts the restricted members of a group.
func (s *MemberService) CountRestricted(ctx context.Context, groupID int64) (int, error) {
	return s.members.CountRestricted(ctx, groupID)
}

// LogCommand appends an entry to the audit log.
func (s *MemberService) LogCommand(ctx context.Context, entry *types.AdminCommandLog) error {
	return s.commands.LogCommand(ctx, entry)
}
