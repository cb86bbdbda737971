// Package gate implements the invite-gated access state machine of a group.
//
// A member starts RESTRICTED when joining and becomes UNRESTRICTED once they
// invited the number of members the group requires, or when an administrator
// grandfathers the existing members. State lives in the member ledger, while
// the platform restriction is applied through the Platform interface.
package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalyx/invitegate/internal/apperr"
	"github.com/robalyx/invitegate/internal/database/types"
	"github.com/robalyx/invitegate/internal/database/types/enum"
	"github.com/robalyx/invitegate/internal/locale"
	"go.uber.org/zap"
)

// Store is the persistence contract of the gate.
type Store interface {
	GetOrCreateSettings(ctx context.Context, groupID int64) (*types.GroupSetting, error)
	MarkBotAdded(ctx context.Context, groupID int64) (*types.GroupSetting, error)
	SetRequired(
		ctx context.Context, groupID int64, required int, entry *types.AdminCommandLog,
	) (*types.GroupSetting, error)

	GetMember(ctx context.Context, groupID, userID int64) (*types.GroupMember, error)
	CreateMember(ctx context.Context, member *types.GroupMember) (bool, error)
	RejoinMember(
		ctx context.Context, groupID, userID int64, displayName string, restricted bool,
	) (*types.GroupMember, error)
	IncrementInvites(ctx context.Context, groupID, inviterID int64, displayName string) (*types.GroupMember, error)
	LiftRestriction(ctx context.Context, groupID, userID int64) (bool, error)
	Grandfather(ctx context.Context, groupID, userID int64) error
	MarkLeft(ctx context.Context, groupID, userID int64) error
	RestrictedMembers(ctx context.Context, groupID int64) ([]types.GroupMember, error)
	CountRestricted(ctx context.Context, groupID int64) (int, error)

	ClaimWelcome(ctx context.Context, groupID, userID int64) (bool, error)
	ConfirmWelcome(ctx context.Context, groupID, userID, chatID, messageID int64) error
	ReleaseWelcome(ctx context.Context, groupID, userID int64) error
	ClearWelcome(ctx context.Context, groupID, userID int64) error

	LogCommand(ctx context.Context, entry *types.AdminCommandLog) error
}

// Button is an inline button attached to an outgoing message.
type Button struct {
	Text string
	Data string
}

// OutgoingMessage is a text message sent to a group or a private chat.
type OutgoingMessage struct {
	ChatID int64
	Text   string
	Button *Button
}

// Platform is the subset of the chat platform the gate drives.
type Platform interface {
	RestrictMember(ctx context.Context, groupID, userID int64) error
	UnrestrictMember(ctx context.Context, groupID, userID int64) error
	SendMessage(ctx context.Context, msg OutgoingMessage) (int64, error)
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

// Person identifies a platform user together with the name used to address them.
type Person struct {
	ID   int64
	Name string
}

// JoinRequest describes a member entering a group. Inviter is set when the
// member was added by someone else.
type JoinRequest struct {
	GroupID int64
	User    Person
	Inviter *Person
}

// Status is the restriction state of a member as reported to them.
type Status struct {
	Restricted  bool
	InviteCount int
	Required    int
	Remaining   int
	// Lifted is set when this check removed the restriction.
	Lifted bool
}

// GroupStatus summarizes the gate of a group for administrators.
type GroupStatus struct {
	Required   int
	Restricted int
	UpdatedAt  time.Time
}

// Gate runs the access state machine.
type Gate struct {
	store    Store
	platform Platform
	texts    *locale.Localizer
	logger   *zap.Logger
}

// New creates a Gate.
func New(store Store, platform Platform, texts *locale.Localizer, logger *zap.Logger) *Gate {
	return &Gate{
		store:    store,
		platform: platform,
		texts:    texts,
		logger:   logger.Named("gate"),
	}
}

// InitGroup records the bot being added to a group and ensures its settings exist.
func (g *Gate) InitGroup(ctx context.Context, groupID int64) (*types.GroupSetting, error) {
	settings, err := g.store.MarkBotAdded(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize group %d: %w", groupID, err)
	}

	g.logger.Info("Bot added to group",
		zap.Int64("groupID", groupID),
		zap.Int("required", settings.RequiredInvites))

	return settings, nil
}

// Join handles a member entering the group. New members are restricted on the
// platform before their record is created, so a missing permission leaves the
// ledger untouched. The inviter is credited only when the record is new.
func (g *Gate) Join(ctx context.Context, req JoinRequest) (*types.GroupMember, error) {
	settings, err := g.store.GetOrCreateSettings(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group settings: %w", err)
	}
	required := settings.RequiredInvites

	existing, err := g.store.GetMember(ctx, req.GroupID, req.User.ID)
	switch {
	case err == nil && existing.HasLeft:
		return g.rejoin(ctx, existing, req.User, required)
	case err == nil:
		// Duplicate delivery of a join we already processed
		if existing.IsRestricted {
			return existing, g.ensureWelcome(ctx, existing, required)
		}
		return existing, nil
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	via := enum.JoinedViaSelf
	var inviterID *int64
	if req.Inviter != nil && req.Inviter.ID != req.User.ID {
		via = enum.JoinedViaAddedByOther
		inviterID = &req.Inviter.ID
	}

	if err := g.platform.RestrictMember(ctx, req.GroupID, req.User.ID); err != nil {
		return nil, fmt.Errorf("failed to restrict new member %d: %w", req.User.ID, err)
	}

	member := &types.GroupMember{
		GroupID:      req.GroupID,
		UserID:       req.User.ID,
		DisplayName:  req.User.Name,
		InviterID:    inviterID,
		IsRestricted: true,
		JoinedVia:    via,
	}

	created, err := g.store.CreateMember(ctx, member)
	if err != nil {
		return nil, err
	}

	if !created {
		// A concurrent delivery of the same join created the record first
		existing, err := g.store.GetMember(ctx, req.GroupID, req.User.ID)
		if err != nil {
			return nil, err
		}
		if existing.IsRestricted {
			return existing, g.ensureWelcome(ctx, existing, required)
		}
		return existing, nil
	}

	g.logger.Info("Member joined",
		zap.Int64("groupID", req.GroupID),
		zap.Int64("userID", req.User.ID),
		zap.String("joinedVia", via.String()))

	if via == enum.JoinedViaAddedByOther {
		err := g.recordInvite(ctx, req.GroupID, *req.Inviter, required)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			g.logger.Info("Inviter has no record, invite not credited",
				zap.Int64("groupID", req.GroupID),
				zap.Int64("userID", req.Inviter.ID))
		case err != nil:
			g.logger.Error("Failed to record invite",
				zap.Error(err),
				zap.Int64("groupID", req.GroupID),
				zap.Int64("userID", req.Inviter.ID),
				zap.String("operation", "record_invite"))
		}
	}

	return member, g.ensureWelcome(ctx, member, required)
}

// rejoin reactivates a departed member with the restriction state they left
// with. The inviter is not credited again.
func (g *Gate) rejoin(
	ctx context.Context, existing *types.GroupMember, user Person, required int,
) (*types.GroupMember, error) {
	restricted := existing.IsRestricted

	if restricted {
		if err := g.platform.RestrictMember(ctx, existing.GroupID, user.ID); err != nil {
			return nil, fmt.Errorf("failed to restrict returning member %d: %w", user.ID, err)
		}
	}

	member, err := g.store.RejoinMember(ctx, existing.GroupID, user.ID, user.Name, restricted)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Another delivery of this join already reactivated the record
			return g.store.GetMember(ctx, existing.GroupID, user.ID)
		}
		return nil, err
	}

	g.logger.Info("Member rejoined",
		zap.Int64("groupID", member.GroupID),
		zap.Int64("userID", member.UserID),
		zap.Bool("restricted", restricted))

	if !restricted {
		return member, nil
	}

	return member, g.ensureWelcome(ctx, member, required)
}

// RecordInvite credits one invite to the inviter and lifts their restriction
// once the threshold is met.
func (g *Gate) RecordInvite(ctx context.Context, groupID int64, inviter Person) error {
	settings, err := g.store.GetOrCreateSettings(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to load group settings: %w", err)
	}

	return g.recordInvite(ctx, groupID, inviter, settings.RequiredInvites)
}

func (g *Gate) recordInvite(ctx context.Context, groupID int64, inviter Person, required int) error {
	member, err := g.store.IncrementInvites(ctx, groupID, inviter.ID, inviter.Name)
	if err != nil {
		return err
	}

	g.logger.Debug("Invite recorded",
		zap.Int64("groupID", groupID),
		zap.Int64("userID", inviter.ID),
		zap.Int("inviteCount", member.InviteCount),
		zap.Int("required", required))

	if member.IsRestricted && member.MeetsThreshold(required) {
		_, err := g.unrestrict(ctx, member)
		return err
	}

	return nil
}

// CheckStatus re-evaluates a member on request and lifts the restriction if
// the threshold is met. Calling it again without new invites changes nothing.
func (g *Gate) CheckStatus(ctx context.Context, groupID, userID int64) (*Status, error) {
	settings, err := g.store.GetOrCreateSettings(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group settings: %w", err)
	}
	required := settings.RequiredInvites

	member, err := g.store.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}

	lifted := false
	if member.IsRestricted && member.MeetsThreshold(required) {
		if lifted, err = g.unrestrict(ctx, member); err != nil {
			return nil, err
		}
	}

	status := &Status{
		Restricted:  member.IsRestricted,
		InviteCount: member.InviteCount,
		Required:    required,
		Lifted:      lifted,
	}
	if member.IsRestricted {
		status.Remaining = member.Remaining(required)
	}

	return status, nil
}

// Grandfather exempts every currently restricted member of the group. It
// returns how many members were exempted. Members joining later still start
// restricted.
func (g *Gate) Grandfather(ctx context.Context, groupID, adminID int64) (int, error) {
	members, err := g.store.RestrictedMembers(ctx, groupID)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range members {
		member := &members[i]

		if err := g.platform.UnrestrictMember(ctx, groupID, member.UserID); err != nil {
			if errors.Is(err, apperr.ErrPermission) {
				return count, fmt.Errorf("failed to unrestrict member %d: %w", member.UserID, err)
			}

			g.logger.Warn("Failed to unrestrict member during grandfathering",
				zap.Error(err),
				zap.Int64("groupID", groupID),
				zap.Int64("userID", member.UserID))
			continue
		}

		if err := g.store.Grandfather(ctx, groupID, member.UserID); err != nil {
			return count, err
		}

		member.IsRestricted = false
		member.JoinedVia = enum.JoinedViaGrandfathered
		g.removeWelcome(ctx, member)
		count++
	}

	if err := g.store.LogCommand(ctx, &types.AdminCommandLog{
		GroupID:     groupID,
		AdminUserID: adminID,
		Command:     types.CommandGrandfatherExisting,
		Parameters:  map[string]any{"count": count},
		ExecutedAt:  time.Now(),
	}); err != nil {
		g.logger.Error("Failed to log admin command",
			zap.Error(err),
			zap.Int64("groupID", groupID),
			zap.Int64("userID", adminID),
			zap.String("operation", types.CommandGrandfatherExisting))
	}

	g.logger.Info("Grandfathered existing members",
		zap.Int64("groupID", groupID),
		zap.Int64("adminID", adminID),
		zap.Int("count", count))

	return count, nil
}

// SetRequired changes the invite threshold of the group. Members already in
// the group keep their current state under the new threshold.
func (g *Gate) SetRequired(ctx context.Context, groupID, adminID int64, required int) (*types.GroupSetting, error) {
	if required < types.MinRequiredInvites || required > types.MaxRequiredInvites {
		return nil, fmt.Errorf("required invites %d outside [%d,%d]: %w",
			required, types.MinRequiredInvites, types.MaxRequiredInvites, apperr.ErrValidation)
	}

	settings, err := g.store.SetRequired(ctx, groupID, required, &types.AdminCommandLog{
		GroupID:     groupID,
		AdminUserID: adminID,
		Command:     types.CommandSetRequiredUsers,
		Parameters:  map[string]any{"required": required},
		ExecutedAt:  time.Now(),
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("Required invites updated",
		zap.Int64("groupID", groupID),
		zap.Int64("adminID", adminID),
		zap.Int("required", required))

	return settings, nil
}

// Leave marks a member as departed. Counts and restriction state are kept.
func (g *Gate) Leave(ctx context.Context, groupID, userID int64) error {
	member, err := g.store.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}

	if member.HasLeft {
		return nil
	}

	if ref, ok := welcomeRef(member); ok {
		g.deleteMessage(ctx, member, ref)
	}

	if err := g.store.MarkLeft(ctx, groupID, userID); err != nil {
		return err
	}

	g.logger.Info("Member left",
		zap.Int64("groupID", groupID),
		zap.Int64("userID", userID))

	return nil
}

// HandleMessage decides whether the author of a group message may post.
// Authors without a record are registered as restricted self-joined members.
// A restricted author's message is handled by HandleRestrictedMessage.
func (g *Gate) HandleMessage(ctx context.Context, groupID int64, author Person, messageID int64) (bool, error) {
	settings, err := g.store.GetOrCreateSettings(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to load group settings: %w", err)
	}
	required := settings.RequiredInvites

	member, err := g.store.GetMember(ctx, groupID, author.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		// Join restricts the author and delivers the welcome
		member, err = g.Join(ctx, JoinRequest{GroupID: groupID, User: author})
		if err != nil {
			return false, err
		}
		if member.IsRestricted {
			g.deleteMessage(ctx, member, messageRef{chatID: groupID, messageID: messageID})
			return false, nil
		}
	case err != nil:
		return false, err
	case member.HasLeft:
		member, err = g.rejoin(ctx, member, author, required)
		if err != nil {
			return false, err
		}
	}

	if !member.IsRestricted {
		return true, nil
	}

	// Restricted authors are only re-evaluated through CheckStatus or a new invite
	return false, g.HandleRestrictedMessage(ctx, member, required, messageID)
}

// HandleRestrictedMessage removes a message a restricted member managed to
// post, reapplies the platform restriction and makes sure the welcome was
// delivered.
func (g *Gate) HandleRestrictedMessage(
	ctx context.Context, member *types.GroupMember, required int, messageID int64,
) error {
	g.deleteMessage(ctx, member, messageRef{chatID: member.GroupID, messageID: messageID})

	if err := g.platform.RestrictMember(ctx, member.GroupID, member.UserID); err != nil {
		return fmt.Errorf("failed to restrict member %d: %w", member.UserID, err)
	}

	return g.ensureWelcome(ctx, member, required)
}

// GroupStatus reports the gate configuration and restricted member count of a group.
func (g *Gate) GroupStatus(ctx context.Context, groupID int64) (*GroupStatus, error) {
	settings, err := g.store.GetOrCreateSettings(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group settings: %w", err)
	}

	restricted, err := g.store.CountRestricted(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return &GroupStatus{
		Required:   settings.RequiredInvites,
		Restricted: restricted,
		UpdatedAt:  settings.UpdatedAt,
	}, nil
}

// unrestrict lifts the restriction of a member on the platform, then in the
// ledger. Only the caller that flips the ledger removes the welcome and tells
// the member privately, and it alone reports true.
func (g *Gate) unrestrict(ctx context.Context, member *types.GroupMember) (bool, error) {
	if err := g.platform.UnrestrictMember(ctx, member.GroupID, member.UserID); err != nil {
		return false, fmt.Errorf("failed to unrestrict member %d: %w", member.UserID, err)
	}

	lifted, err := g.store.LiftRestriction(ctx, member.GroupID, member.UserID)
	if err != nil {
		return false, err
	}
	member.IsRestricted = false

	if !lifted {
		return false, nil
	}

	g.logger.Info("Member unrestricted",
		zap.Int64("groupID", member.GroupID),
		zap.Int64("userID", member.UserID),
		zap.Int("inviteCount", member.InviteCount))

	g.removeWelcome(ctx, member)

	_, err = g.platform.SendMessage(ctx, OutgoingMessage{
		ChatID: member.UserID,
		Text:   g.texts.Text(locale.KeyAccessGranted),
	})
	if err != nil && !errors.Is(err, apperr.ErrUnreachable) {
		g.logger.Warn("Failed to send access granted message",
			zap.Error(err),
			zap.Int64("groupID", member.GroupID),
			zap.Int64("userID", member.UserID))
	}

	return true, nil
}
