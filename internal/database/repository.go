package database

import (
	"github.com/robalyx/invitegate/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	setting      *models.GroupSettingModel
	member       *models.MemberModel
	adminCommand *models.AdminCommandModel
	conversation *models.ConversationModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		setting:      models.NewGroupSetting(db, logger),
		member:       models.NewMember(db, logger),
		adminCommand: models.NewAdminCommand(db, logger),
		conversation: models.NewConversation(db, logger),
	}
}

// Setting returns the group setting model repository.
func (r *Repository) Setting() *models.GroupSettingModel {
	return r.setting
}

// Member returns the member ledger model repository.
func (r *Repository) Member() *models.MemberModel {
	return r.member
}

// AdminCommand returns the admin audit log model repository.
func (r *Repository) AdminCommand() *models.AdminCommandModel {
	return r.adminCommand
}

// Conversation returns the conversation history model repository.
func (r *Repository) Conversation() *models.ConversationModel {
	return r.conversation
}
