package database

import (
	"github.com/robalyx/invitegate/internal/database/service"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	member *service.MemberService
}

// NewService creates a new service instance with all services.
func NewService(db *bun.DB, repository *Repository, defaultRequired int, logger *zap.Logger) *Service {
	return &Service{
		member: service.NewMember(
			db,
			repository.Setting(),
			repository.Member(),
			repository.AdminCommand(),
			defaultRequired,
			logger,
		),
	}
}

// Member returns the member service.
func (s *Service) Member() *service.MemberService {
	return s.member
}
