package service

import (
	"context"

	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/repository"
)

// SystemEventService lists the audit log
type SystemEventService struct {
	repo repository.SystemEventRepository
}

// NewSystemEventService creates a new SystemEventService
func NewSystemEventService(repo repository.SystemEventRepository) *SystemEventService {
	return &SystemEventService{repo: repo}
}

func (s *SystemEventService) Mapper() repository.EntityMapper {
	return s.repo
}

// List returns the events matching where, newest first
func (s *SystemEventService) List(ctx context.Context, where filter.Descriptor) (interface{}, error) {
	return s.repo.Select(ctx, where)
}

// LoginAttemptService lists recorded logins
type LoginAttemptService struct {
	repo repository.LoginAttemptRepository
}

// NewLoginAttemptService creates a new LoginAttemptService
func NewLoginAttemptService(repo repository.LoginAttemptRepository) *LoginAttemptService {
	return &LoginAttemptService{repo: repo}
}

func (s *LoginAttemptService) Mapper() repository.EntityMapper {
	return s.repo
}

// List returns the attempts matching where, newest first
func (s *LoginAttemptService) List(ctx context.Context, where filter.Descriptor) (interface{}, error) {
	return s.repo.Select(ctx, where)
}
