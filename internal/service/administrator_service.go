package service

import (
	"context"
	"fmt"

	"github.com/it-all/slim-postgres/internal/auth"
	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/utils"
)

// AdministratorService handles administrator operations
type AdministratorService struct {
	repo        repository.AdministratorRepository
	passwordCfg *auth.PasswordConfig
	trimInput   bool
}

// NewAdministratorService creates a new AdministratorService
func NewAdministratorService(repo repository.AdministratorRepository, passwordCfg *auth.PasswordConfig, trimInput bool) *AdministratorService {
	return &AdministratorService{
		repo:        repo,
		passwordCfg: passwordCfg,
		trimInput:   trimInput,
	}
}

// Mapper exposes the administrators table metadata to list and form views
func (s *AdministratorService) Mapper() repository.EntityMapper {
	return s.repo
}

// List returns administrators matching where, without password hashes
func (s *AdministratorService) List(ctx context.Context, where filter.Descriptor) (interface{}, error) {
	return s.repo.Select(ctx, where)
}

// Get retrieves an administrator by ID without the password hash
func (s *AdministratorService) Get(ctx context.Context, id int64) (*models.Administrator, error) {
	administrator, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return administrator.Sanitize(), nil
}

// Insert validates input, hashes the password and inserts the administrator
func (s *AdministratorService) Insert(ctx context.Context, input *models.AdministratorInput) (int64, error) {
	if err := prepareInput(input, s.trimInput); err != nil {
		return 0, err
	}
	if input.Password == "" {
		return 0, utils.NewValidationError(constants.FieldPassword, "This field is required")
	}

	passwordHash, err := auth.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.repo.Insert(ctx, input, passwordHash)
}

// Update validates input and writes what changed. A blank password keeps the
// stored one, as does a password that verifies against the stored hash.
func (s *AdministratorService) Update(ctx context.Context, id int64, input *models.AdministratorInput) (*models.EntityChange, error) {
	if err := prepareInput(input, s.trimInput); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var passwordHash string
	if input.Password != "" {
		// an unreadable stored hash is replaced
		same, err := auth.VerifyPassword(input.Password, current.PasswordHash)
		if err != nil || !same {
			passwordHash, err = auth.HashPassword(input.Password, s.passwordCfg)
			if err != nil {
				return nil, fmt.Errorf("failed to hash password: %w", err)
			}
		}
	}

	return s.repo.Update(ctx, id, input, passwordHash)
}

// Delete removes an administrator other than the one making the request and
// returns the username
func (s *AdministratorService) Delete(ctx context.Context, id, currentAdministratorID int64) (string, error) {
	return s.repo.Delete(ctx, id, currentAdministratorID)
}
