package service

import (
	"context"

	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
)

// RoleService handles role operations
type RoleService struct {
	repo      repository.RoleRepository
	trimInput bool
}

// NewRoleService creates a new RoleService
func NewRoleService(repo repository.RoleRepository, trimInput bool) *RoleService {
	return &RoleService{repo: repo, trimInput: trimInput}
}

// Mapper exposes the roles table metadata to list and form views
func (s *RoleService) Mapper() repository.EntityMapper {
	return s.repo
}

// List returns the roles matching where
func (s *RoleService) List(ctx context.Context, where filter.Descriptor) (interface{}, error) {
	return s.repo.Select(ctx, where)
}

// Get retrieves a role by ID
func (s *RoleService) Get(ctx context.Context, id int64) (*models.Role, error) {
	return s.repo.GetByID(ctx, id)
}

// Insert validates and inserts a role
func (s *RoleService) Insert(ctx context.Context, input *models.RoleInput) (int64, error) {
	if err := prepareInput(input, s.trimInput); err != nil {
		return 0, err
	}
	return s.repo.Insert(ctx, input)
}

// Update validates input and writes the changed columns. The returned change is
// empty when the form matched the stored role.
func (s *RoleService) Update(ctx context.Context, id int64, input *models.RoleInput) (*models.EntityChange, error) {
	if err := prepareInput(input, s.trimInput); err != nil {
		return nil, err
	}

	changed, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	return &models.EntityChange{Columns: changed}, nil
}

// Delete removes an unused role and returns its name
func (s *RoleService) Delete(ctx context.Context, id int64) (string, error) {
	return s.repo.Delete(ctx, id)
}
