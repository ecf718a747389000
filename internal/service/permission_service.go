package service

import (
	"context"

	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
)

// PermissionService handles permission operations
type PermissionService struct {
	repo      repository.PermissionRepository
	trimInput bool
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(repo repository.PermissionRepository, trimInput bool) *PermissionService {
	return &PermissionService{repo: repo, trimInput: trimInput}
}

// Mapper exposes the permissions table metadata to list and form views
func (s *PermissionService) Mapper() repository.EntityMapper {
	return s.repo
}

// List returns the permissions matching where with their roles
func (s *PermissionService) List(ctx context.Context, where filter.Descriptor) (interface{}, error) {
	return s.repo.Select(ctx, where)
}

// Get retrieves a permission by ID
func (s *PermissionService) Get(ctx context.Context, id int64) (*models.Permission, error) {
	return s.repo.GetByID(ctx, id)
}

// Insert validates and inserts a permission with its roles
func (s *PermissionService) Insert(ctx context.Context, input *models.PermissionInput) (int64, error) {
	if err := prepareInput(input, s.trimInput); err != nil {
		return 0, err
	}
	return s.repo.Insert(ctx, input)
}

// Update validates input, writes changed columns and reconciles roles
func (s *PermissionService) Update(ctx context.Context, id int64, input *models.PermissionInput) (*models.EntityChange, error) {
	if err := prepareInput(input, s.trimInput); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, input)
}

// Delete removes a permission and returns its title
func (s *PermissionService) Delete(ctx context.Context, id int64) (string, error) {
	return s.repo.Delete(ctx, id)
}
