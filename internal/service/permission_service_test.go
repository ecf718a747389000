package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

func TestPermissionService_Insert(t *testing.T) {
	tests := []struct {
		name      string
		input     *models.PermissionInput
		wantError bool
	}{
		{"Valid", &models.PermissionInput{Title: "View Reports", RoleIDs: []int64{1, 3}}, false},
		{"No roles", &models.PermissionInput{Title: "View Reports"}, true},
		{"Blank title", &models.PermissionInput{Title: "  ", RoleIDs: []int64{1}}, true},
		{"Bad role id", &models.PermissionInput{Title: "View Reports", RoleIDs: []int64{0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePermissions{}
			service := NewPermissionService(repo, true)

			_, err := service.Insert(context.Background(), tt.input)

			if tt.wantError {
				assert.True(t, utils.IsValidationError(err))
				assert.Zero(t, repo.insertCalls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, repo.insertCalls)
		})
	}
}

func TestPermissionService_List(t *testing.T) {
	repo := &fakePermissions{byTitle: map[string]*models.Permission{"View Roles": {ID: 1, Title: "View Roles"}}}
	service := NewPermissionService(repo, false)

	list, err := service.List(context.Background(), nil)

	require.NoError(t, err)
	permissions, ok := list.([]*models.Permission)
	require.True(t, ok)
	assert.Len(t, permissions, 1)
}
