package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/repository"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
)

type deletingAdministrators struct {
	repository.AdministratorRepository
	currentID int64
}

func (d *deletingAdministrators) Delete(ctx context.Context, id, currentAdministratorID int64) (string, error) {
	d.currentID = currentAdministratorID
	return "ada", nil
}

func TestAdministratorEntity_DeletePassesCurrentAdministrator(t *testing.T) {
	repo := &deletingAdministrators{}
	entity := administratorEntity{service.NewAdministratorService(repo, nil, true)}

	ctx := session.WithAdministrator(context.Background(), &models.Administrator{ID: 3})
	name, err := entity.Delete(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, "ada", name)
	assert.Equal(t, int64(3), repo.currentID)

	_, err = entity.Delete(context.Background(), 8)
	require.NoError(t, err)
	assert.Zero(t, repo.currentID)
}
