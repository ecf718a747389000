package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/models"
	"github.com/it-all/slim-postgres/internal/utils"
)

var administratorRowHeaders = []string{"id", "name", "username", "password_hash", "active", "created", "role_id", "role"}

func newTestAdministratorRepository(t *testing.T) (AdministratorRepository, sqlmock.Sqlmock) {
	pool, registry, mock := newTestRegistry(t, constants.TableAdministrators, constants.TableAdministratorRoles)
	return NewAdministratorRepository(pool, registry), mock
}

func TestAdministratorRepository_GetByUsername(t *testing.T) {
	repo, mock := newTestAdministratorRepository(t)
	created := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE a.username = $1 ORDER BY a.name, r.level")).
		WithArgs("owner").
		WillReturnRows(sqlmock.NewRows(administratorRowHeaders).
			AddRow(int64(1), "Site Owner", "owner", "$argon2id$hash", true, created, int64(1), "owner").
			AddRow(int64(1), "Site Owner", "owner", "$argon2id$hash", true, created, int64(4), "user"))

	administrator, err := repo.GetByUsername(context.Background(), "owner")

	require.NoError(t, err)
	assert.Equal(t, "$argon2id$hash", administrator.PasswordHash)
	assert.True(t, administrator.HasRole("owner"))
	assert.True(t, administrator.HasRole("user"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministratorRepository_Select_ClearsHashes(t *testing.T) {
	repo, mock := newTestAdministratorRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM administrators a LEFT JOIN administrator_roles ar")).
		WillReturnRows(sqlmock.NewRows(administratorRowHeaders).
			AddRow(int64(1), "Site Owner", "owner", "$argon2id$hash", true, time.Now(), int64(1), "owner"))

	administrators, err := repo.Select(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, administrators, 1)
	assert.Empty(t, administrators[0].PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministratorRepository_Insert(t *testing.T) {
	repo, mock := newTestAdministratorRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO administrators (name, username, password_hash, active) VALUES ($1, $2, $3, $4) RETURNING id")).
		WithArgs("Pat", "patrick", "$argon2id$hash", false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO administrator_roles (administrator_id, role_id) VALUES ($1, $2) RETURNING id")).
		WithArgs(int64(3), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))
	mock.ExpectCommit()

	input := &models.AdministratorInput{Name: "Pat", Username: "patrick", RoleIDs: []int64{4}}
	id, err := repo.Insert(context.Background(), input, "$argon2id$hash")

	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministratorRepository_Update_Password(t *testing.T) {
	repo, mock := newTestAdministratorRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM administrators WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "username", "password_hash", "active", "created"}).
			AddRow(int64(3), "Pat", "patrick", "$argon2id$old", true, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role_id FROM administrator_roles WHERE administrator_id = $1 ORDER BY role_id")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"role_id"}).AddRow(int64(4)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE administrators SET password_hash = $1 WHERE id = $2")).
		WithArgs("$argon2id$new", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	input := &models.AdministratorInput{Name: "Pat", Username: "patrick", Active: true, RoleIDs: []int64{4}}
	change, err := repo.Update(context.Background(), 3, input, "$argon2id$new")

	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"password_hash": constants.LogRedactedValue}, change.Columns)
	assert.True(t, change.Roles.IsEmpty())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdministratorRepository_Delete(t *testing.T) {
	t.Run("Own account", func(t *testing.T) {
		repo, mock := newTestAdministratorRepository(t)

		_, err := repo.Delete(context.Background(), 3, 3)

		assert.True(t, utils.IsUnallowedAction(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Referenced by system events", func(t *testing.T) {
		repo, mock := newTestAdministratorRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM system_events WHERE administrator_id = $1")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))

		_, err := repo.Delete(context.Background(), 3, 1)

		assert.True(t, utils.IsUnallowedAction(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Deleted", func(t *testing.T) {
		repo, mock := newTestAdministratorRepository(t)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM system_events WHERE administrator_id = $1")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM administrator_roles WHERE administrator_id = $1")).
			WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM administrators WHERE id = $1 RETURNING username")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("patrick"))
		mock.ExpectCommit()

		username, err := repo.Delete(context.Background(), 3, 1)

		require.NoError(t, err)
		assert.Equal(t, "patrick", username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
