package migrations_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/migrations"
)

// executedRows returns every migration name except the skipped ones
func executedRows(skip ...string) *sqlmock.Rows {
	skipped := make(map[string]bool, len(skip))
	for _, name := range skip {
		skipped[name] = true
	}

	rows := sqlmock.NewRows([]string{"name"})
	for _, migration := range migrations.GetMigrations() {
		if !skipped[migration.Name] {
			rows.AddRow(migration.Name)
		}
	}
	return rows
}

func TestGetMigrations(t *testing.T) {
	all := migrations.GetMigrations()

	order := make(map[string]int, len(all))
	for i, migration := range all {
		assert.NotEmpty(t, migration.Name)
		assert.NotNil(t, migration.RunSQL)
		order[migration.TableName] = i
	}

	assert.Len(t, all, 8)
	// referenced tables come first
	assert.Less(t, order["roles"], order["administrator_roles"])
	assert.Less(t, order["administrators"], order["administrator_roles"])
	assert.Less(t, order["permissions"], order["roles_permissions"])
	assert.Less(t, order["system_event_types"], order["system_events"])
	assert.Less(t, order["administrators"], order["system_events"])
	assert.Less(t, order["administrators"], order["login_attempts"])
}

func TestRunMigrations(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		wantErr bool
	}{
		{
			name: "Error - Create migrations table fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnError(errors.New("permission denied"))
			},
			wantErr: true,
		},
		{
			name: "Error - Get executed migrations fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
		{
			name: "Success - Everything already migrated",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(executedRows())
			},
		},
		{
			name: "Success - Existing table is recorded without running",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(executedRows("create_login_attempts_table"))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("login_attempts").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectExec("INSERT INTO migrations").
					WithArgs("create_login_attempts_table", "Creates the login_attempts table").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "Success - Missing table is created",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(executedRows("create_roles_table"))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("roles").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("INSERT INTO migrations").
					WithArgs("create_roles_table", "Creates the roles table").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "Error - Migration SQL fails and rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(executedRows("create_roles_table"))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("roles").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
				mock.ExpectBegin()
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS roles").
					WillReturnError(errors.New("syntax error"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
		{
			name: "Error - Table exists check fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS migrations").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery("SELECT name FROM migrations").
					WillReturnRows(sqlmock.NewRows([]string{"name"}))
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("system_event_types").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setup(mock)

			err = migrations.NewMigrator(&database.Pool{DB: db}).RunMigrations(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
