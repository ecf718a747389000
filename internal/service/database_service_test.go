package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/utils"
)

var introspectionColumns = []string{"column_name", "data_type", "is_nullable", "column_default", "character_maximum_length"}

func newTestDatabaseService(t *testing.T) (*DatabaseService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("FROM information_schema.columns").WithArgs(constants.SchemaPublic, constants.TableRoles).
		WillReturnRows(sqlmock.NewRows(introspectionColumns).
			AddRow("id", "integer", "NO", "nextval('roles_id_seq'::regclass)", nil).
			AddRow("role", "character varying", "NO", nil, int64(50)).
			AddRow("level", "smallint", "NO", nil, nil))
	mock.ExpectQuery("FROM information_schema.table_constraints").WithArgs(constants.SchemaPublic, constants.TableRoles).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "constraint_type"}).
			AddRow("id", "PRIMARY KEY").
			AddRow("role", "UNIQUE"))

	mock.ExpectQuery("FROM information_schema.columns").WithArgs(constants.SchemaPublic, constants.TableAdministrators).
		WillReturnRows(sqlmock.NewRows(introspectionColumns).
			AddRow("id", "integer", "NO", "nextval('administrators_id_seq'::regclass)", nil).
			AddRow("username", "character varying", "NO", nil, int64(50)))
	mock.ExpectQuery("FROM information_schema.table_constraints").WithArgs(constants.SchemaPublic, constants.TableAdministrators).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "constraint_type"}).AddRow("id", "PRIMARY KEY"))

	registry, err := database.NewRegistry(context.Background(), db,
		database.TableSpec{Name: constants.TableRoles, OrderBy: "level", OrderAsc: true},
		database.TableSpec{Name: constants.TableAdministrators, OrderBy: "username", OrderAsc: true},
	)
	require.NoError(t, err)

	return NewDatabaseService(registry), mock
}

func TestDatabaseService_Tables(t *testing.T) {
	service, _ := newTestDatabaseService(t)

	assert.Equal(t, []string{constants.TableRoles}, service.Tables())
}

func TestDatabaseService_ValidateTableAccess(t *testing.T) {
	service, _ := newTestDatabaseService(t)

	_, err := service.ValidateTableAccess(constants.TableAdministrators)
	assert.Equal(t, 403, utils.StatusCode(err))

	_, err = service.ValidateTableAccess("widgets")
	assert.True(t, utils.IsNotFoundError(err))

	mapper, err := service.Mapper(constants.TableRoles)
	require.NoError(t, err)
	assert.Equal(t, "Role", mapper.FormalTableName(false))
}

func TestDatabaseService_GetTableData(t *testing.T) {
	service, mock := newTestDatabaseService(t)

	mapper, err := service.ValidateTableAccess(constants.TableRoles)
	require.NoError(t, err)
	where, appErr := filter.Parse("level:>:2", mapper.Whitelist())
	require.Nil(t, appErr)

	mock.ExpectQuery(`SELECT \* FROM roles WHERE level > \$1 ORDER BY level ASC`).
		WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role", "level"}).
			AddRow(int64(3), "manager", int64(3)).
			AddRow(int64(4), "editor", int64(4)))

	listing, err := service.GetTableData(context.Background(), constants.TableRoles, where)

	require.NoError(t, err)
	assert.Equal(t, "Roles", listing.Title)
	assert.Len(t, listing.Rows, 2)
	require.Len(t, listing.Columns, 3)
	assert.True(t, listing.Columns[0].PrimaryKey)
	assert.True(t, listing.Columns[1].Unique)
	assert.NoError(t, mock.ExpectationsWereMet())
}
