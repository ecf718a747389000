package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-all/slim-postgres/internal/utils"
)

func TestQueryBuilder_Add(t *testing.T) {
	qb := NewQueryBuilder("SELECT * FROM roles WHERE level > ?", 1).
		Add(" AND role = ?", "owner").
		Add(" ORDER BY level")

	assert.Equal(t, "SELECT * FROM roles WHERE level > $1 AND role = $2 ORDER BY level", qb.SQL())
	assert.Equal(t, []interface{}{1, "owner"}, qb.Args())
}

func TestQueryBuilder_AddMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewQueryBuilder("SELECT * FROM roles WHERE id = ?")
	})
	assert.Panics(t, func() {
		NewQueryBuilder("").Add("id = ?", 1, 2)
	})
}

func TestQueryBuilder_Execute(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE roles SET level = $1 WHERE id = $2")).
			WithArgs(int64(2), int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		result, err := NewQueryBuilder("UPDATE roles SET level = ? WHERE id = ?", int64(2), int64(5)).Execute(context.Background(), db)
		require.NoError(t, err)

		affected, _ := result.RowsAffected()
		assert.Equal(t, int64(1), affected)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver failure is a query failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec("UPDATE roles").WillReturnError(errors.New("deadlock detected"))

		_, err = NewQueryBuilder("UPDATE roles SET level = ?", int64(2)).Execute(context.Background(), db)

		require.Error(t, err)
		assert.True(t, utils.IsQueryFailure(err))
		var qf *utils.QueryFailureError
		require.True(t, errors.As(err, &qf))
		assert.Equal(t, "UPDATE roles SET level = $1", qf.SQL)
		assert.Equal(t, []interface{}{int64(2)}, qf.Args)
	})
}

func TestQueryBuilder_ExecuteWithReturnField(t *testing.T) {
	t.Run("Returns field", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roles (role, level) VALUES ($1, $2) RETURNING id")).
			WithArgs("auditor", int64(6)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

		id, err := NewQueryBuilder("INSERT INTO roles (role, level) VALUES (?, ?)", "auditor", int64(6)).
			ExecuteWithReturnField(context.Background(), db, "id")

		require.NoError(t, err)
		assert.Equal(t, int64(9), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Zero rows is results not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM roles WHERE id = $1 RETURNING role")).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows([]string{"role"}))

		_, err = NewQueryBuilder("DELETE FROM roles WHERE id = ?", int64(99)).
			ExecuteWithReturnField(context.Background(), db, "role")

		assert.True(t, utils.IsQueryResultsNotFound(err))
		assert.False(t, utils.IsQueryFailure(err))
	})

	t.Run("Driver failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("DELETE FROM roles").WillReturnError(errors.New("violates foreign key constraint"))

		_, err = NewQueryBuilder("DELETE FROM roles WHERE id = ?", int64(1)).
			ExecuteWithReturnField(context.Background(), db, "id")

		assert.True(t, utils.IsQueryFailure(err))
		assert.False(t, utils.IsQueryResultsNotFound(err))
	})
}

func TestQueryBuilder_Query(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, level FROM roles ORDER BY level")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role", "level"}).
			AddRow(int64(1), []byte("owner"), int64(1)).
			AddRow(int64(2), "director", int64(2)))

	records, err := NewQueryBuilder("SELECT id, role, level FROM roles ORDER BY level").Query(context.Background(), db)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, Record{"id": int64(1), "role": "owner", "level": int64(1)}, records[0])
	assert.Equal(t, "director", records[1]["role"])
}

func TestQueryBuilder_GetOne(t *testing.T) {
	tests := []struct {
		name    string
		rows    *sqlmock.Rows
		want    interface{}
		wantErr bool
	}{
		{
			name: "One value",
			rows: sqlmock.NewRows([]string{"count"}).AddRow(int64(3)),
			want: int64(3),
		},
		{
			name: "Zero rows is nil",
			rows: sqlmock.NewRows([]string{"count"}),
			want: nil,
		},
		{
			name:    "More than one row",
			rows:    sqlmock.NewRows([]string{"count"}).AddRow(int64(1)).AddRow(int64(2)),
			wantErr: true,
		},
		{
			name:    "More than one column",
			rows:    sqlmock.NewRows([]string{"id", "role"}).AddRow(int64(1), "owner"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery("SELECT").WillReturnRows(tt.rows)

			got, err := NewQueryBuilder("SELECT COUNT(*) FROM roles").GetOne(context.Background(), db)
			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, utils.IsQueryFailure(err), "shape errors are programming errors")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
