package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectWidgetsIntrospection(mock)

	registry, err := NewRegistry(context.Background(), db, TableSpec{Name: "widgets", OrderBy: "name", OrderAsc: true})
	require.NoError(t, err)

	mapper, err := registry.Mapper("widgets")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", mapper.OrderByClause())
	assert.Same(t, mapper, registry.MustMapper("widgets"))
	assert.Equal(t, []string{"widgets"}, registry.Tables())

	_, err = registry.Mapper("gadgets")
	assert.True(t, errors.Is(err, ErrTableNotFound))
	assert.Panics(t, func() { registry.MustMapper("gadgets") })
}

func TestNewRegistry_FailsOnMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "ghosts").
		WillReturnRows(sqlmock.NewRows(columnHeaders))

	registry, err := NewRegistry(context.Background(), db, TableSpec{Name: "ghosts"})

	assert.Nil(t, registry)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestRegistry_Refresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectWidgetsIntrospection(mock)
	registry, err := NewRegistry(context.Background(), db, TableSpec{Name: "widgets", OrderAsc: false})
	require.NoError(t, err)
	before := registry.MustMapper("widgets")

	expectWidgetsIntrospection(mock)
	require.NoError(t, registry.Refresh(context.Background(), "widgets"))

	after := registry.MustMapper("widgets")
	assert.NotSame(t, before, after)
	assert.Equal(t, "id DESC", after.OrderByClause())

	assert.True(t, errors.Is(registry.Refresh(context.Background(), "gadgets"), ErrTableNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectWidgetsIntrospection(mock)
	registry, err := NewRegistry(context.Background(), db, TableSpec{Name: "widgets"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := registry.Mapper("widgets")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
