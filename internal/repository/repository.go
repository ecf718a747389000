// Package repository holds the entity mappers of the back office. Each one wraps
// the generic table mappers from the database registry with the joins and
// business rules of its entity.
package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/database"
	"github.com/it-all/slim-postgres/internal/filter"
)

// TableSpecs lists the tables the application registers at startup with their
// default list ordering.
func TableSpecs() []database.TableSpec {
	return []database.TableSpec{
		{Name: constants.TableRoles, OrderBy: constants.ColumnLevel, OrderAsc: true},
		{Name: constants.TablePermissions, OrderBy: constants.ColumnTitle, OrderAsc: true},
		{Name: constants.TableRolesPermissions, OrderAsc: true},
		{Name: constants.TableAdministrators, OrderBy: constants.ColumnName, OrderAsc: true},
		{Name: constants.TableAdministratorRoles, OrderAsc: true},
		{Name: constants.TableSystemEventTypes, OrderAsc: true},
		{Name: constants.TableSystemEvents, OrderBy: constants.ColumnCreated, OrderAsc: false},
		{Name: constants.TableLoginAttempts, OrderBy: constants.ColumnCreated, OrderAsc: false},
	}
}

// EntityMapper is what list and form views need from every entity repository
type EntityMapper interface {
	Columns() []*database.ColumnMetadata
	PrimaryKeyColumn() string
	FormalTableName(plural bool) string
	Whitelist() filter.Whitelist
}

// tableView looks its mapper up on each use so Registry.Refresh takes effect
type tableView struct {
	registry  *database.Registry
	table     string
	whitelist filter.Whitelist
}

func (v tableView) mapper() *database.TableMapper {
	return v.registry.MustMapper(v.table)
}

func (v tableView) Columns() []*database.ColumnMetadata { return v.mapper().Columns() }

func (v tableView) PrimaryKeyColumn() string { return v.mapper().PrimaryKeyColumn() }

func (v tableView) FormalTableName(plural bool) string { return v.mapper().FormalTableName(plural) }

func (v tableView) Whitelist() filter.Whitelist {
	if v.whitelist != nil {
		return v.whitelist
	}
	return v.mapper().Whitelist()
}

// countRows returns SELECT COUNT(*) FROM table WHERE column = value
func countRows(ctx context.Context, db database.Executor, table, column string, value interface{}) (int64, error) {
	count, err := database.NewQueryBuilder(fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ?", table, column), value).GetOne(ctx, db)
	if err != nil {
		return 0, err
	}
	return asInt64(count), nil
}

func asInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

func asStringPtr(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v interface{}) time.Time {
	t, _ := v.(time.Time)
	return t
}
