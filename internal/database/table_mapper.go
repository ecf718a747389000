package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/filter"
	"github.com/it-all/slim-postgres/internal/utils"
)

// ErrTableNotFound is returned when introspection finds no columns for a table
var ErrTableNotFound = errors.New("table not found")

const columnsQuery = `SELECT column_name, data_type, is_nullable, column_default, character_maximum_length
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`

// Only single column PRIMARY KEY and UNIQUE constraints are recorded
const constraintsQuery = `SELECT kcu.column_name, tc.constraint_type
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
	ON tc.constraint_name = kcu.constraint_name
	AND tc.table_schema = kcu.table_schema
	AND tc.table_name = kcu.table_name
WHERE tc.table_schema = $1 AND tc.table_name = $2
	AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
	AND (SELECT COUNT(*) FROM information_schema.key_column_usage k
		WHERE k.constraint_name = tc.constraint_name AND k.table_schema = tc.table_schema) = 1`

// TableMapper provides generic CRUD over one table, driven by its introspected
// column metadata.
type TableMapper struct {
	db            Executor
	tableName     string
	columns       []*ColumnMetadata
	columnsByName map[string]*ColumnMetadata
	primaryKey    string
	uniqueColumns []string
	orderBy       string
	orderAsc      bool
}

// NewTableMapper introspects table and returns its mapper. orderBy defaults to the
// primary key column when empty.
func NewTableMapper(ctx context.Context, db Executor, table, orderBy string, orderAsc bool) (*TableMapper, error) {
	m := &TableMapper{
		db:            db,
		tableName:     table,
		columnsByName: make(map[string]*ColumnMetadata),
		orderAsc:      orderAsc,
	}

	if err := m.loadColumns(ctx); err != nil {
		return nil, err
	}
	if err := m.loadConstraints(ctx); err != nil {
		return nil, err
	}

	if orderBy == "" {
		orderBy = m.primaryKey
	}
	if orderBy != "" && m.Column(orderBy) == nil {
		return nil, fmt.Errorf("order by column %s not found in %s", orderBy, table)
	}
	m.orderBy = orderBy

	log.Debug().
		Str("table", table).
		Int("columns", len(m.columns)).
		Str("primary_key", m.primaryKey).
		Msg("Table mapper initialized")

	return m, nil
}

func (m *TableMapper) loadColumns(ctx context.Context) error {
	start := time.Now()
	rows, err := m.db.QueryContext(ctx, columnsQuery, constants.SchemaPublic, m.tableName)
	utils.LogDBQuery(columnsQuery, []interface{}{constants.SchemaPublic, m.tableName}, time.Since(start), err)
	if err != nil {
		return utils.NewQueryFailureError(columnsQuery, []interface{}{constants.SchemaPublic, m.tableName}, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name, dataType, isNullable string
			defaultValue               sql.NullString
			maxLength                  sql.NullInt64
		)
		if err := rows.Scan(&name, &dataType, &isNullable, &defaultValue, &maxLength); err != nil {
			return fmt.Errorf("failed to scan column metadata for %s: %w", m.tableName, err)
		}
		column := newColumnMetadata(name, dataType, isNullable, defaultValue, maxLength)
		m.columns = append(m.columns, column)
		m.columnsByName[name] = column
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read column metadata for %s: %w", m.tableName, err)
	}

	if len(m.columns) == 0 {
		return fmt.Errorf("%w: %s", ErrTableNotFound, m.tableName)
	}
	return nil
}

func (m *TableMapper) loadConstraints(ctx context.Context) error {
	start := time.Now()
	rows, err := m.db.QueryContext(ctx, constraintsQuery, constants.SchemaPublic, m.tableName)
	utils.LogDBQuery(constraintsQuery, []interface{}{constants.SchemaPublic, m.tableName}, time.Since(start), err)
	if err != nil {
		return utils.NewQueryFailureError(constraintsQuery, []interface{}{constants.SchemaPublic, m.tableName}, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, constraintType string
		if err := rows.Scan(&name, &constraintType); err != nil {
			return fmt.Errorf("failed to scan constraints for %s: %w", m.tableName, err)
		}

		column := m.columnsByName[name]
		if column == nil {
			log.Warn().Str("table", m.tableName).Str("column", name).Msg("Constraint on unknown column ignored")
			continue
		}
		column.addConstraint(constraintType)

		switch constraintType {
		case ConstraintPrimaryKey:
			m.primaryKey = name
		case ConstraintUnique:
			m.uniqueColumns = append(m.uniqueColumns, name)
		}
	}
	return rows.Err()
}

// WithExecutor returns a copy of the mapper that runs against db, typically a
// transaction.
func (m *TableMapper) WithExecutor(db Executor) *TableMapper {
	clone := *m
	clone.db = db
	return &clone
}

func (m *TableMapper) TableName() string { return m.tableName }

func (m *TableMapper) PrimaryKeyColumn() string { return m.primaryKey }

func (m *TableMapper) Columns() []*ColumnMetadata { return m.columns }

// ColumnNames returns the column names in ordinal order
func (m *TableMapper) ColumnNames() []string {
	names := make([]string, len(m.columns))
	for i, column := range m.columns {
		names[i] = column.name
	}
	return names
}

func (m *TableMapper) UniqueColumns() []string { return m.uniqueColumns }

// Column returns the metadata for name, or nil if the table has no such column
func (m *TableMapper) Column(name string) *ColumnMetadata {
	return m.columnsByName[name]
}

// OrderByClause returns the default ORDER BY expression
func (m *TableMapper) OrderByClause() string {
	if m.orderBy == "" {
		return ""
	}
	if m.orderAsc {
		return m.orderBy + " ASC"
	}
	return m.orderBy + " DESC"
}

// FormalTableName returns the display name of the table, e.g. "System Events", or
// "System Event" when plural is false.
func (m *TableMapper) FormalTableName(plural bool) string {
	name := cases.Title(language.English).String(strings.ReplaceAll(m.tableName, "_", " "))
	if plural {
		return name
	}
	// Singular form drops the last character, so "categories" gives "Categorie".
	// Tables needing real singularization must not rely on this.
	return name[:len(name)-1]
}

// Insert adds a row built from the genuine columns in values; other keys are
// ignored. Blank strings are coerced per column. It returns the new primary key
// value, or the sql.Result when the table has no primary key.
func (m *TableMapper) Insert(ctx context.Context, values map[string]interface{}, addMissingBooleansAsFalse bool) (interface{}, error) {
	var names, placeholders []string
	var args []interface{}

	for _, column := range m.columns {
		value, ok := values[column.name]
		if !ok {
			if !addMissingBooleansAsFalse || !column.IsBoolean() {
				continue
			}
			value = false
		}
		names = append(names, column.name)
		placeholders = append(placeholders, "?")
		args = append(args, prepareValue(column, value))
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("insert into %s: no column values", m.tableName)
	}

	qb := NewQueryBuilder(
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", m.tableName, strings.Join(names, ", "), strings.Join(placeholders, ", ")),
		args...,
	)

	if m.primaryKey == "" {
		return qb.Execute(ctx, m.db)
	}
	return qb.ExecuteWithReturnField(ctx, m.db, m.primaryKey)
}

// SelectForPrimaryKey returns the row with primary key value pk, or nil if there
// is none.
func (m *TableMapper) SelectForPrimaryKey(ctx context.Context, pk interface{}) (Record, error) {
	if m.primaryKey == "" {
		return nil, fmt.Errorf("table %s has no primary key", m.tableName)
	}

	qb := NewQueryBuilder(fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", m.tableName, m.primaryKey), pk)
	records, err := qb.Query(ctx, m.db)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// ChangedColumnsValues returns the entries of input whose key is a column of this
// table and whose value differs from record. Unknown keys are dropped, so
// resubmitting an unchanged form yields an empty map.
func (m *TableMapper) ChangedColumnsValues(input map[string]interface{}, record Record) map[string]interface{} {
	changed := make(map[string]interface{})
	for name, value := range input {
		column := m.Column(name)
		if column == nil {
			continue
		}
		if !valuesEqual(column, value, record[name]) {
			changed[name] = value
		}
	}
	return changed
}

// UpdateByPrimaryKey updates the row with primary key pk. With computeChanged set
// only values that differ from the stored row are written; knownRecord, when not
// nil, is used instead of loading the row. It returns the values written, which
// is empty when nothing changed. A missing row is QueryResultsNotFound.
func (m *TableMapper) UpdateByPrimaryKey(ctx context.Context, input map[string]interface{}, pk interface{}, computeChanged bool, knownRecord Record, addMissingBooleans bool) (map[string]interface{}, error) {
	if m.primaryKey == "" {
		return nil, fmt.Errorf("table %s has no primary key", m.tableName)
	}

	values := make(map[string]interface{})
	for _, column := range m.columns {
		if column.name == m.primaryKey {
			continue
		}
		if value, ok := input[column.name]; ok {
			values[column.name] = value
		} else if addMissingBooleans && column.IsBoolean() {
			values[column.name] = false
		}
	}

	if computeChanged {
		record := knownRecord
		if record == nil {
			var err error
			record, err = m.SelectForPrimaryKey(ctx, pk)
			if err != nil {
				return nil, err
			}
			if record == nil {
				return nil, utils.NewQueryResultsNotFound("%s %s %v", m.tableName, m.primaryKey, pk)
			}
		}
		values = m.ChangedColumnsValues(values, record)
	}

	if len(values) == 0 {
		return values, nil
	}

	var assignments []string
	var args []interface{}
	for _, column := range m.columns {
		value, ok := values[column.name]
		if !ok {
			continue
		}
		assignments = append(assignments, column.name+" = ?")
		args = append(args, prepareValue(column, value))
	}
	args = append(args, pk)

	qb := NewQueryBuilder(
		fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", m.tableName, strings.Join(assignments, ", "), m.primaryKey),
		args...,
	)
	result, err := qb.Execute(ctx, m.db)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return nil, utils.NewQueryResultsNotFound("%s %s %v", m.tableName, m.primaryKey, pk)
	}

	return values, nil
}

// DeleteByPrimaryKey deletes the row with primary key pk and returns the value of
// returning (the primary key when empty) from the deleted row. Deleting a missing
// row is QueryResultsNotFound.
func (m *TableMapper) DeleteByPrimaryKey(ctx context.Context, pk interface{}, returning string) (interface{}, error) {
	if m.primaryKey == "" {
		return nil, fmt.Errorf("table %s has no primary key", m.tableName)
	}
	if returning == "" {
		returning = m.primaryKey
	} else if m.Column(returning) == nil {
		return nil, fmt.Errorf("returning column %s not found in %s", returning, m.tableName)
	}

	qb := NewQueryBuilder(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", m.tableName, m.primaryKey), pk)
	return qb.ExecuteWithReturnField(ctx, m.db, returning)
}

// HasColumnValue reports whether any row has column = value
func (m *TableMapper) HasColumnValue(ctx context.Context, column string, value interface{}) (bool, error) {
	if m.Column(column) == nil {
		return false, fmt.Errorf("column %s not found in %s", column, m.tableName)
	}

	qb := NewQueryBuilder(fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? LIMIT 1", m.tableName, column), value)
	found, err := qb.GetOne(ctx, m.db)
	if err != nil {
		return false, err
	}
	return found != nil, nil
}

// Select returns the rows matching where, ordered by the default order. columns
// defaults to *.
func (m *TableMapper) Select(ctx context.Context, columns string, where filter.Descriptor) ([]Record, error) {
	if columns == "" {
		columns = "*"
	}
	return NewSelectBuilder(columns, m.tableName, where, m.OrderByClause()).Query(ctx, m.db)
}

// Whitelist returns the filterable columns of the table keyed by name
func (m *TableMapper) Whitelist() filter.Whitelist {
	return filter.NewWhitelist("", m.ColumnNames()...)
}

func prepareValue(column *ColumnMetadata, value interface{}) interface{} {
	if s, ok := value.(string); ok && s == "" {
		return column.coerceBlank()
	}
	return value
}

// valuesEqual compares a submitted value with a stored one after blank coercion.
// Values are compared by their text form since form input arrives as strings.
func valuesEqual(column *ColumnMetadata, input, stored interface{}) bool {
	input = prepareValue(column, input)
	if input == nil || stored == nil {
		return input == nil && stored == nil
	}
	if storedTime, ok := stored.(time.Time); ok {
		if inputTime, ok := parseTime(input, storedTime.Location()); ok {
			return inputTime.Equal(storedTime)
		}
	}
	return canonicalText(column, input) == canonicalText(column, stored)
}

// timeLayouts are the forms timestamps and dates take in submitted forms.
// Layouts without a zone are read in the stored value's location.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseTime(value interface{}, loc *time.Location) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		text := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, text, loc); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func canonicalText(column *ColumnMetadata, value interface{}) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case string:
		if column.IsBoolean() {
			switch strings.ToLower(v) {
			case "t", "true", "on", "yes", "y", "1":
				return "true"
			case "f", "false", "off", "no", "n", "0":
				return "false"
			}
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
