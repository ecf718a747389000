package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/it-all/slim-postgres/internal/utils"
)

// Record is one result row keyed by column name
type Record map[string]interface{}

// QueryBuilder assembles a parameterized statement from fragments. Fragments use
// ? for parameters; they are numbered $1, $2, ... in the order they are added.
type QueryBuilder struct {
	text strings.Builder
	args []interface{}
}

// NewQueryBuilder starts a statement with an optional first fragment
func NewQueryBuilder(fragment string, args ...interface{}) *QueryBuilder {
	qb := &QueryBuilder{}
	if fragment != "" {
		qb.Add(fragment, args...)
	}
	return qb
}

// Add appends a fragment and its parameters. The number of ? in fragment must
// match len(args).
func (qb *QueryBuilder) Add(fragment string, args ...interface{}) *QueryBuilder {
	if strings.Count(fragment, "?") != len(args) {
		panic(fmt.Sprintf("query builder: %d placeholders for %d args in %q", strings.Count(fragment, "?"), len(args), fragment))
	}

	argIndex := 0
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '?' {
			qb.args = append(qb.args, args[argIndex])
			argIndex++
			qb.text.WriteString("$" + strconv.Itoa(len(qb.args)))
			continue
		}
		qb.text.WriteByte(fragment[i])
	}
	return qb
}

// SQL returns the assembled statement text
func (qb *QueryBuilder) SQL() string {
	return qb.text.String()
}

// Args returns the positional parameters
func (qb *QueryBuilder) Args() []interface{} {
	return qb.args
}

// Execute runs the statement. Driver errors are returned as *utils.QueryFailureError.
func (qb *QueryBuilder) Execute(ctx context.Context, db Executor) (sql.Result, error) {
	query := qb.SQL()
	start := time.Now()
	result, err := db.ExecContext(ctx, query, qb.args...)
	utils.LogDBQuery(query, qb.args, time.Since(start), err)
	if err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	return result, nil
}

// ExecuteWithReturnField appends RETURNING field, runs the statement and returns
// the value of field from the first row. Zero affected rows is reported as
// QueryResultsNotFound rather than a query failure.
func (qb *QueryBuilder) ExecuteWithReturnField(ctx context.Context, db Executor, field string) (interface{}, error) {
	qb.text.WriteString(" RETURNING " + field)

	query := qb.SQL()
	start := time.Now()
	var value interface{}
	err := db.QueryRowContext(ctx, query, qb.args...).Scan(&value)
	utils.LogDBQuery(query, qb.args, time.Since(start), ignoreNoRows(err))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.NewQueryResultsNotFound("no rows affected by: %s", query)
	}
	if err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	return normalizeValue(value), nil
}

// Query runs the statement and returns all rows
func (qb *QueryBuilder) Query(ctx context.Context, db Executor) ([]Record, error) {
	query := qb.SQL()
	start := time.Now()
	rows, err := db.QueryContext(ctx, query, qb.args...)
	utils.LogDBQuery(query, qb.args, time.Since(start), err)
	if err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	defer rows.Close()

	records, err := scanRows(rows)
	if err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	return records, nil
}

// GetOne runs a query expected to produce at most one row of one column. Zero rows
// returns nil without an error. Any other shape is a programming error.
func (qb *QueryBuilder) GetOne(ctx context.Context, db Executor) (interface{}, error) {
	query := qb.SQL()
	start := time.Now()
	rows, err := db.QueryContext(ctx, query, qb.args...)
	utils.LogDBQuery(query, qb.args, time.Since(start), err)
	if err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	if len(columns) != 1 {
		return nil, fmt.Errorf("GetOne expects 1 column, query returned %d: %s", len(columns), query)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, utils.NewQueryFailureError(query, qb.args, err)
		}
		return nil, nil
	}

	var value interface{}
	if err := rows.Scan(&value); err != nil {
		return nil, utils.NewQueryFailureError(query, qb.args, err)
	}
	if rows.Next() {
		return nil, fmt.Errorf("GetOne expects 1 row, query returned more: %s", query)
	}
	return normalizeValue(value), nil
}

// scanRows reads every row into a Record
func scanRows(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(Record, len(columns))
		for i, column := range columns {
			record[column] = normalizeValue(values[i])
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// normalizeValue converts driver byte slices (numeric, text arrays) into strings
func normalizeValue(value interface{}) interface{} {
	if b, ok := value.([]byte); ok {
		return string(b)
	}
	return value
}

func ignoreNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}
