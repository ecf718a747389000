package database

import (
	"fmt"
	"sort"

	"github.com/it-all/slim-postgres/internal/filter"
)

// NewSelectBuilder composes SELECT selectClause FROM fromClause, the where
// descriptor as ANDed parameterized predicates, and ORDER BY orderBy. Columns are
// rendered in sorted order so the same descriptor always yields the same SQL.
func NewSelectBuilder(selectClause, fromClause string, where filter.Descriptor, orderBy string) *QueryBuilder {
	qb := NewQueryBuilder(fmt.Sprintf("SELECT %s FROM %s", selectClause, fromClause))
	AddWhere(qb, where, true)
	if orderBy != "" {
		qb.Add(" ORDER BY " + orderBy)
	}
	return qb
}

// AddWhere appends the descriptor's predicates to qb. The first predicate starts
// with WHERE when startWhere is set and AND otherwise.
func AddWhere(qb *QueryBuilder, where filter.Descriptor, startWhere bool) {
	columns := make([]string, 0, len(where))
	for column := range where {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	first := startWhere
	for _, column := range columns {
		condition := where[column]
		for i, op := range condition.Operators {
			keyword := " AND "
			if first {
				keyword = " WHERE "
				first = false
			}

			switch value := condition.Values[i].(type) {
			case nil:
				qb.Add(fmt.Sprintf("%s%s %s NULL", keyword, column, op))
			case bool:
				// IS and IS NOT do not take parameters
				if op == filter.OpIs || op == filter.OpIsNot {
					qb.Add(fmt.Sprintf("%s%s %s %t", keyword, column, op, value))
				} else {
					qb.Add(fmt.Sprintf("%s%s %s ?", keyword, column, op), value)
				}
			default:
				qb.Add(fmt.Sprintf("%s%s %s ?", keyword, column, op), value)
			}
		}
	}
}
