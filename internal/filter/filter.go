// Package filter parses the list view filter expression
//
//	field:OP:value[,field:OP:value...]
//
// into a Descriptor validated against a whitelist of filterable columns. Parse
// failures are field level validation errors on the filter input, never panics.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/utils"
)

// Supported comparison operators
const (
	OpEqual          = "="
	OpNotEqual       = "!="
	OpLess           = "<"
	OpGreater        = ">"
	OpLessOrEqual    = "<="
	OpGreaterOrEqual = ">="
	OpIs             = "IS"
	OpIsNot          = "IS NOT"
	OpLike           = "LIKE"
	OpILike          = "ILIKE"
)

const (
	clauseSeparator = ","
	partSeparator   = ":"
	nullLiteral     = "null"
)

var operators = map[string]bool{
	OpEqual:          true,
	OpNotEqual:       true,
	OpLess:           true,
	OpGreater:        true,
	OpLessOrEqual:    true,
	OpGreaterOrEqual: true,
	OpIs:             true,
	OpIsNot:          true,
	OpLike:           true,
	OpILike:          true,
}

// Condition holds the operator/value pairs applied to one column. Operators and
// Values always have the same length; pairs are ANDed together. A nil value is SQL
// NULL and only appears with IS or IS NOT.
type Condition struct {
	Operators []string      `json:"operators"`
	Values    []interface{} `json:"values"`
}

// Descriptor maps a qualified SQL column name to its condition
type Descriptor map[string]*Condition

// Whitelist maps lower-case display names users type to qualified SQL columns
type Whitelist map[string]string

// IsValidOperator reports whether op is one of the supported operators
func IsValidOperator(op string) bool {
	return operators[op]
}

// Parse validates text against whitelist and returns the resulting descriptor.
// The returned error is a validation error on the filter field.
func Parse(text string, whitelist Whitelist) (Descriptor, *utils.AppError) {
	clauses := strings.Split(text, clauseSeparator)
	if strings.TrimSpace(clauses[0]) == "" {
		return nil, fieldError("Not Entered")
	}

	descriptor := make(Descriptor)
	for _, clause := range clauses {
		parts := strings.Split(clause, partSeparator)
		if len(parts) != 3 {
			return nil, fieldError("Malformed")
		}

		name := strings.ToLower(strings.TrimSpace(parts[0]))
		column, ok := whitelist[name]
		if !ok {
			return nil, fieldError(fmt.Sprintf("%s column not found", name))
		}

		op := strings.ToUpper(strings.TrimSpace(parts[1]))
		if !IsValidOperator(op) {
			return nil, fieldError(fmt.Sprintf("Invalid Operator %s", op))
		}

		value, appErr := parseValue(op, strings.TrimSpace(parts[2]))
		if appErr != nil {
			return nil, appErr
		}

		condition, exists := descriptor[column]
		if !exists {
			condition = &Condition{}
			descriptor[column] = condition
		}
		condition.Operators = append(condition.Operators, op)
		condition.Values = append(condition.Values, value)
	}

	return descriptor, nil
}

// parseValue applies the null rules: null pairs only with IS/IS NOT, and IS/IS NOT
// take only null, true or false since postgres does not accept a parameter there.
func parseValue(op, raw string) (interface{}, *utils.AppError) {
	isOp := op == OpIs || op == OpIsNot
	lowered := strings.ToLower(raw)

	if lowered == nullLiteral {
		if !isOp {
			return nil, fieldError(fmt.Sprintf("Mismatched null, %s", op))
		}
		return nil, nil
	}

	if isOp {
		switch lowered {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fieldError(fmt.Sprintf("%s requires null, true or false", op))
	}

	return raw, nil
}

// Canonical serializes descriptor back into filter text using the whitelist's
// display names. Clauses are ordered by display name, then by their order within
// the condition, so Parse(Canonical(d)) reproduces d.
func Canonical(descriptor Descriptor, whitelist Whitelist) string {
	names := make(map[string]string, len(whitelist))
	for name, column := range whitelist {
		if current, ok := names[column]; !ok || name < current {
			names[column] = name
		}
	}

	type entry struct {
		name      string
		condition *Condition
	}
	entries := make([]entry, 0, len(descriptor))
	for column, condition := range descriptor {
		name, ok := names[column]
		if !ok {
			name = column
		}
		entries = append(entries, entry{name: name, condition: condition})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	var clauses []string
	for _, e := range entries {
		for i, op := range e.condition.Operators {
			clauses = append(clauses, strings.Join([]string{e.name, op, formatValue(e.condition.Values[i])}, partSeparator))
		}
	}
	return strings.Join(clauses, clauseSeparator)
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return nullLiteral
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(v)
	}
}

// NewWhitelist builds a whitelist from column names, qualifying each with prefix
// when prefix is not empty, e.g. NewWhitelist("r", "role") = {"role": "r.role"}.
func NewWhitelist(prefix string, columns ...string) Whitelist {
	whitelist := make(Whitelist, len(columns))
	for _, column := range columns {
		qualified := column
		if prefix != "" {
			qualified = prefix + "." + column
		}
		whitelist[strings.ToLower(column)] = qualified
	}
	return whitelist
}

func fieldError(message string) *utils.AppError {
	return utils.NewValidationError(constants.FieldFilter, message)
}
