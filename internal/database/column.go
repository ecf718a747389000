package database

import (
	"database/sql"
	"strings"
)

// Constraint types recorded on columns
const (
	ConstraintPrimaryKey = "PRIMARY KEY"
	ConstraintUnique     = "UNIQUE"
)

var numericTypes = map[string]bool{
	"smallint":         true,
	"integer":          true,
	"bigint":           true,
	"decimal":          true,
	"numeric":          true,
	"real":             true,
	"double precision": true,
	"smallserial":      true,
	"serial":           true,
	"bigserial":        true,
}

// ColumnMetadata describes one introspected column. It is immutable once its
// table mapper is built.
type ColumnMetadata struct {
	name         string
	dataType     string
	nullable     bool
	defaultValue sql.NullString
	maxLength    sql.NullInt64
	constraints  []string
}

func newColumnMetadata(name, dataType, isNullable string, defaultValue sql.NullString, maxLength sql.NullInt64) *ColumnMetadata {
	return &ColumnMetadata{
		name:         name,
		dataType:     strings.ToLower(dataType),
		nullable:     strings.EqualFold(isNullable, "YES"),
		defaultValue: defaultValue,
		maxLength:    maxLength,
	}
}

func (c *ColumnMetadata) addConstraint(constraint string) {
	for _, existing := range c.constraints {
		if existing == constraint {
			return
		}
	}
	c.constraints = append(c.constraints, constraint)
}

func (c *ColumnMetadata) Name() string { return c.name }

// Type returns the information_schema data type, e.g. "integer" or "timestamp without time zone"
func (c *ColumnMetadata) Type() string { return c.dataType }

func (c *ColumnMetadata) IsNullable() bool { return c.nullable }

func (c *ColumnMetadata) IsBoolean() bool { return c.dataType == "boolean" }

func (c *ColumnMetadata) IsNumericType() bool { return numericTypes[c.dataType] }

func (c *ColumnMetadata) HasDefault() bool { return c.defaultValue.Valid }

// MaxLength returns the character limit for varchar/char columns, 0 when unlimited
func (c *ColumnMetadata) MaxLength() int64 {
	if !c.maxLength.Valid {
		return 0
	}
	return c.maxLength.Int64
}

func (c *ColumnMetadata) IsPrimaryKey() bool { return c.hasConstraint(ConstraintPrimaryKey) }

func (c *ColumnMetadata) IsUnique() bool { return c.hasConstraint(ConstraintUnique) }

// Constraints returns a copy of the single column constraints on this column
func (c *ColumnMetadata) Constraints() []string {
	out := make([]string, len(c.constraints))
	copy(out, c.constraints)
	return out
}

func (c *ColumnMetadata) hasConstraint(constraint string) bool {
	for _, existing := range c.constraints {
		if existing == constraint {
			return true
		}
	}
	return false
}

// coerceBlank converts a blank form value to what the column can store: NULL when
// nullable, 0 for numbers, false for booleans, otherwise the empty string.
func (c *ColumnMetadata) coerceBlank() interface{} {
	switch {
	case c.nullable:
		return nil
	case c.IsNumericType():
		return 0
	case c.IsBoolean():
		return false
	default:
		return ""
	}
}
