// Package utils provides utility functions and helpers for common operations
// used throughout the application: error types, response writing, request
// validation, logging and small string helpers.
package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/it-all/slim-postgres/internal/constants"
)

// ParseID parses a positive integer primary key from a path parameter.
//
// Parameters:
//   - s: the raw path value
//
// Returns:
//   - the parsed id, or a bad request error if s is not a positive integer
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 1 {
		return 0, NewBadRequestError(fmt.Sprintf("Invalid id: %q", s))
	}
	return id, nil
}

// TrimStringFields trims surrounding whitespace from every exported string and
// []string field of the struct v points to. Non-pointer values are ignored.
//
// Parameters:
//   - v: a pointer to a struct
func TrimStringFields(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.String:
			field.SetString(strings.TrimSpace(field.String()))
		case reflect.Slice:
			if field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := 0; j < field.Len(); j++ {
				item := field.Index(j)
				item.SetString(strings.TrimSpace(item.String()))
			}
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.String {
				field.Elem().SetString(strings.TrimSpace(field.Elem().String()))
			}
		}
	}
}

// SanitizeKeys returns a copy of data with credential values redacted. Nested maps
// are sanitized recursively. Update changes pass through it before they are
// written to event notes.
func SanitizeKeys(data map[string]interface{}) map[string]interface{} {
	sensitiveKeys := map[string]bool{
		constants.ColumnPasswordHash: true,
		constants.FieldPassword:      true,
		"password_confirm":           true,
		"token":                      true,
		"secret":                     true,
	}

	result := make(map[string]interface{}, len(data))
	for k, v := range data {
		if sensitiveKeys[strings.ToLower(k)] {
			result[k] = constants.LogRedactedValue
			continue
		}

		if nestedMap, ok := v.(map[string]interface{}); ok {
			result[k] = SanitizeKeys(nestedMap)
			continue
		}

		result[k] = v
	}

	return result
}
