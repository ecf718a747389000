package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"

	"github.com/it-all/slim-postgres/internal/constants"
)

// Custom error types for the application
var (
	ErrNotFound             = errors.New(constants.ErrorNotFound)
	ErrUnauthorized         = errors.New(constants.ErrorUnauthorized)
	ErrForbidden            = errors.New(constants.ErrorForbidden)
	ErrBadRequest           = errors.New(constants.ErrorBadRequest)
	ErrInternalServer       = errors.New(constants.ErrorInternalServer)
	ErrValidation           = errors.New(constants.ErrorValidation)
	ErrDuplicate            = errors.New(constants.ErrorDuplicate)
	ErrInvalidCredentials   = errors.New(constants.ErrorInvalidCredentials)
	ErrQueryFailure         = errors.New(constants.ErrorQueryFailure)
	ErrQueryResultsNotFound = errors.New(constants.ErrorQueryResultsNotFound)
	ErrUnallowedAction      = errors.New(constants.ErrorUnallowedAction)
	ErrTooManyRequests      = errors.New(constants.ErrorTooManyRequests)
)

// AppError represents an application error with additional context
type AppError struct {
	Err        error             // The underlying error
	StatusCode int               // HTTP status code
	Message    string            // User-friendly error message
	DevInfo    string            // Additional information for developers
	Field      string            // Field related to the error (for validation errors)
	Details    map[string]string // Field level messages
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// QueryFailureError is returned when the database rejects a statement. It carries
// the SQL text and arguments for diagnostics; they are never sent to clients.
type QueryFailureError struct {
	SQL  string
	Args []interface{}
	Err  error
}

// NewQueryFailureError wraps a driver error with the statement that caused it.
func NewQueryFailureError(sql string, args []interface{}, err error) *QueryFailureError {
	return &QueryFailureError{SQL: sql, Args: args, Err: err}
}

func (e *QueryFailureError) Error() string {
	return fmt.Sprintf("query failure: %v; sql: %s; args: %v", e.Err, e.SQL, e.Args)
}

func (e *QueryFailureError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrQueryFailure) true for any QueryFailureError.
func (e *QueryFailureError) Is(target error) bool {
	return target == ErrQueryFailure
}

// NewQueryResultsNotFound returns an error for statements that targeted zero rows.
func NewQueryResultsNotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrQueryResultsNotFound, fmt.Sprintf(format, args...))
}

// New creates a new AppError with the given error and status code
func New(err error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        err,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewValidationError creates a new validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Field:      field,
		Details:    map[string]string{field: message},
	}
}

// NewValidationErrors creates a validation error carrying several field messages
func NewValidationErrors(fieldErrors map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    constants.MsgValidationFailed,
		Details:    fieldErrors,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resourceType string, identifier interface{}) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier),
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	return &AppError{
		Err:        ErrUnauthorized,
		StatusCode: http.StatusUnauthorized,
		Message:    message,
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = constants.MsgAccessDenied
	}
	return &AppError{
		Err:        ErrForbidden,
		StatusCode: http.StatusForbidden,
		Message:    message,
	}
}

// NewInternalServerError creates a new internal server error
func NewInternalServerError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    constants.MsgInternalServerError,
		DevInfo:    devInfo,
	}
}

// NewDuplicateError creates a new duplicate resource error
func NewDuplicateError(resourceType, field string, value interface{}) *AppError {
	return &AppError{
		Err:        ErrDuplicate,
		StatusCode: http.StatusConflict,
		Message:    fmt.Sprintf("%s with %s '%v' already exists", resourceType, field, value),
		Field:      field,
	}
}

// NewInvalidCredentialsError creates a new invalid credentials error
func NewInvalidCredentialsError() *AppError {
	return &AppError{
		Err:        ErrInvalidCredentials,
		StatusCode: http.StatusUnauthorized,
		Message:    constants.MsgInvalidCredentials,
	}
}

// NewUnallowedActionError creates a business rule veto, e.g. deleting a role in use
func NewUnallowedActionError(message string) *AppError {
	return &AppError{
		Err:        ErrUnallowedAction,
		StatusCode: http.StatusConflict,
		Message:    message,
	}
}

// NewTooManyRequestsError creates a throttling error, e.g. after repeated failed logins
func NewTooManyRequestsError(message string) *AppError {
	return &AppError{
		Err:        ErrTooManyRequests,
		StatusCode: http.StatusTooManyRequests,
		Message:    message,
	}
}

// ParseError attempts to parse various types of errors into an AppError
func ParseError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Statement failures keep the SQL in DevInfo only
	var qfErr *QueryFailureError
	if errors.As(err, &qfErr) {
		if pqAppErr := parsePQError(qfErr.Err); pqAppErr != nil {
			return pqAppErr
		}
		return &AppError{
			Err:        ErrQueryFailure,
			StatusCode: http.StatusInternalServerError,
			Message:    constants.MsgInternalServerError,
			DevInfo:    qfErr.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrQueryResultsNotFound):
		return &AppError{
			Err:        ErrQueryResultsNotFound,
			StatusCode: http.StatusNotFound,
			Message:    constants.MsgResourceNotFound,
			DevInfo:    err.Error(),
		}
	case errors.Is(err, ErrUnallowedAction):
		return NewUnallowedActionError(err.Error())
	case errors.Is(err, ErrNotFound):
		return NewNotFoundError("Resource", "")
	case errors.Is(err, ErrUnauthorized):
		return NewUnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return NewForbiddenError("")
	case errors.Is(err, ErrBadRequest):
		return NewBadRequestError(err.Error())
	case errors.Is(err, ErrValidation):
		return NewValidationError("", err.Error())
	case errors.Is(err, ErrDuplicate):
		return NewDuplicateError("Resource", "", "")
	case errors.Is(err, ErrInvalidCredentials):
		return NewInvalidCredentialsError()
	case errors.Is(err, ErrTooManyRequests):
		return NewTooManyRequestsError(constants.MsgTooManyLogins)
	}

	if pqAppErr := parsePQError(err); pqAppErr != nil {
		return pqAppErr
	}

	return NewInternalServerError(err)
}

// parsePQError maps PostgreSQL constraint violations to client errors
func parsePQError(err error) *AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch string(pqErr.Code) {
	case constants.PGErrorDuplicateConstraint:
		field := pqErr.Column
		if field == "" {
			// constraint names follow <table>_<column>_key
			field = strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, pqErr.Table+"_"), "_key")
		}
		return &AppError{
			Err:        ErrDuplicate,
			StatusCode: http.StatusConflict,
			Message:    constants.MsgResourceAlreadyExists,
			DevInfo:    pqErr.Error(),
			Field:      field,
		}
	case constants.PGErrorForeignKeyConstraint:
		return &AppError{
			Err:        ErrBadRequest,
			StatusCode: http.StatusBadRequest,
			Message:    "This operation violates a foreign key constraint",
			DevInfo:    pqErr.Error(),
		}
	case constants.PGErrorNotNullConstraint:
		field := pqErr.Column
		return &AppError{
			Err:        ErrValidation,
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("The %s field cannot be empty", field),
			DevInfo:    pqErr.Error(),
			Field:      field,
		}
	}
	return nil
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode == http.StatusNotFound
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrQueryResultsNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsQueryResultsNotFound checks if a statement targeted zero rows
func IsQueryResultsNotFound(err error) bool {
	return errors.Is(err, ErrQueryResultsNotFound)
}

// IsQueryFailure checks if the database rejected a statement
func IsQueryFailure(err error) bool {
	return errors.Is(err, ErrQueryFailure)
}

// IsUnallowedAction checks if a business rule vetoed the operation
func IsUnallowedAction(err error) bool {
	return errors.Is(err, ErrUnallowedAction)
}

// StatusCode returns the HTTP status code for an error
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
