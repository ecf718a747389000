// Package utils provides utility functions and helpers for the application.
// This file implements a standardized API response system that ensures
// consistent response formats across all API endpoints.
//
// The response system includes:
//   - A standard Response structure for all API responses
//   - Convenience functions for common response types (success, error, redirect)
//   - HTTP status code helpers
//
// This ensures that all API responses follow the same format, making it easier
// for clients to parse and handle responses predictably.
package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/it-all/slim-postgres/internal/constants"
)

// Response represents a standardized API response.
// All API endpoints return responses in this format for consistency.
type Response struct {
	Success bool        `json:"success"`          // Whether the request was successful
	Data    interface{} `json:"data,omitempty"`   // The response data (omitted for error responses)
	Error   *ErrorInfo  `json:"error,omitempty"`  // Error information (omitted for successful responses)
	Notice  *Notice     `json:"notice,omitempty"` // Flash notice carried over from the previous request
}

// Notice is a one-time message shown to the administrator after a redirect.
type Notice struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ErrorInfo represents error information in the response.
// This provides structured error information to clients.
type ErrorInfo struct {
	Code    string            `json:"code"`              // A machine-readable error code
	Message string            `json:"message"`           // A human-readable error message
	Details map[string]string `json:"details,omitempty"` // Additional details about the error (e.g., validation errors)
}

// JSON sends a JSON response with the given status code and data.
// This is the primary function for sending successful responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - data: The data to include in the response
//
// The function automatically sets the success flag based on the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	// Create a successful response
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// Error sends an error response with the given status code and error information.
// This is the primary function for sending error responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - code: A machine-readable error code
//   - message: A human-readable error message
//   - details: Additional details about the error (e.g., validation errors)
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	// Create an error response
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorFromAppError sends an error response based on an AppError.
// This provides a convenient way to convert application errors to API responses.
//
// Parameters:
//   - w: The HTTP response writer
//   - err: The application error
//
// The function extracts the error code, message, and details from the AppError
// and sends an appropriate error response.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	errCode := constants.CodeInternalError
	switch {
	case errors.Is(err.Err, ErrQueryResultsNotFound):
		errCode = constants.CodeQueryResultsNotFound
	case errors.Is(err.Err, ErrNotFound):
		errCode = constants.CodeNotFound
	case errors.Is(err.Err, ErrBadRequest):
		errCode = constants.CodeBadRequest
	case errors.Is(err.Err, ErrUnauthorized):
		errCode = constants.CodeUnauthorized
	case errors.Is(err.Err, ErrForbidden):
		errCode = constants.CodeForbidden
	case errors.Is(err.Err, ErrValidation):
		errCode = constants.CodeValidationError
	case errors.Is(err.Err, ErrDuplicate):
		errCode = constants.CodeDuplicateResource
	case errors.Is(err.Err, ErrInvalidCredentials):
		errCode = constants.CodeInvalidCredentials
	case errors.Is(err.Err, ErrUnallowedAction):
		errCode = constants.CodeUnallowedAction
	case errors.Is(err.Err, ErrQueryFailure):
		errCode = constants.CodeQueryFailure
	case errors.Is(err.Err, ErrTooManyRequests):
		errCode = constants.CodeTooManyRequests
	}

	details := err.Details
	if details == nil && err.Field != "" {
		details = map[string]string{
			err.Field: err.Message,
		}
	}

	Error(w, err.StatusCode, errCode, err.Message, details)
}

// View sends a successful response carrying the popped flash notice, if any.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - data: The view model
//   - notice: The flash notice to show once, may be nil
func View(w http.ResponseWriter, statusCode int, data interface{}, notice *Notice) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
		Notice:  notice,
	}

	SendJSON(w, statusCode, response)
}

// Redirect sends a 303 See Other so the client follows up with a GET.
func Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, constants.StatusSeeOther)
}

// SendJSON is a helper function to send JSON data with proper headers.
// This handles JSON marshaling and error handling for all response types.
//
// Parameters:
//   - w: The HTTP response writer
//   - statusCode: The HTTP status code
//   - data: The data to marshal to JSON and send
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	// Set headers
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	// Marshal the data to JSON
	jsonData, err := json.Marshal(data)
	if err != nil {
		// If marshaling fails, log the error and send a simple error response
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	// Write the JSON data to the response
	_, err = w.Write(jsonData)
	if err != nil {
		// Log write errors but don't try to recover
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// Forbidden sends a 403 Forbidden response with the given message.
// This is a convenience function for sending forbidden errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - message: A human-readable error message (falls back to a default message if empty)
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAccessDenied
	}
	Error(w, constants.StatusForbidden, constants.CodeForbidden, message, nil)
}

// NotFound sends a 404 Not Found response with the given message.
// This is a convenience function for sending not found errors.
//
// Parameters:
//   - w: The HTTP response writer
//   - message: A human-readable error message (falls back to a default message if empty)
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, constants.StatusNotFound, constants.CodeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
// This is a convenience function for sending method not allowed errors.
//
// Parameters:
//   - w: The HTTP response writer
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, constants.StatusMethodNotAllowed, constants.CodeMethodNotAllowed, constants.MsgMethodNotAllowed, nil)
}
