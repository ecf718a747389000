// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines HTTP status codes, machine-readable error codes and
// header values used when building responses.
package constants

// HTTP Status Codes used by handlers and middleware.
const (
	// StatusOK indicates that the request has succeeded.
	StatusOK = 200

	// StatusCreated indicates that a new resource has been created.
	StatusCreated = 201

	// StatusNoContent indicates success with no response body.
	StatusNoContent = 204

	// StatusSeeOther redirects the client to another resource with a GET.
	StatusSeeOther = 303

	// StatusBadRequest indicates invalid client input.
	StatusBadRequest = 400

	// StatusUnauthorized indicates that authentication is required.
	StatusUnauthorized = 401

	// StatusForbidden indicates that the administrator lacks permission.
	StatusForbidden = 403

	// StatusNotFound indicates that the resource could not be found.
	StatusNotFound = 404

	// StatusMethodNotAllowed indicates an unsupported request method.
	StatusMethodNotAllowed = 405

	// StatusConflict indicates a conflict with the current resource state.
	StatusConflict = 409

	// StatusTooManyRequests indicates that the client has been throttled.
	StatusTooManyRequests = 429

	// StatusInternalServerError indicates an unexpected server condition.
	StatusInternalServerError = 500
)

// Response codes are the machine-readable codes placed in error responses.
const (
	ResponseSuccess = true
	ResponseFailure = false

	CodeBadRequest           = "bad_request"
	CodeUnauthorized         = "unauthorized"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeMethodNotAllowed     = "method_not_allowed"
	CodeConflict             = "conflict"
	CodeInternalError        = "internal_error"
	CodeValidationError      = "validation_error"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeDuplicateResource    = "duplicate_resource"
	CodeUnallowedAction      = "unallowed_action"
	CodeQueryFailure         = "query_failure"
	CodeQueryResultsNotFound = "query_results_not_found"
	CodeTooManyRequests      = "too_many_requests"
	CodeAuthenticationFailed = "authentication_failed"
	CodeServiceUnavailable   = "service_unavailable"
)

// HTTP Headers used in requests and responses.
const (
	HeaderContentType           = "Content-Type"
	HeaderCacheControl          = "Cache-Control"
	HeaderLocation              = "Location"
	HeaderRetryAfter            = "Retry-After"
	HeaderXRequestID            = "X-Request-ID"
	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderXXSSProtection        = "X-XSS-Protection"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
)

// Content Types
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Security header values
const (
	FrameOptionsDeny           = "DENY"
	XSSProtectionModeBlock     = "1; mode=block"
	ContentTypeOptionsNoSniff  = "nosniff"
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"
	CSPDefaultSrc              = "default-src 'self'"
	CacheControlNoStore        = "no-cache, no-store, must-revalidate"
)
