package constants

// Error Messages define the base text of sentinel errors.
const (
	ErrorNotFound             = "resource not found"
	ErrorUnauthorized         = "unauthorized access"
	ErrorForbidden            = "forbidden access"
	ErrorBadRequest           = "invalid request"
	ErrorInternalServer       = "internal server error"
	ErrorValidation           = "validation error"
	ErrorDuplicate            = "duplicate resource"
	ErrorInvalidCredentials   = "invalid credentials"
	ErrorQueryFailure         = "query failure"
	ErrorQueryResultsNotFound = "query results not found"
	ErrorUnallowedAction      = "unallowed action"
	ErrorTooManyRequests      = "too many requests"
)

// User-Facing Messages are shown in responses and flash notices.
const (
	MsgAuthRequired          = "Login required"
	MsgInvalidCredentials    = "Login unsuccessful"
	MsgTooManyLogins         = "Too many unsuccessful login attempts"
	MsgAccessDenied          = "No permission"
	MsgInternalServerError   = "An internal server error occurred"
	MsgRequestBodyTooLarge   = "Request body too large"
	MsgEmptyRequestBody      = "Request body must not be empty"
	MsgMalformedRequest      = "Request body is malformed"
	MsgResourceNotFound      = "The requested resource could not be found"
	MsgResourceAlreadyExists = "A resource with the same unique identifier already exists"
	MsgMethodNotAllowed      = "This method is not allowed for this resource"
	MsgValidationFailed      = "Error(s) found in form"
	MsgNoChanges             = "No changes made"
	MsgDeletionFailure       = "Deletion Failure"
	MsgLogoutSuccess         = "Logged out"
)

// Database Error Codes are the PostgreSQL SQLSTATE values the application reacts to.
const (
	PGErrorDuplicateConstraint  = "23505"
	PGErrorForeignKeyConstraint = "23503"
	PGErrorNotNullConstraint    = "23502"
)

// Logging
const (
	LogCategoryAuth  = "auth"
	LogEventLogin    = "login"
	LogRedactedValue = "[REDACTED]"
)
