package apperror

const (
	// Client errors (4xx)
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimit       = "RATE_LIMIT"
	CodeSessionClosed   = "SESSION_CLOSED"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeNotOpen         = "NOT_OPEN"

	// Server errors (5xx)
	CodeInternalError = "INTERNAL_ERROR"
)
