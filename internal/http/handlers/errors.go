// Stable error codes carried in the ErrorResponse envelope. The generic
// ones mirror their HTTP status; the rest name the operation that failed
// when the status alone is ambiguous. Codes are part of the API contract:
// renaming one breaks clients.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeInternal     = "internal_error"

	ErrCodeCreateFailed     = "create_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeEndFailed        = "end_failed"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
