package shared

import (
	"errors"

	"github.com/qudrat-academy/qudrat/internal/platform/httpx"
)

var (
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionMissing occurs when a handler runs without the session middleware.
	ErrSessionMissing = errors.New("session missing")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage returns text that may be shown to an end user for err.
// Anything not explicitly classified collapses to a generic message.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrCSRFTokenMissing), errors.Is(err, ErrCSRFTokenMismatch):
		return "Your session expired, please reload and try again."
	case errors.Is(err, httpx.ErrNotFound):
		return "The requested resource was not found."
	case errors.Is(err, httpx.ErrDuplicate):
		return "The resource already exists."
	case errors.Is(err, httpx.ErrValidation):
		return "The submitted data is invalid."
	case errors.Is(err, httpx.ErrForbidden):
		return "You do not have access to this resource."
	case errors.Is(err, httpx.ErrUnauthorized):
		return "Please sign in to continue."
	default:
		return "Something went wrong, please try again."
	}
}
