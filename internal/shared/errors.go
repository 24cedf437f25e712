package shared

import "errors"

var (
	// ErrNotFound indicates the backend reported a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the backend rejected the bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the backend denied the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrBackendUnavailable indicates the backend could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an error to a message safe to render to the user.
func UserSafeMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record could not be found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Email or password is not valid."
	case errors.Is(err, ErrBackendUnavailable):
		return "The service is temporarily unavailable. Please try again."
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrUnauthorized):
		return "You do not have access to this resource."
	default:
		return "Something went wrong. Please try again."
	}
}
