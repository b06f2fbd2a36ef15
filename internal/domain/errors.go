package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrRoutingError signals an unrecognized login type on the redirect endpoint.
	// It is client-caused and maps to a 404 rather than a failure redirect.
	ErrRoutingError = errors.New("routing error")
	// ErrNotAuthorized is the hard denial for users below the minimum
	// identity-assurance level. No upstream call is made in this case.
	ErrNotAuthorized       = errors.New("not authorized")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrSessionExpired      = errors.New("session expired")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnprocessableEntity = errors.New("unprocessable entity")
	ErrConflict            = errors.New("conflict")
)

// ValidationError carries the coded outcome of SAML assertion validation.
// Callback handlers convert it to a failure redirect; it is never surfaced
// to the browser as a raw error.
type ValidationError struct {
	Code     string
	Messages []string
}

func (e *ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("saml validation failed (code %s)", e.Code)
	}
	return fmt.Sprintf("saml validation failed (code %s): %s", e.Code, e.Messages[0])
}

// BackendServiceError is raised after bounded retries against a legacy
// backend are exhausted. Code carries the upstream fault code so the job
// ledger can report it.
type BackendServiceError struct {
	Code      string
	Operation string
	Message   string
}

func (e *BackendServiceError) Error() string {
	return fmt.Sprintf("backend service error on %s (code %s): %s", e.Operation, e.Code, e.Message)
}
