package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services return these (wrapped with context via fmt.Errorf and %w) and the API
// layer maps them to HTTP status codes with errors.Is(). Nothing in here knows
// about HTTP.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// This is typically mapped to a 404 Not Found HTTP status.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation.
	// This is typically mapped to a 400 Bad Request HTTP status.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation could not be completed because
	// it conflicts with the current state of a resource, e.g. a save that
	// rewrites an already recorded question instead of appending to it.
	// This is typically mapped to a 409 Conflict HTTP status.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission signifies that the authenticated user is not authorized
	// to perform the requested action.
	// This is typically mapped to a 403 Forbidden HTTP status.
	ErrPermission = errors.New("permission denied")

	// ErrUnauthorized signifies a missing or expired identity provider session.
	// This is typically mapped to a 401 Unauthorized HTTP status.
	ErrUnauthorized = errors.New("authentication required")

	// ErrUpstream signifies that the hosted language model failed: network
	// error, timeout, non-2xx status or an empty completion. The gateway
	// routes answer these with a 500 carrying the stage fallback text.
	ErrUpstream = errors.New("language model unavailable")

	// ErrInternal signifies an unexpected error on the server. This is a generic
	// error used to prevent leaking sensitive implementation details to the client.
	// This is typically mapped to a 500 Internal Server Error HTTP status.
	ErrInternal = errors.New("internal server error")
)
