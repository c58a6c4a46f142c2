package types

import "errors"

// Catalog errors. Callers match them with errors.Is; stores and the catalog
// service wrap them with context.
var (
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrMalformedRow         = errors.New("malformed row")
	ErrStorageUnavailable   = errors.New("storage unavailable")
	ErrInvalidRole          = errors.New("invalid role")
	ErrLastAdmin            = errors.New("at least one active admin is required")
	ErrSessionClosed        = errors.New("session is closed")
	ErrInvalidPassword      = errors.New("invalid password")
)
