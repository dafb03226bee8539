package models

import "errors"

// Sentinel errors shared across services. Services wrap them with context via
// fmt.Errorf("%w: ...") and the HTTP layer maps them onto status codes.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("resource already exists")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrUnavailable  = errors.New("service unavailable")
)
