// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthenticated = errors.New("unauthenticated")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorValidation      = errors.New("validation error")

	// Upload errors.
	ErrorPayloadTooLarge = errors.New("payload too large")
)
