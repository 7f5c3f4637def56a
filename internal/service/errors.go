package service

import (
	"errors"

	"docvault/internal/validation"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("document not found")
	ErrStorage         = errors.New("object storage failure")
	ErrPersistence     = errors.New("metadata persistence failure")

	// Validation failures are surfaced under the service's names.
	ErrMissingPayload  = validation.ErrMissingPayload
	ErrUnsupportedType = validation.ErrUnsupportedType
	ErrPayloadTooLarge = validation.ErrPayloadTooLarge
)
