package repository

import "errors"

// Repository errors, checked with errors.Is()
var (
	// ErrNotFound is returned when no row matches the lookup
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before it reaches the database
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrOperationNotSupported is returned by base repository operations a concrete repository does not override
	ErrOperationNotSupported = errors.New("operation not supported")
)
