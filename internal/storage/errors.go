package storage

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist
	// or is too stale to serve.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
