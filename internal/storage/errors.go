package storage

import "errors"

// Storage errors shared by all buffer backends.
var (
	// ErrInvalidInput is returned when input validation fails, e.g. an empty
	// stream name.
	ErrInvalidInput = errors.New("invalid input")
)
