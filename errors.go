package ipgest

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrUnknownStore is returned for a store kind without a backend.
	ErrUnknownStore = errors.New("unknown store kind")
)
