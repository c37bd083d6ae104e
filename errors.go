package chatstream

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a configuration or update failed validation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a store has no update for the requested key.
	ErrNotFound = errors.New("update not found")

	// ErrSourceClosed indicates Next was called on a closed source.
	ErrSourceClosed = errors.New("source closed")
)
