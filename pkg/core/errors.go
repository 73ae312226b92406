package core

import "errors"

// Common errors.
var (
	// ErrValidation rejects an action before any state changes.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a whiteboard does not exist.
	ErrNotFound = errors.New("whiteboard not found")
	// ErrPersistence wraps save/load failures. Editing state is never rolled back.
	ErrPersistence = errors.New("persistence failed")
	// ErrMalformed marks a stored payload that cannot be decoded.
	ErrMalformed = errors.New("malformed whiteboard payload")
	ErrReadOnly  = errors.New("repository is in read-only mode")
)
