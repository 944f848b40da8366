package errors

import "errors"

var (
	ErrNotFound = errors.New("notification not found")

	// ErrDuplicate means the event was already turned into a notification for
	// that user. Redelivered events hit this.
	ErrDuplicate = errors.New("notification already exists for event")
)
