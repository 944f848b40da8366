package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	// ErrStatusConflict means a conditional status update found the booking
	// in a different status than expected.
	ErrStatusConflict = errors.New("booking status changed concurrently")

	ErrTripLockTimeout = errors.New("timed out waiting for trip lock")
)
