package errors

import "errors"

var (
	ErrNotFound = errors.New("trip not found")

	ErrInsufficientSeats = errors.New("not enough seats available")

	ErrInvalidSeats = errors.New("seat count must be positive")
)
