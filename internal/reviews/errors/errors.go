package errors

import "errors"

// ErrAlreadyReviewed means the reviewer already left a review on the booking.
var ErrAlreadyReviewed = errors.New("booking already reviewed by this user")
