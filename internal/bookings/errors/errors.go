package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrDateConflict is the store's signal that another active booking
	// holds at least one of the requested nights.
	ErrDateConflict = errors.New("room already booked for the requested dates")

	// ErrStateConflict means the booking's status was not the expected one
	// when a compare-and-swap was attempted.
	ErrStateConflict = errors.New("booking status changed concurrently")

	ErrStoreUnavailable = errors.New("booking store unavailable")
)
