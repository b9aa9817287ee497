package errors

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	ErrDuplicateEmail = errors.New("email already registered")

	ErrStoreUnavailable = errors.New("user store unavailable")
)
