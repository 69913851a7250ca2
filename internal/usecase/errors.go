package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrMalformedRecord marks a single upstream record that cannot be turned into a match.
	ErrMalformedRecord = errors.New("malformed record")
)
