package domain

import "errors"

var (
	// ErrNotFound is returned when an operation names an item id that is not
	// in the collection.
	ErrNotFound = errors.New("not found")

	// ErrValidation wraps field-level validation failures.
	ErrValidation = errors.New("validation failed")
)
