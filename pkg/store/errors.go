package store

import "errors"

// Sentinel errors for the store package. Use errors.Is() to check.
var (
	// ErrNotFound is returned when a record with the given natural key
	// does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateKey is returned when an insert hits the uniqueness
	// constraint on a natural key. Callers doing get-or-create should
	// treat it as "reload existing", not as fatal.
	ErrDuplicateKey = errors.New("store: duplicate key")
)
