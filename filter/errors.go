package filter

import "errors"

// Common filter errors.
var (
	// ErrNotInitialized is returned when Process or Flush runs before a
	// successful Init.
	ErrNotInitialized = errors.New("filter not initialized")

	// ErrInvalidConfig is returned by filter constructors when the
	// supplied configuration cannot produce a working filter.
	ErrInvalidConfig = errors.New("invalid filter configuration")
)
