package core

import "errors"

// Error taxonomy. Configuration errors are fatal and raised before any
// network call; provider errors are retried at the provider boundary and
// fail only the current turn once retries exhaust.
var (
	// ErrInvalidConfig marks a missing or invalid required parameter,
	// including a vector dimension mismatch. Never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderUnavailable marks an embedding or model backend that
	// stayed unreachable after bounded retries.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrTimeout marks a provider call that exceeded its configured
	// timeout.
	ErrTimeout = errors.New("request timed out")

	// ErrEmptyInput marks an empty document list or empty query,
	// rejected before any work is performed.
	ErrEmptyInput = errors.New("empty input")
)
