package services

import "errors"

var (
	// ErrSessionInvalid marks an unknown or expired session id. Surfaced to
	// the caller, never retried.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrGenerationFailed marks a generation failure with no usable
	// fallback answer.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrStoreUnavailable marks a KV operation that failed even after the
	// single retry. Request-scoped, not fatal to the process.
	ErrStoreUnavailable = errors.New("kv store unavailable")
)
