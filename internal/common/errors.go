// Package common holds the sentinel errors shared by the moodkeeper client
// and server. Match them with errors.Is.
package common

import "errors"

var (
	// ErrValidation covers empty or duplicate titles, a missing capture,
	// malformed input and similar caller mistakes.
	ErrValidation = errors.New("validation error")

	// ErrInferenceFailure is returned when a backend cannot initialize, a
	// worker process misbehaves, or a model result cannot be parsed.
	ErrInferenceFailure = errors.New("inference failure")

	// ErrPersistence wraps storage-level failures.
	ErrPersistence = errors.New("persistence error")

	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternal      = errors.New("internal error")
	ErrInvalidToken  = errors.New("invalid token")

	// ErrAlreadyResolved is returned when a capability flag that was already
	// resolved is asked to flip to the other verdict.
	ErrAlreadyResolved = errors.New("capability already resolved")

	// ErrInvalidTransition is returned by the session state machines.
	ErrInvalidTransition = errors.New("invalid state transition")
)
