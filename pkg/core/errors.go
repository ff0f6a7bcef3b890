package core

import "errors"

// Sentinel errors shared across components. All of them are recovered at
// the component boundary that produced them and surfaced to the operator;
// only ErrInputClosed terminates a session.
var (
	// ErrNotFound means unit resolution failed: no candidates and no
	// manual identifier was supplied.
	ErrNotFound = errors.New("unit not found")

	// ErrBackendUnavailable means the log store cannot be reached.
	ErrBackendUnavailable = errors.New("log backend unavailable")

	// ErrUnitNotLogged means the unit identifier is valid but its journal
	// stream is empty. Callers treat this as an empty result, not a fault.
	ErrUnitNotLogged = errors.New("unit has no journal entries")

	// ErrInputClosed means the operator input stream was closed.
	ErrInputClosed = errors.New("operator input closed")
)
