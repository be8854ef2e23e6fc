package platform

import "errors"

var (
	// ErrRedundant is returned when messaging a worker that was discarded.
	ErrRedundant = errors.New("platform: worker is redundant")
	// ErrInvalidState is returned for lifecycle steps that do not apply to
	// the worker's current state or slot.
	ErrInvalidState = errors.New("platform: invalid worker state")
	// ErrEmptyScriptURL is returned by Register for a blank script URL.
	ErrEmptyScriptURL = errors.New("platform: script url required")
)
