package updater

import "errors"

// ConfigurationError is returned for setup mistakes: a missing registration
// source or environment, or subscribing to an unknown event. Callers must not
// proceed after receiving one.
type ConfigurationError struct {
	Reason string
}

func (e ConfigurationError) Error() string { return "updater: " + e.Reason }

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce ConfigurationError
	return errors.As(err, &ce)
}

// postError wraps a failure to deliver the activation message.
type postError struct {
	workerID string
	err      error
}

func (e postError) Error() string { return "post activation to " + e.workerID + ": " + e.err.Error() }

func (e postError) Unwrap() error { return e.err }
