package secrets

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed indicates a credential document that is not a valid
	// username to [password, sentry] mapping.
	ErrMalformed = errors.New("malformed credential list")

	// ErrSourceNotFound indicates that no source is registered under a name.
	ErrSourceNotFound = errors.New("credential source not registered")
)

// SourceError wraps an error returned by a named source.
type SourceError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("credential source %q: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}
