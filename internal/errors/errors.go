// internal/errors/errors.go
package errors

import "fmt"

// ConfigurationError means the caller's account is missing a precondition the
// sync needs (no linked GitHub username). It is surfaced verbatim and never
// touches sync status.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// AuthenticationError means the request carried a missing or invalid
// credential. Rejected before any sync-status mutation.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

// PersistenceError wraps a storage write failure during merge or aggregation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
