package rollout

import "fmt"

// EnvironmentError reports that an environment returned a malformed
// step result or failed outright. Environment failures are fatal and
// never retried: retrying a stateful environment after a failure is
// unsafe.
type EnvironmentError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%v: environment: %v", e.Op, e.Err)
}

// Unwrap returns the underlying environment failure
func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// IsEnvironmentError returns whether or not an error reports an
// environment failure
func IsEnvironmentError(err error) bool {
	_, ok := err.(*EnvironmentError)
	return ok
}
