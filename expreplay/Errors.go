package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes the underlying error so that the IsXxx predicates
// see through any number of fmt.Errorf %w wraps added by callers
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyBuffer error = errors.New("buffer empty")

var errInvalidCapacity = errors.New("capacity must be >= 1")

var errNoMaskedEntries = errors.New("no stored entry is included in the " +
	"ensemble member's bootstrap mask")

// IsEmptyBuffer returns whether or not an error reports that a replay
// buffer was sampled before any data was collected. Callers should
// treat this as recoverable: skip the update and continue the rollout.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, errEmptyBuffer)
}

// IsNoMaskedEntries returns whether or not an error reports that a
// bootstrap sample was requested for an ensemble member whose mask
// excludes every stored entry
func IsNoMaskedEntries(err error) bool {
	return errors.Is(err, errNoMaskedEntries)
}
