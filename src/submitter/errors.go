package submitter

import (
	"errors"
	"fmt"
)

// ErrThrottled is returned when the rate limiter rejects a submission before
// any network side effect. It is a normal control-flow signal: the caller
// should delay or queue the submission, not treat it as a failure of the
// remote path.
var ErrThrottled = errors.New("submission rate limit exceeded")

// SimulationError reports a pre-flight rejection by the remote program. It is
// fatal for the attempt and is never retried automatically.
type SimulationError struct {
	Reason string
}

// Error implements the error interface.
func (e SimulationError) Error() string {
	return fmt.Sprintf("simulation failed: %s", e.Reason)
}

// IsSimulationError checks whether err is a SimulationError.
func IsSimulationError(err error) bool {
	_, ok := err.(SimulationError)
	return ok
}

// NetworkError reports a transport-level failure talking to the remote
// network. It is retried up to the configured attempt cap.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap exposes the underlying failure.
func (e NetworkError) Unwrap() error {
	return e.Err
}

// ConfirmationTimeoutError reports that a transaction was sent but its
// confirmation was not observed in time. Like NetworkError, it is retried up
// to the configured attempt cap.
type ConfirmationTimeoutError struct {
	Anchor string
}

// Error implements the error interface.
func (e ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("confirmation timeout for anchor %s", e.Anchor)
}

// SubmitError is the terminal failure of a submission after all retry
// attempts were exhausted. It carries the attempt count and the last
// underlying failure.
type SubmitError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e SubmitError) Error() string {
	return fmt.Sprintf("submission failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap exposes the last underlying failure.
func (e SubmitError) Unwrap() error {
	return e.Err
}
