package session

import (
	"errors"
	"fmt"
)

// ErrSessionClosed is returned by any operation attempted after Close.
var ErrSessionClosed = errors.New("session: session was closed")

// ErrExecutionPending is returned when a query re-enters the session with a
// fingerprint that is still executing on the same call stack. A pending
// fingerprint may only be observed through a deferred load; a synchronous
// re-entrant read is a caller design error, never a wait.
var ErrExecutionPending = errors.New("session: fingerprint is pending on this call stack")

// ErrMisconfiguredEnvironment is returned when an isolated re-fetch or a new
// session is requested from an environment missing its transaction or
// backend factory.
var ErrMisconfiguredEnvironment = errors.New("session: environment is not configured for execution")

// FetchError wraps a failure raised by the physical fetch backend. The
// underlying error is reachable unchanged through errors.Is/As; the memo
// entry for the failed fingerprint has already been rolled back to absent
// when a FetchError surfaces, so the call may simply be retried.
type FetchError struct {
	StatementID string
	Err         error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("session: fetch %s: %v", e.StatementID, e.Err)
}

// Unwrap exposes the backend error.
func (e *FetchError) Unwrap() error { return e.Err }
