package gcal

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected means no token pair is stored for the practitioner.
	ErrNotConnected = errors.New("google calendar not connected")

	// ErrNotSynced means update/delete was requested for an appointment with
	// no valid remote event; callers treat it as a skip, not a failure.
	ErrNotSynced = errors.New("appointment not synced to google calendar")

	// ErrMissingServiceDuration means a create sync has no resolvable service
	// duration to compute the event end time from.
	ErrMissingServiceDuration = errors.New("service duration unknown")

	// ErrEventNotFound is the provider's 404/410 for an event id.
	ErrEventNotFound = errors.New("calendar event not found")
)

// RefreshError carries the provider's description of a failed refresh-token
// grant. It is not retried here; the enclosing sync attempt is aborted.
type RefreshError struct {
	Reason string
}

func (e *RefreshError) Error() string {
	return "token refresh failed: " + e.Reason
}

// SyncError wraps a remote calendar failure for one sync operation.
type SyncError struct {
	Op  Op
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("calendar sync %s failed: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}
