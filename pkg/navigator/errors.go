package navigator

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAuthentication aborts the whole batch.
	ErrAuthentication = errors.New("authentication failed")
	// ErrPatientNotFound skips the current patient.
	ErrPatientNotFound = errors.New("patient not found")
	// ErrNavigationTimeout skips the current patient.
	ErrNavigationTimeout = errors.New("navigation step timed out")
	// ErrDetailSurfaceStuck means neither the close nor the emergency close removed
	// the detail surface; the current patient is skipped.
	ErrDetailSurfaceStuck = errors.New("detail surface stuck open")
	// ErrSessionLost means the driver is unusable; the batch aborts.
	ErrSessionLost = errors.New("browser session lost")

	ErrIllegalTransition = errors.New("illegal navigator transition")
)

// StepError records which navigation step failed. It unwraps to both the kind
// and the cause, so errors.Is matches either.
type StepError struct {
	Kind      error
	Step      string
	PatientID string
	Err       error
}

func (e *StepError) Error() string {
	if e.PatientID == "" {
		return fmt.Sprintf("%s: step %s: %v", e.Kind, e.Step, e.Err)
	}
	return fmt.Sprintf("%s: patient %s: step %s: %v", e.Kind, e.PatientID, e.Step, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsFatal reports errors that end the batch rather than the current patient.
func IsFatal(err error) bool {
	return errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrSessionLost) ||
		errors.Is(err, context.Canceled)
}

// KindOf names the taxonomy entry of err for logs and failure records.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrAuthentication):
		return "authentication_failure"
	case errors.Is(err, ErrSessionLost):
		return "session_lost"
	case errors.Is(err, ErrPatientNotFound):
		return "patient_not_found"
	case errors.Is(err, ErrDetailSurfaceStuck):
		return "detail_surface_stuck"
	case errors.Is(err, ErrNavigationTimeout):
		return "navigation_timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "unknown"
	}
}
