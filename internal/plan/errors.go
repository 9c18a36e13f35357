package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPlan matches every *MalformedPlanError via errors.Is.
	ErrMalformedPlan     = errors.New("malformed plan")
	ErrMalformedProgress = errors.New("malformed progress document")
	ErrNoPlan            = errors.New("no workout plan found")
	ErrDayNotFound       = errors.New("workout day not found")
	ErrExerciseNotFound  = errors.New("exercise not found")
)

// MalformedPlanError reports a plan document that could not be parsed. No
// partial plan is ever returned alongside it.
type MalformedPlanError struct {
	Reason string
	Err    error
}

func (e *MalformedPlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed plan: %s: %v", e.Reason, e.Err)
	}
	return "malformed plan: " + e.Reason
}

func (e *MalformedPlanError) Unwrap() error { return e.Err }

func (e *MalformedPlanError) Is(target error) bool { return target == ErrMalformedPlan }

func malformed(err error, format string, args ...any) *MalformedPlanError {
	return &MalformedPlanError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// InvalidUserIDError is returned when a plan owner cannot be stored under the
// data store's numeric key.
type InvalidUserIDError struct {
	UserID string
}

func (e *InvalidUserIDError) Error() string {
	return fmt.Sprintf("invalid user id %q: must be numeric", e.UserID)
}
