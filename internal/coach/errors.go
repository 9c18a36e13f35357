package coach

import "errors"

var (
	// ErrTurnInProgress is returned when a question arrives while the previous
	// one is still awaiting its completion.
	ErrTurnInProgress = errors.New("a coach turn is already in progress")
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrNothingPending = errors.New("no pending turn to resume")
)
