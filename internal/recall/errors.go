package recall

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel for protocol errors: the action is
// not valid in the attempt's current state.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrInvalidConfidence is returned for a confidence value other than
// remembers or forgets.
var ErrInvalidConfidence = errors.New("invalid confidence")

// ErrNoHint is recorded when no hint generator or keywords are available.
var ErrNoHint = errors.New("no hint available")

// TransitionError describes a rejected action. The attempt is unchanged.
type TransitionError struct {
	State  State
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s in state %s", e.Action, e.State)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
