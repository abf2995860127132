package checkin

import (
	"github.com/abhisek/memoir/internal/schedule"
	"github.com/abhisek/memoir/internal/session"
)

// selectionMsg carries the next activity chosen for the participant.
type selectionMsg struct {
	Selection schedule.Selection
	Err       error
}

// answerSavedMsg is sent once an initial answer is stored.
type answerSavedMsg struct {
	Result *session.InitialResult
	Err    error
}

// stepMsg carries the outcome of one memory-check action.
type stepMsg struct {
	Result *session.Result
	Err    error
}
