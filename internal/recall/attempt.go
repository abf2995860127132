// Package recall drives a single memory check through confidence, recall,
// hint and reveal steps until it reaches a pass or fail verdict.
package recall

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/memoir/internal/store"
)

// State is a step of the recall verification protocol.
type State string

const (
	StateStart             State = "START"
	StateAwaitConfidence   State = "AWAIT_CONFIDENCE"
	StateAwaitFirstRecall  State = "AWAIT_FIRST_RECALL_TEXT"
	StateShowHint          State = "SHOW_HINT"
	StateAwaitHintResponse State = "AWAIT_HINT_RESPONSE"
	StateAwaitSecondRecall State = "AWAIT_SECOND_RECALL_TEXT"
	StateRevealOriginal    State = "REVEAL_ORIGINAL"
	StateTerminalPass      State = "TERMINAL_PASS"
	StateTerminalFail      State = "TERMINAL_FAIL"
)

// Terminal reports whether no further input is accepted in s.
func (s State) Terminal() bool {
	return s == StateTerminalPass || s == StateTerminalFail
}

// Attempt is the in-flight state of one memory check. It is a plain value:
// callers pass it into every Machine call and keep the returned copy.
type Attempt struct {
	ID              string `json:"id"`
	UserID          int64  `json:"user_id"`
	QuestionID      int64  `json:"question_id"`
	InitialAnswerID int64  `json:"initial_answer_id"`
	QuestionText    string `json:"question_text"`

	// OriginalAnswer and Keywords come from the initial answer.
	OriginalAnswer string   `json:"original_answer"`
	Keywords       []string `json:"keywords"`

	State State `json:"state"`

	// Confidence is the response that steered the most recent branch:
	// the first stated confidence, then the answer to the hint.
	Confidence store.Confidence `json:"confidence,omitempty"`
	RecallText string           `json:"recall_text"`
	MatchCount int              `json:"match_count"`
	Step       store.CheckStep  `json:"step"`

	HintProvided bool   `json:"hint_provided"`
	HintURL      string `json:"hint_url,omitempty"`
	HintPrompt   string `json:"hint_prompt,omitempty"`
	HintError    string `json:"hint_error,omitempty"`

	StartedAt time.Time `json:"started_at"`
}

// NewAttempt creates an attempt for q anchored on its initial answer.
func NewAttempt(q store.Question, initial store.Answer) Attempt {
	return Attempt{
		ID:              uuid.New().String(),
		UserID:          initial.UserID,
		QuestionID:      q.ID,
		InitialAnswerID: initial.ID,
		QuestionText:    q.Text,
		OriginalAnswer:  initial.Text,
		Keywords:        initial.Keywords,
		State:           StateStart,
		Step:            store.StepInitialRecall,
		StartedAt:       time.Now(),
	}
}

// Result returns the verdict of a terminal attempt.
func (a Attempt) Result() (store.CheckResult, bool) {
	switch a.State {
	case StateTerminalPass:
		return store.ResultPass, true
	case StateTerminalFail:
		return store.ResultFail, true
	}
	return "", false
}

// Revealed reports whether the original answer may be shown.
func (a Attempt) Revealed() bool {
	return a.State == StateRevealOriginal || a.State == StateTerminalFail
}
