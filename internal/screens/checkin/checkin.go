// Package checkin is the screen that walks a participant through today's
// questions: new memories first, then memory checks on earlier ones.
package checkin

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/memoir/internal/ui/components"
	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/router"
	"github.com/abhisek/memoir/internal/schedule"
	"github.com/abhisek/memoir/internal/screen"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
	"github.com/abhisek/memoir/internal/ui/layout"
)

// Service is the part of session.Service the check-in drives.
type Service interface {
	SelectNext(ctx context.Context, userID int64, today time.Time) (schedule.Selection, error)
	SubmitInitialAnswer(ctx context.Context, userID, questionID int64, text string, today time.Time) (*session.InitialResult, error)
	StartCheck(ctx context.Context, userID, questionID int64) (*session.Result, error)
	SubmitConfidence(ctx context.Context, a recall.Attempt, c store.Confidence) (*session.Result, error)
	SubmitRecallText(ctx context.Context, a recall.Attempt, text string) (*session.Result, error)
	AcknowledgeReveal(ctx context.Context, a recall.Attempt) (*session.Result, error)
	Abandon(ctx context.Context, a recall.Attempt) error
}

type stage int

const (
	stageLoading stage = iota
	stageDone          // nothing left today
	stageNewQuestion
	stageSaved
	stageCheck
	stageVerdict
)

// Screen implements screen.Screen for a daily check-in.
type Screen struct {
	svc    Service
	userID int64
	now    func() time.Time

	stage     stage
	selection schedule.Selection
	result    *session.Result
	busy      bool
	errMsg    string

	input  components.TextInput
	choice components.Menu
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.BackInterceptor = (*Screen)(nil)

// New creates a check-in screen. A nil now uses time.Now.
func New(svc Service, userID int64, now func() time.Time) *Screen {
	if now == nil {
		now = time.Now
	}
	return &Screen{svc: svc, userID: userID, now: now}
}

func (s *Screen) Init() tea.Cmd {
	return s.loadNext()
}

func (s *Screen) Title() string {
	if s.stage == stageCheck || s.stage == stageVerdict {
		return "Memory check"
	}
	return "Today's question"
}

// InterceptsBack reports whether Esc should abandon a check in progress
// rather than leave right away.
func (s *Screen) InterceptsBack() bool {
	return s.stage == stageCheck && s.result != nil
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.stage == stageNewQuestion, s.stage == stageCheck && s.awaitingText():
		return []layout.KeyHint{{Key: "Enter", Description: "Submit"}, {Key: "Esc", Description: "Leave"}}
	case s.stage == stageCheck && s.awaitingChoice():
		return []layout.KeyHint{{Key: "↑↓", Description: "Choose"}, {Key: "Enter", Description: "Confirm"}, {Key: "Esc", Description: "Leave"}}
	case s.stage == stageSaved, s.stage == stageVerdict, s.stage == stageCheck:
		return []layout.KeyHint{{Key: "Enter", Description: "Continue"}, {Key: "Esc", Description: "Home"}}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Home"}}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case selectionMsg:
		return s.handleSelection(msg)
	case answerSavedMsg:
		return s.handleSaved(msg)
	case stepMsg:
		return s.handleStep(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.awaitingText() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) state() recall.State {
	if s.result == nil {
		return ""
	}
	return s.result.Attempt.State
}

func (s *Screen) awaitingText() bool {
	if s.stage == stageNewQuestion {
		return true
	}
	st := s.state()
	return s.stage == stageCheck && (st == recall.StateAwaitFirstRecall || st == recall.StateAwaitSecondRecall)
}

func (s *Screen) awaitingChoice() bool {
	st := s.state()
	return st == recall.StateAwaitConfidence || st == recall.StateAwaitHintResponse
}

func (s *Screen) loadNext() tea.Cmd {
	s.stage = stageLoading
	s.result = nil
	svc, userID, today := s.svc, s.userID, store.Day(s.now())
	return func() tea.Msg {
		sel, err := svc.SelectNext(context.Background(), userID, today)
		return selectionMsg{Selection: sel, Err: err}
	}
}

func (s *Screen) handleSelection(msg selectionMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.selection = msg.Selection
	switch msg.Selection.Mode {
	case schedule.ModeNewQuestion:
		s.stage = stageNewQuestion
		s.input = components.NewTextInput("Tell us about it...", 500, 60)
		return s, s.input.Init()
	case schedule.ModeRevisit:
		s.busy = true
		svc, userID, qID := s.svc, s.userID, msg.Selection.Question.ID
		return s, func() tea.Msg {
			res, err := svc.StartCheck(context.Background(), userID, qID)
			return stepMsg{Result: res, Err: err}
		}
	}
	s.stage = stageDone
	return s, nil
}

func (s *Screen) handleSaved(msg answerSavedMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		if errors.Is(msg.Err, session.ErrEmptyAnswer) {
			return s, nil
		}
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.stage = stageSaved
	return s, nil
}

func (s *Screen) handleStep(msg stepMsg) (screen.Screen, tea.Cmd) {
	s.busy = false
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.result = msg.Result
	s.stage = stageCheck

	switch s.state() {
	case recall.StateAwaitConfidence:
		s.choice = components.NewMenu([]components.MenuItem{
			{Label: "Yes, I remember", Hint: "You'll tell me what you remember next.", Action: s.confidence(store.Remembers)},
			{Label: "No, I don't remember", Hint: "I'll show you a picture to help.", Action: s.confidence(store.Forgets)},
		})
	case recall.StateAwaitHintResponse:
		s.choice = components.NewMenu([]components.MenuItem{
			{Label: "I remember now", Action: s.confidence(store.Remembers)},
			{Label: "I still don't remember", Action: s.confidence(store.Forgets)},
		})
	case recall.StateAwaitFirstRecall, recall.StateAwaitSecondRecall:
		s.input = components.NewTextInput("What do you remember?", 500, 60)
		return s, s.input.Init()
	case recall.StateTerminalPass, recall.StateTerminalFail:
		s.stage = stageVerdict
	}
	return s, nil
}

func (s *Screen) confidence(c store.Confidence) func() tea.Cmd {
	return func() tea.Cmd {
		return s.act(func(ctx context.Context, a recall.Attempt) (*session.Result, error) {
			return s.svc.SubmitConfidence(ctx, a, c)
		})
	}
}

// act runs one memory-check action in the background.
func (s *Screen) act(fn func(context.Context, recall.Attempt) (*session.Result, error)) tea.Cmd {
	if s.result == nil || s.busy {
		return nil
	}
	s.busy = true
	a := s.result.Attempt
	return func() tea.Msg {
		res, err := fn(context.Background(), a)
		return stepMsg{Result: res, Err: err}
	}
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, pop
	}
	if key == "esc" {
		return s, s.leave()
	}
	if s.busy {
		return s, nil
	}

	switch s.stage {
	case stageNewQuestion:
		if key == "enter" {
			return s, s.submitAnswer()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case stageSaved, stageVerdict:
		if key == "enter" {
			return s, s.loadNext()
		}

	case stageDone:
		if key == "enter" {
			return s, pop
		}

	case stageCheck:
		switch {
		case s.awaitingChoice():
			var cmd tea.Cmd
			s.choice, cmd = s.choice.Update(msg)
			return s, cmd
		case s.awaitingText():
			if key == "enter" {
				text := s.input.Value()
				if text == "" {
					return s, nil
				}
				return s, s.act(func(ctx context.Context, a recall.Attempt) (*session.Result, error) {
					return s.svc.SubmitRecallText(ctx, a, text)
				})
			}
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		case s.state() == recall.StateRevealOriginal:
			if key == "enter" {
				return s, s.act(s.svc.AcknowledgeReveal)
			}
		}
	}
	return s, nil
}

func (s *Screen) submitAnswer() tea.Cmd {
	text := s.input.Value()
	if text == "" || s.selection.Question == nil {
		return nil
	}
	s.busy = true
	svc, userID, qID, today := s.svc, s.userID, s.selection.Question.ID, store.Day(s.now())
	return func() tea.Msg {
		res, err := svc.SubmitInitialAnswer(context.Background(), userID, qID, text, today)
		return answerSavedMsg{Result: res, Err: err}
	}
}

// leave abandons an unfinished check and returns home. Nothing is saved
// for an abandoned check. It is a no-op while a request is in flight, so
// a step cannot commit after the screen has gone.
func (s *Screen) leave() tea.Cmd {
	if s.busy {
		return nil
	}
	if s.stage == stageCheck && s.result != nil && !s.state().Terminal() {
		if err := s.svc.Abandon(context.Background(), s.result.Attempt); err != nil {
			s.errMsg = err.Error()
			return nil
		}
		s.result = nil
	}
	return pop
}

func pop() tea.Msg { return router.PopScreenMsg{} }
