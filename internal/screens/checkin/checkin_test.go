package checkin

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/router"
	"github.com/abhisek/memoir/internal/session"
	"github.com/abhisek/memoir/internal/store"
)

var today = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

var (
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
	esc   = tea.KeyPressMsg{Code: tea.KeyEscape}
)

type fixture struct {
	st  *store.Store
	svc *session.Service
	u   *store.User
}

func setup(t *testing.T, daysSinceDiagnosis int) *fixture {
	t.Helper()
	st, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	svc := session.New(st, session.Options{Now: func() time.Time { return today }})
	u, err := svc.GetOrCreateUser(context.Background(), "박철수", "1948-02-01", today.AddDate(0, 0, -daysSinceDiagnosis))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &fixture{st: st, svc: svc, u: u}
}

func (f *fixture) question(t *testing.T, text string) *store.Question {
	t.Helper()
	q := &store.Question{Text: text}
	if err := f.st.Repo().AddQuestion(context.Background(), q); err != nil {
		t.Fatalf("add question: %v", err)
	}
	return q
}

func (f *fixture) answered(t *testing.T, q *store.Question) {
	t.Helper()
	err := f.st.Repo().AddAnswer(context.Background(), &store.Answer{
		UserID: f.u.ID, QuestionID: q.ID, IsInitial: true,
		Text:     "가족과 제주도 해변에서 유채꽃을 보고 흑돼지를 먹어 행복했어요",
		Date:     today.AddDate(0, 0, -20),
		Keywords: []string{"제주도", "가족", "해변", "유채꽃", "흑돼지", "행복"},
	})
	if err != nil {
		t.Fatalf("add answer: %v", err)
	}
}

func (f *fixture) screen() *Screen {
	return New(f.svc, f.u.ID, func() time.Time { return today })
}

// run executes a command expected to call the service and feeds its
// message back into the screen.
func run(t *testing.T, s *Screen, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg := cmd()
	switch msg.(type) {
	case selectionMsg, answerSavedMsg, stepMsg:
	default:
		t.Fatalf("unexpected message %T", msg)
	}
	_, next := s.Update(msg)
	return next
}

func press(s *Screen, msg tea.Msg) tea.Cmd {
	_, cmd := s.Update(msg)
	return cmd
}

func TestNewQuestionFlow(t *testing.T) {
	f := setup(t, 5)
	q := f.question(t, "어릴 적 살던 동네는 어땠나요?")
	s := f.screen()

	run(t, s, s.Init())
	if s.stage != stageNewQuestion {
		t.Fatalf("stage = %v, want new question", s.stage)
	}
	if view := s.View(80, 24); !strings.Contains(view, q.Text) {
		t.Errorf("view should show the question, got:\n%s", view)
	}

	// Blank answers are not submitted.
	if cmd := press(s, enter); cmd != nil {
		t.Error("enter with empty input should do nothing")
	}

	s.input.SetValue("부산 영도 바닷가 마을")
	run(t, s, press(s, enter))
	if s.stage != stageSaved {
		t.Fatalf("stage = %v, want saved", s.stage)
	}

	run(t, s, press(s, enter))
	if s.stage != stageDone {
		t.Fatalf("stage = %v, want done after the only question", s.stage)
	}

	answer, err := f.st.Repo().GetInitialAnswerWithKeywords(context.Background(), f.u.ID, q.ID)
	if err != nil {
		t.Fatalf("initial answer not stored: %v", err)
	}
	if answer.Text != "부산 영도 바닷가 마을" {
		t.Errorf("answer text = %q", answer.Text)
	}
}

func TestMemoryCheckPassFlow(t *testing.T) {
	f := setup(t, 60)
	q := f.question(t, "가장 기억에 남는 여행은?")
	f.answered(t, q)
	s := f.screen()

	next := run(t, s, s.Init())
	run(t, s, next)
	if got := s.state(); got != recall.StateAwaitConfidence {
		t.Fatalf("state = %s, want %s", got, recall.StateAwaitConfidence)
	}
	view := s.View(80, 24)
	if !strings.Contains(view, q.Text) {
		t.Errorf("view should show the question")
	}
	if strings.Contains(view, "유채꽃") {
		t.Error("original answer must not be shown before reveal")
	}
	if !s.InterceptsBack() {
		t.Error("a check in progress should intercept Esc")
	}

	run(t, s, press(s, enter)) // "Yes, I remember"
	if got := s.state(); got != recall.StateAwaitFirstRecall {
		t.Fatalf("state = %s, want %s", got, recall.StateAwaitFirstRecall)
	}

	s.input.SetValue("제주도 해변에 가족이랑 갔어요")
	run(t, s, press(s, enter))
	if s.stage != stageVerdict {
		t.Fatalf("stage = %v, want verdict", s.stage)
	}
	if s.result.Verdict != store.ResultPass {
		t.Errorf("verdict = %s, want pass", s.result.Verdict)
	}
	if view := s.View(80, 24); !strings.Contains(view, "Well remembered") {
		t.Errorf("verdict view missing, got:\n%s", view)
	}
}

func TestMemoryCheckRevealFlow(t *testing.T) {
	f := setup(t, 60)
	q := f.question(t, "가장 기억에 남는 여행은?")
	f.answered(t, q)
	s := f.screen()

	run(t, s, run(t, s, s.Init()))

	press(s, tea.KeyPressMsg{Code: tea.KeyDown})
	run(t, s, press(s, enter)) // "No, I don't remember"
	if got := s.state(); got != recall.StateAwaitHintResponse {
		t.Fatalf("state = %s, want %s", got, recall.StateAwaitHintResponse)
	}
	if view := s.View(80, 24); !strings.Contains(view, "No picture") {
		t.Errorf("missing hint notice, got:\n%s", view)
	}

	press(s, tea.KeyPressMsg{Code: tea.KeyDown})
	run(t, s, press(s, enter)) // "I still don't remember"
	if got := s.state(); got != recall.StateRevealOriginal {
		t.Fatalf("state = %s, want %s", got, recall.StateRevealOriginal)
	}
	if view := s.View(80, 24); !strings.Contains(view, "유채꽃") {
		t.Errorf("original answer should be revealed, got:\n%s", view)
	}

	run(t, s, press(s, enter))
	if s.result.Verdict != store.ResultFail {
		t.Errorf("verdict = %s, want fail", s.result.Verdict)
	}

	stored, err := f.st.Repo().GetQuestion(context.Background(), q.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != store.QuestionArchived {
		t.Errorf("status = %s, want archived", stored.Status)
	}
}

func TestEscAbandonsCheck(t *testing.T) {
	f := setup(t, 60)
	q := f.question(t, "가장 기억에 남는 여행은?")
	f.answered(t, q)
	s := f.screen()

	run(t, s, run(t, s, s.Init()))

	cmd := press(s, esc)
	if cmd == nil {
		t.Fatal("esc should leave the screen")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Fatal("esc should pop the screen")
	}

	checks, err := f.st.Repo().ListChecks(context.Background(), f.u.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 0 {
		t.Errorf("abandoned check wrote %d records", len(checks))
	}
}

func TestNothingToDo(t *testing.T) {
	f := setup(t, 5)
	s := f.screen()

	run(t, s, s.Init())
	if s.stage != stageDone {
		t.Fatalf("stage = %v, want done", s.stage)
	}
	if view := s.View(80, 24); !strings.Contains(view, "all for today") {
		t.Errorf("unexpected view:\n%s", view)
	}
}

func TestEscIgnoredWhileBusy(t *testing.T) {
	f := setup(t, 60)
	q := f.question(t, "가장 기억에 남는 여행은?")
	f.answered(t, q)
	s := f.screen()

	run(t, s, run(t, s, s.Init()))
	if s.state() != recall.StateAwaitConfidence {
		t.Fatalf("state = %s, want AWAIT_CONFIDENCE", s.state())
	}

	// Pick "Yes, I remember" but hold the step until after esc.
	pending := press(s, enter)
	if pending == nil || !s.busy {
		t.Fatal("confirming a choice should start a step")
	}
	if cmd := press(s, esc); cmd != nil {
		t.Fatal("esc should be ignored while a step is running")
	}
	if s.result == nil {
		t.Fatal("esc while busy dropped the attempt")
	}

	run(t, s, pending)
	if s.state() != recall.StateAwaitFirstRecall {
		t.Errorf("state = %s, want AWAIT_FIRST_RECALL_TEXT", s.state())
	}
	if cmd := press(s, esc); cmd == nil {
		t.Fatal("esc should leave once the step is done")
	}
}
