package schedule

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/abhisek/memoir/internal/store"
)

// fakeRepo is an in-memory SelectorRepo. Every call reads the current
// field values so tests can mutate them between calls.
type fakeRepo struct {
	counts     store.ActivityCounts
	unanswered []store.Question
	answered   []store.AnsweredQuestion
	reads      int
	err        error
}

func (f *fakeRepo) GetTodayActivityCounts(_ context.Context, _ int64, _ time.Time) (store.ActivityCounts, error) {
	f.reads++
	return f.counts, f.err
}

func (f *fakeRepo) ListUnansweredQuestions(_ context.Context, _ int64, limit int) ([]store.Question, error) {
	if limit > 0 && len(f.unanswered) > limit {
		return f.unanswered[:limit], nil
	}
	return f.unanswered, nil
}

func (f *fakeRepo) GetQuestionsAnsweredByUser(_ context.Context, _ int64) ([]store.AnsweredQuestion, error) {
	return f.answered, nil
}

var (
	diagnosed   = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	initialDay  = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	maintenance = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

func participant() *store.User {
	return &store.User{ID: 1, DiagnosisDate: diagnosed, Status: store.UserActive}
}

func question(id int64) store.Question {
	return store.Question{ID: id, Text: "q", Status: store.QuestionActive}
}

func answered(id int64, on time.Time, checks, passes int) store.AnsweredQuestion {
	return store.AnsweredQuestion{
		Question:        question(id),
		InitialAnswerID: id * 10,
		AnsweredOn:      store.Day(on),
		Checks:          checks,
		Passes:          passes,
	}
}

func TestSelectNextPrefersNewQuestion(t *testing.T) {
	repo := &fakeRepo{
		unanswered: []store.Question{question(3), question(4)},
		answered:   []store.AnsweredQuestion{answered(1, diagnosed, 1, 1)},
	}
	s := NewSelector(DefaultPolicy(), rand.New(rand.NewPCG(1, 2)))

	got, err := s.SelectNext(context.Background(), repo, participant(), maintenance)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeNewQuestion || got.Question.ID != 3 {
		t.Errorf("SelectNext = %s/%v, want new_question/3", got.Mode, got.Question)
	}
}

func TestSelectNextInitialPhaseNeverRevisits(t *testing.T) {
	repo := &fakeRepo{
		counts:   store.ActivityCounts{NewAnswers: 2},
		answered: []store.AnsweredQuestion{answered(1, diagnosed, 0, 0)},
	}
	s := NewSelector(DefaultPolicy(), nil)

	got, err := s.SelectNext(context.Background(), repo, participant(), initialDay)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeNone {
		t.Errorf("Mode = %s, want none", got.Mode)
	}
}

func TestSelectNextRevisitWhenNewQuotaMet(t *testing.T) {
	repo := &fakeRepo{
		counts:     store.ActivityCounts{NewAnswers: 1},
		unanswered: []store.Question{question(9)},
		answered: []store.AnsweredQuestion{
			answered(2, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 0, 0),
			answered(1, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), 0, 0),
		},
	}
	s := NewSelector(DefaultPolicy(), nil)

	got, err := s.SelectNext(context.Background(), repo, participant(), maintenance)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeRevisit || got.Question.ID != 1 {
		t.Errorf("SelectNext = %s/%v, want revisit of oldest-answered 1", got.Mode, got.Question)
	}
}

func TestSelectNextRevisitWhenNoneUnanswered(t *testing.T) {
	repo := &fakeRepo{answered: []store.AnsweredQuestion{answered(1, diagnosed, 0, 0)}}
	s := NewSelector(DefaultPolicy(), nil)

	got, err := s.SelectNext(context.Background(), repo, participant(), maintenance)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeRevisit {
		t.Errorf("Mode = %s, want revisit", got.Mode)
	}
}

func TestSelectNextPrefersReusable(t *testing.T) {
	repo := &fakeRepo{
		counts: store.ActivityCounts{NewAnswers: 1},
		answered: []store.AnsweredQuestion{
			answered(1, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), 0, 0),
			answered(2, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), 1, 1),
			answered(3, time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC), 2, 2),
		},
	}
	s := NewSelector(DefaultPolicy(), rand.New(rand.NewPCG(7, 7)))

	seen := map[int64]int{}
	for range 200 {
		got, err := s.SelectNext(context.Background(), repo, participant(), maintenance)
		if err != nil {
			t.Fatal(err)
		}
		if got.Mode != ModeRevisit {
			t.Fatalf("Mode = %s, want revisit", got.Mode)
		}
		seen[got.Question.ID]++
	}
	if seen[1] != 0 {
		t.Errorf("never-checked question chosen %d times while reusable ones exist", seen[1])
	}
	if seen[2] == 0 || seen[3] == 0 {
		t.Errorf("reusable picks = %v, want both 2 and 3 chosen", seen)
	}
}

func TestSelectNextQuotaMet(t *testing.T) {
	repo := &fakeRepo{
		counts:     store.ActivityCounts{NewAnswers: 1, MemoryChecks: 1},
		unanswered: []store.Question{question(5)},
		answered:   []store.AnsweredQuestion{answered(1, diagnosed, 1, 1)},
	}
	s := NewSelector(DefaultPolicy(), nil)

	got, err := s.SelectNext(context.Background(), repo, participant(), maintenance)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeNone || got.Question != nil {
		t.Errorf("SelectNext = %s/%v, want none", got.Mode, got.Question)
	}
}

func TestSelectNextSkipsArchivedAndTodays(t *testing.T) {
	archived := answered(1, diagnosed, 1, 1)
	archived.Question.Status = store.QuestionArchived
	answeredToday := answered(2, maintenance, 0, 0)
	checkedToday := answered(3, diagnosed, 1, 1)
	checkedToday.LastCheckedOn = store.Day(maintenance)

	repo := &fakeRepo{
		counts:   store.ActivityCounts{NewAnswers: 1},
		answered: []store.AnsweredQuestion{archived, answeredToday, checkedToday},
	}
	s := NewSelector(DefaultPolicy(), nil)

	got, err := s.SelectNext(context.Background(), repo, participant(), maintenance)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeNone {
		t.Errorf("SelectNext = %s/%v, want none", got.Mode, got.Question)
	}
}

func TestSelectNextInactiveParticipant(t *testing.T) {
	repo := &fakeRepo{unanswered: []store.Question{question(1)}}
	u := participant()
	u.Status = store.UserCompleted

	got, err := NewSelector(DefaultPolicy(), nil).SelectNext(context.Background(), repo, u, maintenance)
	if err != nil {
		t.Fatal(err)
	}
	if got.Mode != ModeNone {
		t.Errorf("Mode = %s, want none", got.Mode)
	}
}

func TestSelectNextReadsCountsFresh(t *testing.T) {
	repo := &fakeRepo{unanswered: []store.Question{question(1)}}
	s := NewSelector(DefaultPolicy(), nil)
	ctx := context.Background()

	first, _ := s.SelectNext(ctx, repo, participant(), maintenance)
	if first.Mode != ModeNewQuestion {
		t.Fatalf("first Mode = %s, want new_question", first.Mode)
	}

	repo.counts = store.ActivityCounts{NewAnswers: 1, MemoryChecks: 1}
	second, _ := s.SelectNext(ctx, repo, participant(), maintenance)
	if second.Mode != ModeNone {
		t.Errorf("second Mode = %s, want none after counts changed", second.Mode)
	}
	if repo.reads != 2 {
		t.Errorf("activity reads = %d, want 2", repo.reads)
	}
}

func TestSelectNextPropagatesReadError(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk gone")}
	_, err := NewSelector(DefaultPolicy(), nil).SelectNext(context.Background(), repo, participant(), maintenance)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestQuotaRemaining(t *testing.T) {
	q := Quota{Phase: DefaultPolicy().Maintenance, NewToday: 3, ChecksToday: 0}
	if q.NewRemaining() != 0 || !q.IsNewQuestionQuotaExhausted() {
		t.Errorf("NewRemaining = %d, exhausted = %v", q.NewRemaining(), q.IsNewQuestionQuotaExhausted())
	}
	if q.ChecksRemaining() != 1 || q.IsMemoryCheckQuotaExhausted() {
		t.Errorf("ChecksRemaining = %d, exhausted = %v", q.ChecksRemaining(), q.IsMemoryCheckQuotaExhausted())
	}
}
