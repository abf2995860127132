package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func day(s string) time.Time {
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedUser(t *testing.T, r Repo) *User {
	t.Helper()
	u := &User{Name: "김영희", BirthDate: "1950-03-01", DiagnosisDate: day("2026-01-01")}
	if err := r.AddUser(context.Background(), u); err != nil {
		t.Fatalf("add user: %v", err)
	}
	return u
}

func seedQuestion(t *testing.T, r Repo, text string) *Question {
	t.Helper()
	q := &Question{Text: text}
	if err := r.AddQuestion(context.Background(), q); err != nil {
		t.Fatalf("add question: %v", err)
	}
	return q
}

func seedInitial(t *testing.T, r Repo, u *User, q *Question, on string, kw ...string) *Answer {
	t.Helper()
	a := &Answer{UserID: u.ID, QuestionID: q.ID, Text: "answer", Date: day(on), IsInitial: true, Keywords: kw}
	if err := r.AddAnswer(context.Background(), a); err != nil {
		t.Fatalf("add answer: %v", err)
	}
	return a
}

func seedCheck(t *testing.T, r Repo, u *User, q *Question, initial *Answer, result CheckResult, on string) *Check {
	t.Helper()
	c := &Check{
		UserID: u.ID, QuestionID: q.ID, InitialAnswerID: initial.ID,
		Step: StepInitialRecall, Confidence: Remembers, Result: result, Date: day(on),
	}
	if err := r.AddCheck(context.Background(), c); err != nil {
		t.Fatalf("add check: %v", err)
	}
	return c
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	v, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("SchemaVersion() = %d, want %d", v, len(migrations))
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	if err := migrate(s.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// journal_mode is left alone for in-memory databases.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestUserRoundTrip(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()

	u := seedUser(t, r)
	if u.ID == 0 {
		t.Fatal("expected user ID to be set")
	}

	got, err := r.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Name != u.Name || got.BirthDate != u.BirthDate {
		t.Errorf("GetUser = %+v, want %+v", got, u)
	}
	if !got.DiagnosisDate.Equal(day("2026-01-01")) {
		t.Errorf("DiagnosisDate = %v, want 2026-01-01", got.DiagnosisDate)
	}
	if got.Status != UserActive {
		t.Errorf("Status = %q, want %q", got.Status, UserActive)
	}

	found, err := r.FindUser(ctx, u.Name, u.BirthDate)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if found.ID != u.ID {
		t.Errorf("FindUser ID = %d, want %d", found.ID, u.ID)
	}

	p, err := r.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if p.TotalInitialAnswered != 0 || !p.LastActivityDate.IsZero() {
		t.Errorf("seeded progress = %+v, want zero", p)
	}

	if err := r.AddUser(ctx, &User{Name: u.Name, BirthDate: u.BirthDate, DiagnosisDate: u.DiagnosisDate}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate AddUser err = %v, want ErrDuplicate", err)
	}
}

func TestNotFound(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()

	if _, err := r.GetUser(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser err = %v, want ErrNotFound", err)
	}
	if _, err := r.GetQuestion(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetQuestion err = %v, want ErrNotFound", err)
	}
	if _, err := r.GetInitialAnswerWithKeywords(ctx, 1, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetInitialAnswerWithKeywords err = %v, want ErrNotFound", err)
	}
	if err := r.UpdateQuestionStatus(ctx, 99, QuestionArchived); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateQuestionStatus err = %v, want ErrNotFound", err)
	}
}

func TestInitialAnswerKeywords(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	u := seedUser(t, r)
	q := seedQuestion(t, r, "가장 기억에 남는 여행은?")

	seedInitial(t, r, u, q, "2026-01-02", "제주도", "가족")

	got, err := r.GetInitialAnswerWithKeywords(ctx, u.ID, q.ID)
	if err != nil {
		t.Fatalf("get initial answer: %v", err)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "제주도" {
		t.Errorf("Keywords = %v, want [제주도 가족]", got.Keywords)
	}

	recall := &Answer{UserID: u.ID, QuestionID: q.ID, Text: "recall", Date: day("2026-02-01"), Keywords: []string{"x"}}
	if err := r.AddAnswer(ctx, recall); err != nil {
		t.Fatalf("add recall answer: %v", err)
	}
	back, err := r.GetAnswer(ctx, recall.ID)
	if err != nil {
		t.Fatalf("get recall answer: %v", err)
	}
	if back.IsInitial || len(back.Keywords) != 0 {
		t.Errorf("recall answer = %+v, want non-initial without keywords", back)
	}
}

func TestOneInitialAnswerPerQuestion(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	u := seedUser(t, r)
	q := seedQuestion(t, r, "q")
	seedInitial(t, r, u, q, "2026-01-02")

	err := r.AddAnswer(context.Background(), &Answer{UserID: u.ID, QuestionID: q.ID, Text: "again", Date: day("2026-01-03"), IsInitial: true})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second initial answer err = %v, want ErrDuplicate", err)
	}
}

func TestAppendOnlyTables(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	u := seedUser(t, r)
	q := seedQuestion(t, r, "q")
	a := seedInitial(t, r, u, q, "2026-01-02")
	seedCheck(t, r, u, q, a, ResultPass, "2026-02-02")

	stmts := []string{
		"UPDATE answers SET answer_text = 'x'",
		"DELETE FROM answers",
		"UPDATE memory_checks SET result = 'fail'",
		"DELETE FROM memory_checks",
	}
	for _, stmt := range stmts {
		if _, err := s.DB().Exec(stmt); err == nil {
			t.Errorf("%q succeeded, want error", stmt)
		}
	}
}

func TestArchiveIsTerminal(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	q := seedQuestion(t, r, "q")

	if err := r.UpdateQuestionStatus(ctx, q.ID, QuestionArchived); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := r.UpdateQuestionStatus(ctx, q.ID, QuestionActive); err == nil {
		t.Fatal("reactivating an archived question succeeded, want error")
	}
	got, _ := r.GetQuestion(ctx, q.ID)
	if got.Status != QuestionArchived {
		t.Errorf("Status = %q, want archived", got.Status)
	}
}

func TestListUnansweredQuestions(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	u := seedUser(t, r)
	q1 := seedQuestion(t, r, "first")
	q2 := seedQuestion(t, r, "second")
	q3 := seedQuestion(t, r, "third")
	seedInitial(t, r, u, q1, "2026-01-02")
	if err := r.UpdateQuestionStatus(ctx, q2.ID, QuestionArchived); err != nil {
		t.Fatal(err)
	}

	got, err := r.ListUnansweredQuestions(ctx, u.ID, 0)
	if err != nil {
		t.Fatalf("list unanswered: %v", err)
	}
	if len(got) != 1 || got[0].ID != q3.ID {
		t.Errorf("unanswered = %v, want only question %d", got, q3.ID)
	}

	other := &User{Name: "박철수", BirthDate: "1948-07-07", DiagnosisDate: day("2026-01-01")}
	if err := r.AddUser(ctx, other); err != nil {
		t.Fatal(err)
	}
	got, err = r.ListUnansweredQuestions(ctx, other.ID, 1)
	if err != nil {
		t.Fatalf("list unanswered: %v", err)
	}
	if len(got) != 1 || got[0].ID != q1.ID {
		t.Errorf("unanswered for other user = %v, want oldest question %d", got, q1.ID)
	}
}

func TestTodayActivityCounts(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	u := seedUser(t, r)
	q1 := seedQuestion(t, r, "q1")
	q2 := seedQuestion(t, r, "q2")
	a1 := seedInitial(t, r, u, q1, "2026-03-01")
	seedInitial(t, r, u, q2, "2026-03-02")

	// Two checks on the same question on the same day count once.
	seedCheck(t, r, u, q1, a1, ResultPass, "2026-03-02")
	seedCheck(t, r, u, q1, a1, ResultFail, "2026-03-02")

	got, err := r.GetTodayActivityCounts(ctx, u.ID, day("2026-03-02"))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	want := ActivityCounts{NewAnswers: 1, MemoryChecks: 1}
	if got != want {
		t.Errorf("GetTodayActivityCounts = %+v, want %+v", got, want)
	}

	got, err = r.GetTodayActivityCounts(ctx, u.ID, day("2026-03-03"))
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if got != (ActivityCounts{}) {
		t.Errorf("GetTodayActivityCounts (empty day) = %+v, want zero", got)
	}
}

func TestGetQuestionsAnsweredByUser(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	u := seedUser(t, r)
	q1 := seedQuestion(t, r, "q1")
	q2 := seedQuestion(t, r, "q2")
	seedQuestion(t, r, "never answered")
	a2 := seedInitial(t, r, u, q2, "2026-01-02")
	seedInitial(t, r, u, q1, "2026-01-05")
	seedCheck(t, r, u, q2, a2, ResultPass, "2026-02-10")
	seedCheck(t, r, u, q2, a2, ResultPass, "2026-02-20")

	got, err := r.GetQuestionsAnsweredByUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("answered: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Question.ID != q2.ID {
		t.Errorf("first answered = %d, want %d (oldest answer first)", got[0].Question.ID, q2.ID)
	}
	if got[0].Checks != 2 || got[0].Passes != 2 || !got[0].Reusable() {
		t.Errorf("q2 history = %+v, want 2 checks, 2 passes", got[0])
	}
	if !got[0].LastCheckedOn.Equal(day("2026-02-20")) {
		t.Errorf("LastCheckedOn = %v, want 2026-02-20", got[0].LastCheckedOn)
	}
	if got[1].Checks != 0 || got[1].Reusable() {
		t.Errorf("q1 history = %+v, want never checked", got[1])
	}
}

func TestApplyProgress(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	u := seedUser(t, r)

	if err := r.ApplyProgress(ctx, u.ID, ProgressDelta{TotalInitialAnswered: 1, LastActivityDate: day("2026-01-02")}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := r.ApplyProgress(ctx, u.ID, ProgressDelta{TotalChecksCompleted: 1}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	p, err := r.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if p.TotalInitialAnswered != 1 || p.TotalChecksCompleted != 1 {
		t.Errorf("progress = %+v, want 1 answered, 1 check", p)
	}
	if !p.LastActivityDate.Equal(day("2026-01-02")) {
		t.Errorf("LastActivityDate = %v, want 2026-01-02", p.LastActivityDate)
	}

	if err := r.ApplyProgress(ctx, 999, ProgressDelta{TotalChecksCompleted: 1}); !errors.Is(err, ErrNotFound) {
		t.Errorf("ApplyProgress unknown user err = %v, want ErrNotFound", err)
	}
}

func TestRunInTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(r Repo) error {
		if err := r.AddQuestion(ctx, &Question{Text: "rolled back"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx err = %v, want boom", err)
	}

	qs, err := s.Repo().GetQuestions(ctx, QuestionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 0 {
		t.Errorf("questions after rollback = %d, want 0", len(qs))
	}
}

func TestHintImages(t *testing.T) {
	s := openTestStore(t)
	r := s.Repo()
	ctx := context.Background()
	u := seedUser(t, r)
	q := seedQuestion(t, r, "q")
	a := seedInitial(t, r, u, q, "2026-01-02")
	c := seedCheck(t, r, u, q, a, ResultFail, "2026-02-02")

	if err := r.AddHintImage(ctx, &HintImage{CheckID: c.ID, URL: "https://img/1.png", Prompt: "Make a photo about a."}); err != nil {
		t.Fatalf("add hint image: %v", err)
	}
	imgs, err := r.GetHintImages(ctx, c.ID)
	if err != nil {
		t.Fatalf("get hint images: %v", err)
	}
	if len(imgs) != 1 || imgs[0].URL != "https://img/1.png" {
		t.Errorf("hint images = %+v", imgs)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, purpose := range []string{"keywords", "other", "keywords"} {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock-model", Purpose: purpose,
			InputTokens: 10, OutputTokens: 5, Success: true,
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "keywords"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].ID < events[1].ID {
		t.Errorf("events not newest first: %d before %d", events[0].ID, events[1].ID)
	}

	e, err := repo.GetLLMEvent(ctx, events[0].ID)
	if err != nil || e == nil {
		t.Fatalf("get event: %v, %v", e, err)
	}
	if e.InputTokens != 10 || !e.Success {
		t.Errorf("event = %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 12345)
	if err != nil || missing != nil {
		t.Errorf("GetLLMEvent(missing) = %v, %v, want nil, nil", missing, err)
	}
}

func TestLLMUsage(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	rows := []LLMRequestEventData{
		{Provider: "mock", Model: "a", Purpose: "keywords", InputTokens: 10, OutputTokens: 5, LatencyMs: 100, Success: true},
		{Provider: "mock", Model: "b", Purpose: "keywords", InputTokens: 20, OutputTokens: 5, LatencyMs: 300, Success: true},
		{Provider: "mock", Model: "a", Purpose: "other", InputTokens: 1, OutputTokens: 1, LatencyMs: 50, Success: false},
	}
	for _, d := range rows {
		if err := repo.AppendLLMRequest(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("len = %d, want 2", len(byPurpose))
	}
	kw := byPurpose[0]
	if kw.Key != "keywords" || kw.Calls != 2 || kw.InputTokens != 30 || kw.OutputTokens != 10 || kw.AvgLatencyMs != 200 {
		t.Errorf("keywords usage = %+v", kw)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Key != "a" || byModel[0].Calls != 2 {
		t.Errorf("usage by model = %+v", byModel)
	}
}
