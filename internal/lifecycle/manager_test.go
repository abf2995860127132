package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/store"
)

var today = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixture struct {
	st      *store.Store
	user    *store.User
	q       *store.Question
	initial *store.Answer
}

func setup(t *testing.T) *fixture {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	r := st.Repo()
	u := &store.User{Name: "이순자", BirthDate: "1947-05-05", DiagnosisDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, r.AddUser(ctx, u))
	q := &store.Question{Text: "가장 기억에 남는 여행은?"}
	require.NoError(t, r.AddQuestion(ctx, q))
	a := &store.Answer{
		UserID: u.ID, QuestionID: q.ID, Text: "가족과 제주도에 갔어요", IsInitial: true,
		Date: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC), Keywords: []string{"제주도", "가족", "해변"},
	}
	require.NoError(t, r.AddAnswer(ctx, a))
	return &fixture{st: st, user: u, q: q, initial: a}
}

func (f *fixture) attempt(state recall.State) recall.Attempt {
	a := recall.NewAttempt(*f.q, *f.initial)
	a.State = state
	return a
}

func TestCommitPass(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.attempt(recall.StateTerminalPass)
	a.Confidence = store.Remembers
	a.RecallText = "제주도 해변에 가족이랑"
	a.MatchCount = 3

	check, err := NewManager(f.st).Commit(ctx, a, today)
	require.NoError(t, err)
	assert.Equal(t, store.ResultPass, check.Result)
	assert.Equal(t, store.StepInitialRecall, check.Step)
	assert.False(t, check.HintProvided)
	assert.NotZero(t, check.RecallAnswerID)

	r := f.st.Repo()
	q, err := r.GetQuestion(ctx, f.q.ID)
	require.NoError(t, err)
	assert.Equal(t, store.QuestionActive, q.Status)

	recallAnswer, err := r.GetAnswer(ctx, check.RecallAnswerID)
	require.NoError(t, err)
	assert.False(t, recallAnswer.IsInitial)
	assert.Equal(t, a.RecallText, recallAnswer.Text)

	p, err := r.GetProgress(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalChecksCompleted)
	assert.True(t, p.LastActivityDate.Equal(store.Day(today)))

	counts, err := r.GetTodayActivityCounts(ctx, f.user.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.MemoryChecks)
}

func TestCommitFailArchives(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.attempt(recall.StateTerminalFail)
	a.Step = store.StepPostHintRecall
	a.HintProvided = true
	a.HintURL = "https://img/hint.png"
	a.HintPrompt = "Make a photo about 제주도, 가족, 해변."
	a.Confidence = store.Forgets

	check, err := NewManager(f.st).Commit(ctx, a, today)
	require.NoError(t, err)
	assert.Equal(t, store.ResultFail, check.Result)
	assert.True(t, check.HintProvided)

	r := f.st.Repo()
	q, err := r.GetQuestion(ctx, f.q.ID)
	require.NoError(t, err)
	assert.Equal(t, store.QuestionArchived, q.Status)

	recallAnswer, err := r.GetAnswer(ctx, check.RecallAnswerID)
	require.NoError(t, err)
	assert.Equal(t, "", recallAnswer.Text)

	imgs, err := r.GetHintImages(ctx, check.ID)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, a.HintURL, imgs[0].URL)
	assert.Equal(t, a.HintPrompt, imgs[0].Prompt)
}

func TestCommitRejectsNonTerminal(t *testing.T) {
	f := setup(t)
	_, err := NewManager(f.st).Commit(context.Background(), f.attempt(recall.StateRevealOriginal), today)
	require.ErrorIs(t, err, ErrNotTerminal)

	checks, err := f.st.Repo().ListChecks(context.Background(), f.user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, checks)
}

func TestCommitOnArchivedQuestionWritesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	m := NewManager(f.st)

	_, err := m.Commit(ctx, f.attempt(recall.StateTerminalFail), today)
	require.NoError(t, err)

	_, err = m.Commit(ctx, f.attempt(recall.StateTerminalPass), today)
	require.ErrorIs(t, err, ErrArchived)

	checks, err := f.st.Repo().ListChecks(ctx, f.user.ID, 0)
	require.NoError(t, err)
	assert.Len(t, checks, 1)
}

func TestCommitClampsMatchCount(t *testing.T) {
	f := setup(t)
	a := f.attempt(recall.StateTerminalPass)
	a.MatchCount = 99

	check, err := NewManager(f.st).Commit(context.Background(), a, today)
	require.NoError(t, err)
	assert.Equal(t, len(f.initial.Keywords), check.KeywordMatchCount)
}
