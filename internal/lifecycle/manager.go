// Package lifecycle commits finished memory checks and is the only code
// path that changes a question's status.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/store"
)

// ErrNotTerminal is returned when committing an attempt without a verdict.
var ErrNotTerminal = errors.New("attempt is not terminal")

// ErrArchived is returned when the attempt's question was archived after
// the attempt started.
var ErrArchived = errors.New("question is archived")

// TxRunner runs a function inside a store transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(store.Repo) error) error
}

// Manager commits attempts in their own transaction.
type Manager struct {
	tx TxRunner
}

// NewManager creates a Manager.
func NewManager(tx TxRunner) *Manager {
	return &Manager{tx: tx}
}

// Commit persists a terminal attempt atomically. See CommitTx.
func (m *Manager) Commit(ctx context.Context, a recall.Attempt, today time.Time) (*store.Check, error) {
	var check *store.Check
	err := m.tx.RunInTx(ctx, func(r store.Repo) error {
		c, err := CommitTx(ctx, r, a, today)
		check = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return check, nil
}

// CommitTx writes the recall answer, the single check record, the hint
// image if one was shown, and the progress delta, using r. A failed
// verdict archives the question. r should be transactional so nothing is
// partially written.
func CommitTx(ctx context.Context, r store.Repo, a recall.Attempt, today time.Time) (*store.Check, error) {
	result, ok := a.Result()
	if !ok {
		return nil, fmt.Errorf("commit attempt %s in state %s: %w", a.ID, a.State, ErrNotTerminal)
	}

	q, err := r.GetQuestion(ctx, a.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("commit attempt %s: %w", a.ID, err)
	}
	if q.Status == store.QuestionArchived {
		return nil, fmt.Errorf("commit attempt on question %d: %w", q.ID, ErrArchived)
	}

	recallAnswer := &store.Answer{
		UserID:     a.UserID,
		QuestionID: a.QuestionID,
		Text:       a.RecallText,
		Date:       today,
	}
	if err := r.AddAnswer(ctx, recallAnswer); err != nil {
		return nil, fmt.Errorf("save recall answer: %w", err)
	}

	confidence := a.Confidence
	if confidence == "" {
		confidence = store.Forgets
	}
	check := &store.Check{
		UserID:            a.UserID,
		QuestionID:        a.QuestionID,
		InitialAnswerID:   a.InitialAnswerID,
		RecallAnswerID:    recallAnswer.ID,
		Step:              a.Step,
		Confidence:        confidence,
		KeywordMatchCount: min(max(a.MatchCount, 0), len(a.Keywords)),
		HintProvided:      a.HintProvided,
		Result:            result,
		Date:              today,
	}
	if err := r.AddCheck(ctx, check); err != nil {
		return nil, fmt.Errorf("save check: %w", err)
	}

	if a.HintURL != "" {
		err := r.AddHintImage(ctx, &store.HintImage{CheckID: check.ID, URL: a.HintURL, Prompt: a.HintPrompt})
		if err != nil {
			return nil, fmt.Errorf("save hint image: %w", err)
		}
	}

	if result == store.ResultFail {
		if err := r.UpdateQuestionStatus(ctx, a.QuestionID, store.QuestionArchived); err != nil {
			return nil, fmt.Errorf("archive question: %w", err)
		}
	}

	delta := store.ProgressDelta{TotalChecksCompleted: 1, LastActivityDate: today}
	if err := r.ApplyProgress(ctx, a.UserID, delta); err != nil {
		return nil, err
	}

	return check, nil
}
