// Package session is the library boundary for one participant's daily
// check-in: phase and quota reads, question selection, initial answers and
// memory checks. Writes for a participant are serialized so a quota read
// and the write it guards cannot interleave with another request.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/abhisek/memoir/internal/keywords"
	"github.com/abhisek/memoir/internal/lifecycle"
	"github.com/abhisek/memoir/internal/recall"
	"github.com/abhisek/memoir/internal/schedule"
	"github.com/abhisek/memoir/internal/store"
)

var (
	// ErrQuotaExceeded is returned when a write would exceed today's quota.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrEmptyAnswer is returned for a blank initial answer.
	ErrEmptyAnswer = errors.New("answer text is empty")

	// ErrInactiveUser is returned when a completed or terminated
	// participant tries to record activity.
	ErrInactiveUser = errors.New("participant is not active")

	// ErrQuestionArchived is returned when a check is started on an
	// archived question. It matches store.ErrNotFound.
	ErrQuestionArchived = fmt.Errorf("question is archived: %w", store.ErrNotFound)
)

// Store is the persistence the service needs.
type Store interface {
	Repo() store.Repo
	RunInTx(ctx context.Context, fn func(store.Repo) error) error
}

// Options configures a Service. Zero values select defaults; a nil
// Extractor stores initial answers without keywords and a nil
// HintGenerator runs checks without hint images.
type Options struct {
	Policy    schedule.Policy
	Recall    recall.Config
	Extractor keywords.Extractor
	Hints     recall.HintGenerator
	Rand      *rand.Rand
	Now       func() time.Time
}

// Service implements the participant operations.
type Service struct {
	st        Store
	policy    schedule.Policy
	selector  *schedule.Selector
	machine   *recall.Machine
	extractor keywords.Extractor
	locks     *keyedMutex
	now       func() time.Time
}

// New creates a Service over st.
func New(st Store, opts Options) *Service {
	if opts.Policy == (schedule.Policy{}) {
		opts.Policy = schedule.DefaultPolicy()
	}
	if opts.Recall == (recall.Config{}) {
		opts.Recall = recall.DefaultConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		st:        st,
		policy:    opts.Policy,
		selector:  schedule.NewSelector(opts.Policy, opts.Rand),
		machine:   recall.NewMachine(opts.Recall, opts.Hints),
		extractor: opts.Extractor,
		locks:     newKeyedMutex(),
		now:       opts.Now,
	}
}

// PhaseInfo is a participant's program phase and today's quota usage.
type PhaseInfo struct {
	Phase              schedule.Phase `json:"phase"`
	DaysSinceDiagnosis int            `json:"days_since_diagnosis"`
	NewToday           int            `json:"new_today"`
	ChecksToday        int            `json:"checks_today"`
	NewRemaining       int            `json:"new_remaining"`
	ChecksRemaining    int            `json:"checks_remaining"`
}

func phaseInfo(q schedule.Quota) PhaseInfo {
	return PhaseInfo{
		Phase:              q.Phase,
		DaysSinceDiagnosis: q.DaysSinceDiagnosis,
		NewToday:           q.NewToday,
		ChecksToday:        q.ChecksToday,
		NewRemaining:       q.NewRemaining(),
		ChecksRemaining:    q.ChecksRemaining(),
	}
}

// GetOrCreateUser finds the participant by name and birth date, creating
// one with the given diagnosis date if none exists.
func (s *Service) GetOrCreateUser(ctx context.Context, name, birthDate string, diagnosis time.Time) (*store.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("participant name is required")
	}
	var u *store.User
	err := s.st.RunInTx(ctx, func(r store.Repo) error {
		found, err := r.FindUser(ctx, name, birthDate)
		if err == nil {
			u = found
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		u = &store.User{Name: name, BirthDate: birthDate, DiagnosisDate: store.Day(diagnosis)}
		return r.AddUser(ctx, u)
	})
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	return u, nil
}

// GetPhaseInfo reports the participant's phase and quota usage for today.
func (s *Service) GetPhaseInfo(ctx context.Context, userID int64, today time.Time) (PhaseInfo, error) {
	r := s.st.Repo()
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return PhaseInfo{}, err
	}
	q, err := s.policy.TodayQuota(ctx, r, u, today)
	if err != nil {
		return PhaseInfo{}, err
	}
	return phaseInfo(q), nil
}

// SelectNext picks what the participant should do next. An exhausted
// quota yields ModeNone, not an error.
func (s *Service) SelectNext(ctx context.Context, userID int64, today time.Time) (schedule.Selection, error) {
	r := s.st.Repo()
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return schedule.Selection{}, err
	}
	return s.selector.SelectNext(ctx, r, u, today)
}

// InitialResult is the outcome of SubmitInitialAnswer.
type InitialResult struct {
	Answer store.Answer `json:"answer"`

	// KeywordsErr describes why extraction degraded to no keywords.
	KeywordsErr string `json:"keywords_error,omitempty"`
}

// SubmitInitialAnswer records the participant's first answer to a
// question together with its extracted keywords.
func (s *Service) SubmitInitialAnswer(ctx context.Context, userID, questionID int64, text string, today time.Time) (*InitialResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyAnswer
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	r := s.st.Repo()
	u, err := s.activeUser(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	q, err := r.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.Status == store.QuestionArchived {
		return nil, ErrQuestionArchived
	}
	if err := s.checkNewQuota(ctx, r, u, today); err != nil {
		return nil, err
	}

	// Extraction runs outside the transaction: it may be slow and it logs
	// through the same database.
	res := &InitialResult{}
	kws := []string{}
	if s.extractor != nil {
		extracted, err := s.extractor.ExtractKeywords(ctx, text)
		if err != nil {
			res.KeywordsErr = err.Error()
		} else {
			kws = keywords.Normalize(extracted, keywords.MaxKeywordsPerAnswer)
		}
	}

	a := &store.Answer{
		UserID:     userID,
		QuestionID: questionID,
		Text:       text,
		Date:       today,
		IsInitial:  true,
		Keywords:   kws,
	}
	err = s.st.RunInTx(ctx, func(r store.Repo) error {
		if err := s.checkNewQuota(ctx, r, u, today); err != nil {
			return err
		}
		if err := r.AddAnswer(ctx, a); err != nil {
			return err
		}
		return r.ApplyProgress(ctx, userID, store.ProgressDelta{TotalInitialAnswered: 1, LastActivityDate: today})
	})
	if err != nil {
		return nil, fmt.Errorf("submit initial answer: %w", err)
	}
	res.Answer = *a
	return res, nil
}

// Result is the outcome of one memory-check action.
type Result struct {
	Attempt recall.Attempt `json:"attempt"`

	HintURL string `json:"hint_url,omitempty"`
	HintErr string `json:"hint_error,omitempty"`

	// OriginalAnswer is set once the attempt reveals it.
	OriginalAnswer string `json:"original_answer,omitempty"`

	// Verdict and Check are set when the action ended the attempt.
	Verdict store.CheckResult `json:"verdict,omitempty"`
	Check   *store.Check      `json:"check,omitempty"`
}

// StartCheck begins a memory check on a question the participant has
// answered. The returned attempt awaits a confidence response.
func (s *Service) StartCheck(ctx context.Context, userID, questionID int64) (*Result, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	r := s.st.Repo()
	u, err := s.activeUser(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	q, initial, err := s.anchor(ctx, r, userID, questionID)
	if err != nil {
		return nil, err
	}
	if err := s.checkMemoryQuota(ctx, r, u, s.now()); err != nil {
		return nil, err
	}
	a, err := s.machine.Begin(recall.NewAttempt(*q, *initial))
	if err != nil {
		return nil, err
	}
	return &Result{Attempt: a}, nil
}

// SubmitConfidence answers "do you remember?" or, after a hint, "do you
// remember now?".
func (s *Service) SubmitConfidence(ctx context.Context, a recall.Attempt, c store.Confidence) (*Result, error) {
	return s.step(ctx, a, func(a recall.Attempt) (recall.Attempt, error) {
		return s.machine.SubmitConfidence(ctx, a, c)
	})
}

// SubmitRecallText scores the participant's typed recall.
func (s *Service) SubmitRecallText(ctx context.Context, a recall.Attempt, text string) (*Result, error) {
	return s.step(ctx, a, func(a recall.Attempt) (recall.Attempt, error) {
		return s.machine.SubmitRecallText(ctx, a, text)
	})
}

// AcknowledgeReveal ends an attempt after the original answer was shown.
func (s *Service) AcknowledgeReveal(ctx context.Context, a recall.Attempt) (*Result, error) {
	return s.step(ctx, a, s.machine.AcknowledgeReveal)
}

// Abandon discards an unfinished attempt. Nothing is written.
func (s *Service) Abandon(ctx context.Context, a recall.Attempt) error {
	if a.State.Terminal() {
		return &recall.TransitionError{State: a.State, Action: "abandon"}
	}
	return nil
}

// step applies one machine action under the participant lock and
// commits the attempt if the action made it terminal.
func (s *Service) step(ctx context.Context, a recall.Attempt, act func(recall.Attempt) (recall.Attempt, error)) (*Result, error) {
	unlock := s.locks.Lock(a.UserID)
	defer unlock()

	// Keywords and the original answer always come from the store, never
	// from the caller's copy.
	q, initial, err := s.anchor(ctx, s.st.Repo(), a.UserID, a.QuestionID)
	if err != nil {
		return nil, err
	}
	a.InitialAnswerID = initial.ID
	a.QuestionText = q.Text
	a.OriginalAnswer = initial.Text
	a.Keywords = initial.Keywords

	next, err := act(a)
	if err != nil {
		return nil, err
	}

	res := &Result{Attempt: next, HintURL: next.HintURL, HintErr: next.HintError}
	if next.Revealed() {
		res.OriginalAnswer = next.OriginalAnswer
	}
	if !next.State.Terminal() {
		return res, nil
	}

	today := s.now()
	err = s.st.RunInTx(ctx, func(r store.Repo) error {
		u, err := r.GetUser(ctx, next.UserID)
		if err != nil {
			return err
		}
		if err := s.checkMemoryQuota(ctx, r, u, today); err != nil {
			return err
		}
		check, err := lifecycle.CommitTx(ctx, r, next, today)
		if err != nil {
			return err
		}
		res.Check = check
		res.Verdict = check.Result
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("commit memory check: %w", err)
	}
	return res, nil
}

// anchor loads the question and the participant's initial answer to it.
func (s *Service) anchor(ctx context.Context, r store.Repo, userID, questionID int64) (*store.Question, *store.Answer, error) {
	q, err := r.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, nil, err
	}
	if q.Status == store.QuestionArchived {
		return nil, nil, ErrQuestionArchived
	}
	initial, err := r.GetInitialAnswerWithKeywords(ctx, userID, questionID)
	if err != nil {
		return nil, nil, fmt.Errorf("initial answer for question %d: %w", questionID, err)
	}
	return q, initial, nil
}

func (s *Service) activeUser(ctx context.Context, r store.Repo, userID int64) (*store.User, error) {
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Status != store.UserActive {
		return nil, fmt.Errorf("user %d is %s: %w", u.ID, u.Status, ErrInactiveUser)
	}
	return u, nil
}

func (s *Service) checkNewQuota(ctx context.Context, r store.Repo, u *store.User, today time.Time) error {
	q, err := s.policy.TodayQuota(ctx, r, u, today)
	if err != nil {
		return err
	}
	if q.IsNewQuestionQuotaExhausted() {
		return fmt.Errorf("%d of %d new questions answered today: %w",
			q.NewToday, q.Phase.MaxNewQuestionsPerDay, ErrQuotaExceeded)
	}
	return nil
}

func (s *Service) checkMemoryQuota(ctx context.Context, r store.Repo, u *store.User, today time.Time) error {
	q, err := s.policy.TodayQuota(ctx, r, u, today)
	if err != nil {
		return err
	}
	if q.IsMemoryCheckQuotaExhausted() {
		return fmt.Errorf("%d of %d memory checks done today: %w",
			q.ChecksToday, q.Phase.MaxMemoryChecksPerDay, ErrQuotaExceeded)
	}
	return nil
}
