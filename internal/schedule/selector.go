package schedule

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/abhisek/memoir/internal/store"
)

// Mode is the kind of activity chosen for a participant.
type Mode string

const (
	ModeNewQuestion Mode = "new_question"
	ModeRevisit     Mode = "revisit"
	ModeNone        Mode = "none"
)

// Selection is the result of SelectNext. Question is nil for ModeNone.
type Selection struct {
	Mode     Mode            `json:"mode"`
	Question *store.Question `json:"question,omitempty"`
	Quota    Quota           `json:"quota"`
}

// SelectorRepo is the store surface the selector reads.
type SelectorRepo interface {
	ActivityReader
	ListUnansweredQuestions(ctx context.Context, userID int64, limit int) ([]store.Question, error)
	GetQuestionsAnsweredByUser(ctx context.Context, userID int64) ([]store.AnsweredQuestion, error)
}

// Selector decides what a participant should do next.
type Selector struct {
	policy Policy
	rng    *rand.Rand
}

// NewSelector returns a Selector. A nil rng uses the global source.
func NewSelector(policy Policy, rng *rand.Rand) *Selector {
	return &Selector{policy: policy, rng: rng}
}

// Policy returns the selector's phase policy.
func (s *Selector) Policy() Policy {
	return s.policy
}

// SelectNext offers a new question while today's new-question quota
// allows and one exists, then a revisit while the memory-check quota
// allows, and otherwise ModeNone.
func (s *Selector) SelectNext(ctx context.Context, r SelectorRepo, u *store.User, today time.Time) (Selection, error) {
	quota, err := s.policy.TodayQuota(ctx, r, u, today)
	if err != nil {
		return Selection{}, err
	}
	sel := Selection{Mode: ModeNone, Quota: quota}
	if u.Status != store.UserActive {
		return sel, nil
	}

	if !quota.IsNewQuestionQuotaExhausted() {
		qs, err := r.ListUnansweredQuestions(ctx, u.ID, 1)
		if err != nil {
			return Selection{}, fmt.Errorf("select new question: %w", err)
		}
		if len(qs) > 0 {
			sel.Mode = ModeNewQuestion
			sel.Question = &qs[0]
			return sel, nil
		}
	}

	if !quota.IsMemoryCheckQuotaExhausted() {
		answered, err := r.GetQuestionsAnsweredByUser(ctx, u.ID)
		if err != nil {
			return Selection{}, fmt.Errorf("select revisit: %w", err)
		}
		if aq := s.pickRevisit(RevisitCandidates(answered, today)); aq != nil {
			q := aq.Question
			sel.Mode = ModeRevisit
			sel.Question = &q
		}
	}

	return sel, nil
}

// RevisitCandidates filters answered questions down to those eligible for
// a memory check on today: active, not first answered today and not
// already checked today.
func RevisitCandidates(answered []store.AnsweredQuestion, today time.Time) []store.AnsweredQuestion {
	d := store.Day(today)
	var out []store.AnsweredQuestion
	for _, aq := range answered {
		if aq.Question.Status != store.QuestionActive {
			continue
		}
		if aq.AnsweredOn.Equal(d) || aq.LastCheckedOn.Equal(d) {
			continue
		}
		out = append(out, aq)
	}
	return out
}

// pickRevisit chooses uniformly among reusable candidates, falling back
// to the oldest-answered never-checked one.
func (s *Selector) pickRevisit(candidates []store.AnsweredQuestion) *store.AnsweredQuestion {
	var reusable, fresh []store.AnsweredQuestion
	for _, aq := range candidates {
		switch {
		case aq.Reusable():
			reusable = append(reusable, aq)
		case aq.Checks == 0:
			fresh = append(fresh, aq)
		}
	}

	if len(reusable) > 0 {
		return &reusable[s.intN(len(reusable))]
	}
	if len(fresh) == 0 {
		return nil
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		if !fresh[i].AnsweredOn.Equal(fresh[j].AnsweredOn) {
			return fresh[i].AnsweredOn.Before(fresh[j].AnsweredOn)
		}
		return fresh[i].InitialAnswerID < fresh[j].InitialAnswerID
	})
	return &fresh[0]
}

func (s *Selector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	return s.rng.IntN(n)
}
