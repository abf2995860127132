package session

import (
	"context"
	"time"

	"github.com/abhisek/memoir/internal/store"
)

// Stats summarizes a participant for reporting.
type Stats struct {
	User     store.User     `json:"user"`
	Phase    PhaseInfo      `json:"phase"`
	Progress store.Progress `json:"progress"`

	Answered int `json:"answered"`
	Active   int `json:"active"`
	Archived int `json:"archived"`
	Reusable int `json:"reusable"`
}

// GetStats reads the participant's totals and question lifecycle counts.
func (s *Service) GetStats(ctx context.Context, userID int64, today time.Time) (*Stats, error) {
	r := s.st.Repo()
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	q, err := s.policy.TodayQuota(ctx, r, u, today)
	if err != nil {
		return nil, err
	}
	p, err := r.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	answered, err := r.GetQuestionsAnsweredByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := &Stats{User: *u, Phase: phaseInfo(q), Progress: *p, Answered: len(answered)}
	for _, aq := range answered {
		if aq.Question.Status == store.QuestionArchived {
			st.Archived++
			continue
		}
		st.Active++
		if aq.Reusable() {
			st.Reusable++
		}
	}
	return st, nil
}
