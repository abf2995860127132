package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/memoir/internal/store"
)

// ActivityReader reads a participant's committed activity for a day.
type ActivityReader interface {
	GetTodayActivityCounts(ctx context.Context, userID int64, day time.Time) (store.ActivityCounts, error)
}

// Quota is a participant's daily activity measured against a Phase.
type Quota struct {
	Phase              Phase `json:"phase"`
	DaysSinceDiagnosis int   `json:"days_since_diagnosis"`
	NewToday           int   `json:"new_today"`
	ChecksToday        int   `json:"checks_today"`
}

// TodayActivity returns the number of initial answers and memory checks
// committed by userID on today. Counts are always read from r.
func TodayActivity(ctx context.Context, r ActivityReader, userID int64, today time.Time) (newAnswersToday, memoryChecksToday int, err error) {
	c, err := r.GetTodayActivityCounts(ctx, userID, store.Day(today))
	if err != nil {
		return 0, 0, fmt.Errorf("read today's activity: %w", err)
	}
	return c.NewAnswers, c.MemoryChecks, nil
}

// TodayQuota classifies u's phase for today and reads today's counts.
func (p Policy) TodayQuota(ctx context.Context, r ActivityReader, u *store.User, today time.Time) (Quota, error) {
	days := DaysSinceDiagnosis(u.DiagnosisDate, today)
	newToday, checksToday, err := TodayActivity(ctx, r, u.ID, today)
	if err != nil {
		return Quota{}, err
	}
	return Quota{
		Phase:              p.ClassifyPhase(days),
		DaysSinceDiagnosis: days,
		NewToday:           newToday,
		ChecksToday:        checksToday,
	}, nil
}

// IsNewQuestionQuotaExhausted reports whether no new question may be asked today.
func (q Quota) IsNewQuestionQuotaExhausted() bool {
	return q.NewToday >= q.Phase.MaxNewQuestionsPerDay
}

// IsMemoryCheckQuotaExhausted reports whether no memory check may run today.
func (q Quota) IsMemoryCheckQuotaExhausted() bool {
	return q.ChecksToday >= q.Phase.MaxMemoryChecksPerDay
}

// NewRemaining is the number of new questions still allowed today.
func (q Quota) NewRemaining() int {
	return max(q.Phase.MaxNewQuestionsPerDay-q.NewToday, 0)
}

// ChecksRemaining is the number of memory checks still allowed today.
func (q Quota) ChecksRemaining() int {
	return max(q.Phase.MaxMemoryChecksPerDay-q.ChecksToday, 0)
}
