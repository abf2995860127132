package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *repo) GetProgress(ctx context.Context, userID int64) (*Progress, error) {
	t := r.b.Table(tableProgress)
	query, args := r.b.Select(t.C("user_id"), t.C("total_initial_answered"),
		t.C("total_checks_completed"), t.C("last_activity_date")).
		From(t).
		Where(entsql.EQ(t.C("user_id"), userID)).
		Query()

	var (
		p    Progress
		last sql.NullString
	)
	err := r.q.QueryRowContext(ctx, query, args...).
		Scan(&p.UserID, &p.TotalInitialAnswered, &p.TotalChecksCompleted, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if p.LastActivityDate, err = parseNullDay(last); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) ApplyProgress(ctx context.Context, userID int64, d ProgressDelta) error {
	ub := r.b.Update(tableProgress).Set("updated_at", millis(now()))
	if d.TotalInitialAnswered != 0 {
		ub.Add("total_initial_answered", d.TotalInitialAnswered)
	}
	if d.TotalChecksCompleted != 0 {
		ub.Add("total_checks_completed", d.TotalChecksCompleted)
	}
	if !d.LastActivityDate.IsZero() {
		ub.Set("last_activity_date", formatDay(d.LastActivityDate))
	}
	ub.Where(entsql.EQ("user_id", userID))

	if err := r.update(ctx, ub); err != nil {
		return fmt.Errorf("apply progress for user %d: %w", userID, err)
	}
	return nil
}
