package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func questionColumns(t *entsql.SelectTable) []string {
	return []string{t.C("id"), t.C("text"), t.C("status"), t.C("created_at")}
}

func scanQuestion(sc scanner) (*Question, error) {
	var (
		q       Question
		status  string
		created int64
	)
	if err := sc.Scan(&q.ID, &q.Text, &status, &created); err != nil {
		return nil, err
	}
	q.Status = QuestionStatus(status)
	q.CreatedAt = fromMillis(created)
	return &q, nil
}

func (r *repo) queryQuestions(ctx context.Context, sel *entsql.Selector) ([]Question, error) {
	query, args := sel.Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *repo) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	t := r.b.Table(tableQuestions)
	query, args := r.b.Select(questionColumns(t)...).From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()
	q, err := scanQuestion(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return q, nil
}

func (r *repo) GetQuestions(ctx context.Context, f QuestionFilter) ([]Question, error) {
	t := r.b.Table(tableQuestions)
	sel := r.b.Select(questionColumns(t)...).From(t).OrderBy(t.C("id"))
	if f.Status != "" {
		sel.Where(entsql.EQ(t.C("status"), string(f.Status)))
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	qs, err := r.queryQuestions(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	return qs, nil
}

func (r *repo) AddQuestion(ctx context.Context, q *Question) error {
	if q.Status == "" {
		q.Status = QuestionActive
	}
	ts := now()
	id, err := r.insert(ctx, r.b.Insert(tableQuestions).
		Columns("text", "status", "created_at").
		Values(q.Text, string(q.Status), millis(ts)))
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	q.ID = id
	q.CreatedAt = fromMillis(millis(ts))
	return nil
}

func (r *repo) UpdateQuestionStatus(ctx context.Context, id int64, status QuestionStatus) error {
	err := r.update(ctx, r.b.Update(tableQuestions).
		Set("status", string(status)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update question %d status: %w", id, err)
	}
	return nil
}

func (r *repo) ListUnansweredQuestions(ctx context.Context, userID int64, limit int) ([]Question, error) {
	q := r.b.Table(tableQuestions)
	a := r.b.Table(tableAnswers)
	answered := r.b.Select(a.C("id")).From(a).
		Where(entsql.And(
			entsql.ColumnsEQ(a.C("question_id"), q.C("id")),
			entsql.EQ(a.C("user_id"), userID),
			entsql.EQ(a.C("is_initial"), true),
		))

	sel := r.b.Select(questionColumns(q)...).From(q).
		Where(entsql.And(
			entsql.EQ(q.C("status"), string(QuestionActive)),
			entsql.NotExists(answered),
		)).
		OrderBy(q.C("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	qs, err := r.queryQuestions(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("list unanswered questions: %w", err)
	}
	return qs, nil
}
