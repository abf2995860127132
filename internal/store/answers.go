package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func answerColumns(t *entsql.SelectTable) []string {
	return []string{
		t.C("id"), t.C("user_id"), t.C("question_id"), t.C("answer_text"),
		t.C("answer_date"), t.C("is_initial"), t.C("keywords"), t.C("created_at"),
	}
}

func scanAnswer(sc scanner) (*Answer, error) {
	var (
		a        Answer
		day      string
		keywords sql.NullString
		created  int64
	)
	if err := sc.Scan(&a.ID, &a.UserID, &a.QuestionID, &a.Text, &day, &a.IsInitial, &keywords, &created); err != nil {
		return nil, err
	}
	d, err := parseDay(day)
	if err != nil {
		return nil, err
	}
	a.Date = d
	a.CreatedAt = fromMillis(created)
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &a.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords for answer %d: %w", a.ID, err)
		}
	}
	return &a, nil
}

// AddAnswer appends a. Keywords are stored only for initial answers.
func (r *repo) AddAnswer(ctx context.Context, a *Answer) error {
	var keywords any
	if a.IsInitial {
		kw := a.Keywords
		if kw == nil {
			kw = []string{}
		}
		b, err := json.Marshal(kw)
		if err != nil {
			return fmt.Errorf("encode keywords: %w", err)
		}
		keywords = string(b)
	} else {
		a.Keywords = nil
	}

	ts := now()
	id, err := r.insert(ctx, r.b.Insert(tableAnswers).
		Columns("user_id", "question_id", "answer_text", "answer_date", "is_initial", "keywords", "created_at").
		Values(a.UserID, a.QuestionID, a.Text, formatDay(a.Date), a.IsInitial, keywords, millis(ts)))
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	a.ID = id
	a.Date = Day(a.Date)
	a.CreatedAt = fromMillis(millis(ts))
	return nil
}

func (r *repo) GetAnswer(ctx context.Context, id int64) (*Answer, error) {
	t := r.b.Table(tableAnswers)
	query, args := r.b.Select(answerColumns(t)...).From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()
	a, err := scanAnswer(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("answer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get answer %d: %w", id, err)
	}
	return a, nil
}

func (r *repo) GetInitialAnswerWithKeywords(ctx context.Context, userID, questionID int64) (*Answer, error) {
	t := r.b.Table(tableAnswers)
	query, args := r.b.Select(answerColumns(t)...).From(t).
		Where(entsql.And(
			entsql.EQ(t.C("user_id"), userID),
			entsql.EQ(t.C("question_id"), questionID),
			entsql.EQ(t.C("is_initial"), true),
		)).
		Query()
	a, err := scanAnswer(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("initial answer for question %d: %w", questionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get initial answer: %w", err)
	}
	return a, nil
}
