package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableUsers     = "users"
	tableProgress  = "user_progress"
	tableQuestions = "questions"
	tableAnswers   = "answers"
	tableChecks    = "memory_checks"
	tableHints     = "hint_images"
	tableLLM       = "llm_requests"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// repo implements Repo with ent's SQL builders over a querier.
type repo struct {
	q querier
	b *entsql.DialectBuilder
}

func newRepo(q querier) *repo {
	return &repo{q: q, b: entsql.Dialect(dialect.SQLite)}
}

// now is the clock for created_at columns.
var now = time.Now

func (r *repo) insert(ctx context.Context, ib *entsql.InsertBuilder) (int64, error) {
	query, args := ib.Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// update runs ub and returns ErrNotFound when no row matched.
func (r *repo) update(ctx context.Context, ub *entsql.UpdateBuilder) error {
	query, args := ub.Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repo) count(ctx context.Context, sel *entsql.Selector) (int, error) {
	query, args := sel.Query()
	var n int
	if err := r.q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func formatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

func parseNullDay(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return parseDay(s.String)
}
