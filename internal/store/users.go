package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func userColumns(t *entsql.SelectTable) []string {
	return []string{
		t.C("id"), t.C("name"), t.C("birth_date"),
		t.C("diagnosis_date"), t.C("status"), t.C("created_at"),
	}
}

func scanUser(sc scanner) (*User, error) {
	var (
		u       User
		diag    string
		status  string
		created int64
	)
	if err := sc.Scan(&u.ID, &u.Name, &u.BirthDate, &diag, &status, &created); err != nil {
		return nil, err
	}
	d, err := parseDay(diag)
	if err != nil {
		return nil, err
	}
	u.DiagnosisDate = d
	u.Status = UserStatus(status)
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

func (r *repo) GetUser(ctx context.Context, id int64) (*User, error) {
	t := r.b.Table(tableUsers)
	query, args := r.b.Select(userColumns(t)...).From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()
	u, err := scanUser(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *repo) FindUser(ctx context.Context, name, birthDate string) (*User, error) {
	t := r.b.Table(tableUsers)
	query, args := r.b.Select(userColumns(t)...).From(t).
		Where(entsql.And(
			entsql.EQ(t.C("name"), name),
			entsql.EQ(t.C("birth_date"), birthDate),
		)).
		Query()
	u, err := scanUser(r.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (r *repo) AddUser(ctx context.Context, u *User) error {
	if u.Status == "" {
		u.Status = UserActive
	}
	ts := now()
	id, err := r.insert(ctx, r.b.Insert(tableUsers).
		Columns("name", "birth_date", "diagnosis_date", "status", "created_at").
		Values(u.Name, u.BirthDate, formatDay(u.DiagnosisDate), string(u.Status), millis(ts)))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	_, err = r.insert(ctx, r.b.Insert(tableProgress).
		Columns("user_id", "updated_at").
		Values(id, millis(ts)))
	if err != nil {
		return fmt.Errorf("seed progress: %w", err)
	}

	u.ID = id
	u.DiagnosisDate = Day(u.DiagnosisDate)
	u.CreatedAt = fromMillis(millis(ts))
	return nil
}

func (r *repo) ListUsers(ctx context.Context) ([]User, error) {
	t := r.b.Table(tableUsers)
	query, args := r.b.Select(userColumns(t)...).From(t).OrderBy(t.C("id")).Query()
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *repo) UpdateUserStatus(ctx context.Context, id int64, status UserStatus) error {
	err := r.update(ctx, r.b.Update(tableUsers).
		Set("status", string(status)).
		Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("update user %d status: %w", id, err)
	}
	return nil
}
