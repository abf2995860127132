package store

import (
	"database/sql"
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "users and progress",
		SQL: `
CREATE TABLE users (
    id             INTEGER PRIMARY KEY,
    name           TEXT NOT NULL,
    birth_date     TEXT NOT NULL,
    diagnosis_date TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'terminated')),
    created_at     INTEGER NOT NULL,
    UNIQUE (name, birth_date)
);

CREATE TABLE user_progress (
    user_id                INTEGER PRIMARY KEY,
    total_initial_answered INTEGER NOT NULL DEFAULT 0,
    total_checks_completed INTEGER NOT NULL DEFAULT 0,
    last_activity_date     TEXT,
    updated_at             INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);
`,
	},
	{
		Version:     2,
		Description: "questions and answers",
		SQL: `
CREATE TABLE questions (
    id         INTEGER PRIMARY KEY,
    text       TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
    created_at INTEGER NOT NULL
);

CREATE TRIGGER questions_archive_is_terminal
BEFORE UPDATE OF status ON questions
WHEN OLD.status = 'archived' AND NEW.status <> 'archived'
BEGIN
    SELECT RAISE(ABORT, 'archived question cannot be reactivated');
END;

CREATE TABLE answers (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL,
    question_id INTEGER NOT NULL,
    answer_text TEXT NOT NULL,
    answer_date TEXT NOT NULL,
    is_initial  INTEGER NOT NULL DEFAULT 0,
    keywords    TEXT,
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id),
    FOREIGN KEY (question_id) REFERENCES questions(id)
);

CREATE UNIQUE INDEX idx_answers_one_initial ON answers(user_id, question_id) WHERE is_initial = 1;
CREATE INDEX idx_answers_user_date ON answers(user_id, answer_date);

CREATE TRIGGER answers_no_update BEFORE UPDATE ON answers
BEGIN
    SELECT RAISE(ABORT, 'answers are append-only');
END;

CREATE TRIGGER answers_no_delete BEFORE DELETE ON answers
BEGIN
    SELECT RAISE(ABORT, 'answers are append-only');
END;
`,
	},
	{
		Version:     3,
		Description: "memory checks and hint images",
		SQL: `
CREATE TABLE memory_checks (
    id                  INTEGER PRIMARY KEY,
    user_id             INTEGER NOT NULL,
    question_id         INTEGER NOT NULL,
    initial_answer_id   INTEGER NOT NULL,
    recall_answer_id    INTEGER,
    step                TEXT NOT NULL CHECK (step IN ('initial_recall', 'post_hint_recall')),
    confidence          TEXT NOT NULL CHECK (confidence IN ('remembers', 'forgets')),
    keyword_match_count INTEGER NOT NULL CHECK (keyword_match_count >= 0),
    hint_provided       INTEGER NOT NULL DEFAULT 0,
    result              TEXT NOT NULL CHECK (result IN ('pass', 'fail')),
    check_date          TEXT NOT NULL,
    created_at          INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id),
    FOREIGN KEY (question_id) REFERENCES questions(id),
    FOREIGN KEY (initial_answer_id) REFERENCES answers(id),
    FOREIGN KEY (recall_answer_id) REFERENCES answers(id)
);

CREATE INDEX idx_checks_user_date ON memory_checks(user_id, check_date);
CREATE INDEX idx_checks_question  ON memory_checks(question_id);

CREATE TRIGGER memory_checks_no_update BEFORE UPDATE ON memory_checks
BEGIN
    SELECT RAISE(ABORT, 'memory checks are immutable');
END;

CREATE TRIGGER memory_checks_no_delete BEFORE DELETE ON memory_checks
BEGIN
    SELECT RAISE(ABORT, 'memory checks are immutable');
END;

CREATE TABLE hint_images (
    id         INTEGER PRIMARY KEY,
    check_id   INTEGER NOT NULL,
    image_url  TEXT NOT NULL,
    prompt     TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (check_id) REFERENCES memory_checks(id)
);
`,
	},
	{
		Version:     4,
		Description: "llm request log",
		SQL: `
CREATE TABLE llm_requests (
    id            INTEGER PRIMARY KEY,
    provider      TEXT NOT NULL,
    model         TEXT NOT NULL,
    purpose       TEXT NOT NULL DEFAULT '',
    input_tokens  INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    latency_ms    INTEGER NOT NULL DEFAULT 0,
    success       INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    request_body  TEXT NOT NULL DEFAULT '',
    response_body TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL
);

CREATE INDEX idx_llm_requests_purpose ON llm_requests(purpose);
`,
	},
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	var v sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_versions").Scan(&v); err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return int(v.Int64), nil
}
