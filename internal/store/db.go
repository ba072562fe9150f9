package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults and ensures the schema exists.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(context.Background()); err != nil {
		return &DB{Client: db}, err
	}
	if err := migrate(db); err != nil {
		return &DB{Client: db}, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS institutes (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		admin_uid   TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS users (
		uid           TEXT PRIMARY KEY,
		email         TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		institute_id  TEXT NOT NULL DEFAULT '',
		first_name    TEXT NOT NULL DEFAULT '',
		last_name     TEXT NOT NULL DEFAULT '',
		roll_no       TEXT NOT NULL DEFAULT '',
		subject       TEXT NOT NULL DEFAULT '',
		qualification TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_users_institute ON users(institute_id);

	CREATE TABLE IF NOT EXISTS refresh_tokens (
		token      TEXT PRIMARY KEY,
		uid        TEXT NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked    BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS applications (
		id             TEXT PRIMARY KEY,
		institute_name TEXT NOT NULL,
		contact_name   TEXT NOT NULL,
		email          TEXT NOT NULL,
		phone          TEXT NOT NULL DEFAULT '',
		message        TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL DEFAULT 'pending',
		admin_uid      TEXT NOT NULL DEFAULT '',
		submitted_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_applications_email ON applications(email);

	CREATE TABLE IF NOT EXISTS live_sessions (
		id           TEXT PRIMARY KEY,
		teacher_id   TEXT NOT NULL,
		institute_id TEXT NOT NULL,
		teacher_name TEXT NOT NULL DEFAULT '',
		subject      TEXT NOT NULL DEFAULT '',
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_teacher_active ON live_sessions(teacher_id) WHERE is_active;
	CREATE INDEX IF NOT EXISTS idx_sessions_institute_active ON live_sessions(institute_id) WHERE is_active;

	CREATE TABLE IF NOT EXISTS attendance_records (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		email      TEXT NOT NULL DEFAULT '',
		roll_no    TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL DEFAULT 'Present',
		marked_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_attendance_session ON attendance_records(session_id);

	CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		teacher_id   TEXT NOT NULL,
		teacher_name TEXT NOT NULL DEFAULT '',
		title        TEXT NOT NULL,
		description  TEXT NOT NULL,
		link         TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_teacher ON tasks(teacher_id);

	CREATE TABLE IF NOT EXISTS task_completions (
		task_id      TEXT NOT NULL,
		student_id   TEXT NOT NULL,
		completed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (task_id, student_id)
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
