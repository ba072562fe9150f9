package session

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists live sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DeactivateAndCreate retires every active session owned by the teacher and
// inserts the new one in a single transaction. Partial application is never
// observable: either all old sessions are closed and the new one exists, or
// nothing changed.
func (r *Repository) DeactivateAndCreate(ctx context.Context, s Session) (Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE live_sessions SET is_active = FALSE
		WHERE teacher_id = $1 AND is_active
	`, s.TeacherID); err != nil {
		return Session{}, err
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO live_sessions (id, teacher_id, institute_id, teacher_name, subject, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING created_at
	`, s.ID, s.TeacherID, s.InstituteID, s.TeacherName, s.Subject)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}

	if err := tx.Commit(); err != nil {
		return Session{}, err
	}
	s.IsActive = true
	return s, nil
}

// SetInactive flips the activity flag off. Zero rows affected means the
// session was already inactive or never existed; both are fine.
func (r *Repository) SetInactive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE live_sessions SET is_active = FALSE WHERE id = $1 AND is_active
	`, id)
	return err
}

const sessionCols = `id, teacher_id, institute_id, teacher_name, subject, is_active, created_at`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.TeacherID, &s.InstituteID, &s.TeacherName, &s.Subject, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetByID returns a session or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionCols+` FROM live_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// ActiveByTeacher returns the teacher's active session, newest first when
// the exclusivity invariant has somehow been violated upstream.
func (r *Repository) ActiveByTeacher(ctx context.Context, teacherID string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+` FROM live_sessions
		WHERE teacher_id = $1 AND is_active
		ORDER BY created_at DESC LIMIT 1
	`, teacherID)
	return scanSession(row)
}

// ActiveByInstitute returns the institute's active session, if any.
func (r *Repository) ActiveByInstitute(ctx context.Context, instituteID string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionCols+` FROM live_sessions
		WHERE institute_id = $1 AND is_active
		ORDER BY created_at DESC LIMIT 1
	`, instituteID)
	return scanSession(row)
}
