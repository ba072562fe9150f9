package tasks

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists tasks and completions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const taskCols = `id, teacher_id, teacher_name, title, description, link, created_at`

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.TeacherID, &t.TeacherName, &t.Title, &t.Description, &t.Link, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// Create inserts a task.
func (r *Repository) Create(ctx context.Context, t Task) (Task, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO tasks (id, teacher_id, teacher_name, title, description, link)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, t.ID, t.TeacherID, t.TeacherName, t.Title, t.Description, t.Link)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Task{}, err
	}
	return t, nil
}

// ListAll returns every task, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskCols+` FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByTeacher returns one teacher's tasks, newest first.
func (r *Repository) ListByTeacher(ctx context.Context, teacherID string) ([]Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+taskCols+` FROM tasks WHERE teacher_id = $1 ORDER BY created_at DESC
	`, teacherID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]Task, error) {
	defer rows.Close()
	var res []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *t)
	}
	return res, rows.Err()
}

// Delete removes a task only when owned by teacherID. Reports whether a row
// was removed.
func (r *Repository) Delete(ctx context.Context, id, teacherID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Exists reports whether a task id is present.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Complete records that a student finished a task. Re-completing is a no-op.
func (r *Repository) Complete(ctx context.Context, taskID, studentID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_completions (task_id, student_id)
		VALUES ($1,$2)
		ON CONFLICT (task_id, student_id) DO NOTHING
	`, taskID, studentID)
	return err
}

// CompletedIDs returns the task ids a student has finished.
func (r *Repository) CompletedIDs(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT task_id FROM task_completions WHERE student_id = $1 ORDER BY completed_at
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
