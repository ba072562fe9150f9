package apps

import (
	"context"
	"database/sql"
	"errors"
)

// Repository persists applications in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const appCols = `id, institute_name, contact_name, email, phone, message, status, admin_uid, submitted_at`

func scanApp(row interface{ Scan(...any) error }) (*Application, error) {
	var a Application
	err := row.Scan(&a.ID, &a.InstituteName, &a.ContactName, &a.Email, &a.Phone,
		&a.Message, &a.Status, &a.AdminUID, &a.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// Create inserts a new application.
func (r *Repository) Create(ctx context.Context, a Application) (Application, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO applications (id, institute_name, contact_name, email, phone, message, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING submitted_at
	`, a.ID, a.InstituteName, a.ContactName, a.Email, a.Phone, a.Message, a.Status)
	if err := row.Scan(&a.SubmittedAt); err != nil {
		return Application{}, err
	}
	return a, nil
}

// List returns all applications, newest first.
func (r *Repository) List(ctx context.Context) ([]Application, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+appCols+` FROM applications ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Application
	for rows.Next() {
		a, err := scanApp(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	return res, rows.Err()
}

// GetByID returns an application or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+appCols+` FROM applications WHERE id = $1`, id)
	return scanApp(row)
}

// LatestByEmail returns the most recent application for an email, or nil.
func (r *Repository) LatestByEmail(ctx context.Context, email string) (*Application, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+appCols+` FROM applications WHERE email = $1 ORDER BY submitted_at DESC LIMIT 1
	`, email)
	return scanApp(row)
}

// Decide moves a pending application to a final status. Reports false when
// the application was not pending (or does not exist), in which case
// nothing changed.
func (r *Repository) Decide(ctx context.Context, id, status, adminUID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE applications SET status = $2, admin_uid = $3
		WHERE id = $1 AND status = 'pending'
	`, id, status, adminUID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
