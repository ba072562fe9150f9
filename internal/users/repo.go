package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository persists users, institutes and refresh tokens in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userCols = `uid, email, password_hash, role, institute_id, first_name, last_name, roll_no, subject, qualification, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var role string
	err := row.Scan(&u.UID, &u.Email, &u.PasswordHash, &role, &u.InstituteID,
		&u.FirstName, &u.LastName, &u.RollNo, &u.Subject, &u.Qualification, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = ParseRole(role)
	return &u, nil
}

// Create inserts a profile. Returns ErrEmailTaken when the email is in use.
func (r *Repository) Create(ctx context.Context, u User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (uid, email, password_hash, role, institute_id, first_name, last_name, roll_no, subject, qualification)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (email) DO NOTHING
	`, u.UID, u.Email, u.PasswordHash, string(u.Role), u.InstituteID,
		u.FirstName, u.LastName, u.RollNo, u.Subject, u.Qualification)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEmailTaken
	}
	return nil
}

// GetByUID returns a profile or nil when absent.
func (r *Repository) GetByUID(ctx context.Context, uid string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE uid = $1`, uid)
	return scanUser(row)
}

// GetByEmail returns a profile or nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// ListByInstitute returns all profiles of one tenant.
func (r *Repository) ListByInstitute(ctx context.Context, instituteID string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userCols+` FROM users WHERE institute_id = $1 ORDER BY created_at`, instituteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// CreateInstitute inserts a tenant record.
func (r *Repository) CreateInstitute(ctx context.Context, inst Institute) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO institutes (id, name, admin_uid)
		VALUES ($1, $2, $3)
	`, inst.ID, inst.Name, inst.AdminUID)
	return err
}

// GetInstitute returns a tenant or nil when absent.
func (r *Repository) GetInstitute(ctx context.Context, id string) (*Institute, error) {
	var inst Institute
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, admin_uid, created_at FROM institutes WHERE id = $1
	`, id).Scan(&inst.ID, &inst.Name, &inst.AdminUID, &inst.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// SaveRefreshToken stores a refresh token for rotation checks.
func (r *Repository) SaveRefreshToken(ctx context.Context, uid, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (token, uid, expires_at)
		VALUES ($1, $2, $3)
	`, token, uid, expiresAt)
	return err
}

// RevokeRefreshToken marks a token revoked. Revoking an unknown token is a no-op.
func (r *Repository) RevokeRefreshToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, token)
	return err
}

// RefreshTokenValid reports whether a stored token is usable.
func (r *Repository) RefreshTokenValid(ctx context.Context, token string) (bool, error) {
	var revoked bool
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT revoked, expires_at FROM refresh_tokens WHERE token = $1
	`, token).Scan(&revoked, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !revoked && time.Now().Before(expiresAt), nil
}
