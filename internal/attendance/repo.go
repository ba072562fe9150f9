package attendance

import (
	"context"
	"database/sql"
)

// Repository persists attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes a record at its composite identity. A conflicting write is
// an identical overwrite: the original marked_at is preserved and no second
// row ever appears.
func (r *Repository) Upsert(ctx context.Context, rec Record) (Record, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, session_id, student_id, first_name, last_name, email, roll_no, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status
		RETURNING marked_at
	`, rec.ID, rec.SessionID, rec.StudentID, rec.FirstName, rec.LastName, rec.Email, rec.RollNo, rec.Status)
	if err := row.Scan(&rec.MarkedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

const recordCols = `id, session_id, student_id, first_name, last_name, email, roll_no, status, marked_at`

// ListBySession returns all records for one session, unordered; callers
// apply SortByRoll for the projection.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordCols+` FROM attendance_records WHERE session_id = $1
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListAll returns every record, for the full attendance sheet export.
func (r *Repository) ListAll(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ` + recordCols + ` FROM attendance_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// GetByID returns a record or nil when absent.
func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordCols+` FROM attendance_records WHERE id = $1`, id)
	var rec Record
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.FirstName, &rec.LastName,
		&rec.Email, &rec.RollNo, &rec.Status, &rec.MarkedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func collect(rows *sql.Rows) ([]Record, error) {
	var res []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.StudentID, &rec.FirstName, &rec.LastName,
			&rec.Email, &rec.RollNo, &rec.Status, &rec.MarkedAt); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
