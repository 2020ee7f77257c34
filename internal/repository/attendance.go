package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// AttendanceRepository persists attendance marks.
type AttendanceRepository struct {
	pool PgxPool
}

func NewAttendanceRepository(pool PgxPool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Create stores rec with a server-side timestamp.
func (r *AttendanceRepository) Create(ctx context.Context, rec *domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (id, student_id, subject, marked_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING marked_at
	`

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	if err := r.pool.QueryRow(ctx, query, rec.ID, rec.StudentID, rec.Subject).Scan(&rec.MarkedAt); err != nil {
		return fmt.Errorf("create attendance record: %w", err)
	}
	return nil
}

// List returns matching records, oldest first. A positive Limit keeps the
// newest Limit records.
func (r *AttendanceRepository) List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	var (
		where []string
		args  []any
	)
	if f.StudentID != "" {
		args = append(args, f.StudentID)
		where = append(where, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		where = append(where, fmt.Sprintf("subject = $%d", len(args)))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where = append(where, fmt.Sprintf("marked_at >= $%d", len(args)))
	}

	const columns = "id, student_id, subject, marked_at"
	query := "SELECT " + columns + " FROM attendance_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query = fmt.Sprintf("SELECT %s FROM (%s ORDER BY marked_at DESC, id DESC LIMIT $%d) AS recent",
			columns, query, len(args))
	}
	query += " ORDER BY marked_at, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	defer rows.Close()

	records := make([]domain.AttendanceRecord, 0)
	for rows.Next() {
		var rec domain.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Subject, &rec.MarkedAt); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}

	return records, nil
}
