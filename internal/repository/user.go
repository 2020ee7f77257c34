package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// UserRepository stores enrolled users keyed by enrollment number.
type UserRepository struct {
	pool PgxPool
}

func NewUserRepository(pool PgxPool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user. An existing enrollment fails with ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (enrollment, name, class, semester, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.Enrollment,
		user.Name,
		user.Class,
		user.Semester,
		user.ImagePath,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// Upsert creates the user or replaces the stored record for its enrollment.
// It reports whether a new row was inserted.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) (bool, error) {
	query := `
		INSERT INTO users (enrollment, name, class, semester, image_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (enrollment) DO UPDATE SET
			name = EXCLUDED.name,
			class = EXCLUDED.class,
			semester = EXCLUDED.semester,
			image_path = EXCLUDED.image_path,
			updated_at = NOW()
		RETURNING created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.pool.QueryRow(ctx, query,
		user.Enrollment,
		user.Name,
		user.Class,
		user.Semester,
		user.ImagePath,
	).Scan(&user.CreatedAt, &user.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert user: %w", err)
	}

	return inserted, nil
}

func (r *UserRepository) GetByEnrollment(ctx context.Context, enrollment string) (*domain.User, error) {
	query := `
		SELECT enrollment, name, class, semester, image_path, created_at, updated_at
		FROM users
		WHERE enrollment = $1
	`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, enrollment).Scan(
		&u.Enrollment,
		&u.Name,
		&u.Class,
		&u.Semester,
		&u.ImagePath,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by enrollment: %w", err)
	}

	return &u, nil
}

// List returns every user ordered by enrollment.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT enrollment, name, class, semester, image_path, created_at, updated_at
		FROM users
		ORDER BY enrollment
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(
			&u.Enrollment,
			&u.Name,
			&u.Class,
			&u.Semester,
			&u.ImagePath,
			&u.CreatedAt,
			&u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, enrollment string) error {
	query := `DELETE FROM users WHERE enrollment = $1`

	result, err := r.pool.Exec(ctx, query, enrollment)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}
