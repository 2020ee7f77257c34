package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

var userColumns = []string{"enrollment", "name", "class", "semester", "image_path", "created_at", "updated_at"}

func sampleUser() *domain.User {
	return &domain.User{
		Enrollment: "2021001",
		Name:       "Alice Souza",
		Class:      "CSE-A",
		Semester:   "5",
		ImagePath:  "images/2021001.jpg",
	}
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful insert",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("2021001", "Alice Souza", "CSE-A", "5", "images/2021001.jpg").
					WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			},
		},
		{
			name: "duplicate enrollment",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("2021001", "Alice Souza", "CSE-A", "5", "images/2021001.jpg").
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			wantErr: domain.ErrUserExists,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("2021001", "Alice Souza", "CSE-A", "5", "images/2021001.jpg").
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("create user: connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			u := sampleUser()
			err = NewUserRepository(mock).Create(context.Background(), u)

			switch {
			case tt.wantErr == nil:
				require.NoError(t, err)
				assert.Equal(t, now, u.CreatedAt)
			case errors.Is(tt.wantErr, domain.ErrUserExists):
				assert.ErrorIs(t, err, domain.ErrUserExists)
			default:
				assert.EqualError(t, err, tt.wantErr.Error())
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Upsert(t *testing.T) {
	now := time.Now()

	for _, inserted := range []bool{true, false} {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)

		mock.ExpectQuery(`INSERT INTO users .* ON CONFLICT \(enrollment\) DO UPDATE`).
			WithArgs("2021001", "Alice Souza", "CSE-A", "5", "images/2021001.jpg").
			WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at", "inserted"}).AddRow(now, now, inserted))

		got, err := NewUserRepository(mock).Upsert(context.Background(), sampleUser())
		require.NoError(t, err)
		assert.Equal(t, inserted, got)
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	}
}

func TestUserRepository_GetByEnrollment(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT enrollment, name, class, semester, image_path, created_at, updated_at FROM users WHERE enrollment = \$1`).
			WithArgs("2021001").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow("2021001", "Alice Souza", "CSE-A", "5", "images/2021001.jpg", now, now))

		u, err := NewUserRepository(mock).GetByEnrollment(context.Background(), "2021001")
		require.NoError(t, err)
		assert.Equal(t, "Alice Souza", u.Name)
		assert.Equal(t, domain.Identity("2021001"), u.Identity())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users WHERE enrollment = \$1`).
			WithArgs("404").
			WillReturnError(pgx.ErrNoRows)

		_, err = NewUserRepository(mock).GetByEnrollment(context.Background(), "404")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestUserRepository_List(t *testing.T) {
	now := time.Now()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM users ORDER BY enrollment`).
		WillReturnRows(pgxmock.NewRows(userColumns).
			AddRow("2021001", "Alice Souza", "CSE-A", "5", "images/2021001.jpg", now, now).
			AddRow("2021002", "Bruno Lima", "CSE-A", "5", "images/2021002.jpg", now, now))

	users, err := NewUserRepository(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "2021002", users[1].Enrollment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM users WHERE enrollment = \$1`).
		WithArgs("2021001").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE enrollment = \$1`).
		WithArgs("404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewUserRepository(mock)
	require.NoError(t, repo.Delete(context.Background(), "2021001"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "404"), domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
