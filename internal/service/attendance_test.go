package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

func TestAttendanceService_MarkAttendance(t *testing.T) {
	repo := new(MockAttendanceRepository)
	markedAt := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	history := []domain.AttendanceRecord{
		{ID: uuid.New(), StudentID: "2021001", Subject: "Math", MarkedAt: markedAt.Add(-24 * time.Hour)},
		{ID: uuid.New(), StudentID: "2021001", Subject: "Math", MarkedAt: markedAt},
	}

	repo.On("Create", mock.Anything, mock.MatchedBy(func(r *domain.AttendanceRecord) bool {
		return r.StudentID == "2021001" && r.Subject == "Math"
	})).Return(nil).Once()
	repo.On("List", mock.Anything, domain.AttendanceFilter{StudentID: "2021001", Subject: "Math", Limit: HistoryLimit}).
		Return(history, nil).Once()

	receipt, err := NewAttendanceService(repo).MarkAttendance(context.Background(), " 2021001", "Math ")
	require.NoError(t, err)
	assert.Equal(t, domain.AttendanceMarkedMessage, receipt.Message)
	assert.Equal(t, history, receipt.Records)
	repo.AssertExpectations(t)
}

func TestAttendanceService_MarkAttendance_MissingFields(t *testing.T) {
	tests := []struct {
		name      string
		studentID string
		subject   string
	}{
		{"no student", "", "Math"},
		{"no subject", "2021001", ""},
		{"blank", "  ", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockAttendanceRepository)

			_, err := NewAttendanceService(repo).MarkAttendance(context.Background(), tt.studentID, tt.subject)

			require.Error(t, err)
			var appErr *domain.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, 400, appErr.StatusCode)
			assert.Equal(t, "Missing student_id or subject", appErr.Message)
			assert.True(t, errors.Is(err, domain.ErrValidationFailed))
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAttendanceService_MarkAttendance_HistoryFailureKeepsMark(t *testing.T) {
	repo := new(MockAttendanceRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	repo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	receipt, err := NewAttendanceService(repo).MarkAttendance(context.Background(), "2021001", "Math")
	require.NoError(t, err)
	require.Len(t, receipt.Records, 1)
	assert.Equal(t, "2021001", receipt.Records[0].StudentID)
}

func TestAttendanceService_MarkAttendance_StoreFailure(t *testing.T) {
	repo := new(MockAttendanceRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	_, err := NewAttendanceService(repo).MarkAttendance(context.Background(), "2021001", "Math")
	assert.EqualError(t, err, "connection refused")
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAttendanceService_List_ClampsLimit(t *testing.T) {
	repo := new(MockAttendanceRepository)
	repo.On("List", mock.Anything, domain.AttendanceFilter{Subject: "Math", Limit: 1000}).
		Return([]domain.AttendanceRecord{}, nil).Twice()

	svc := NewAttendanceService(repo)
	_, err := svc.List(context.Background(), domain.AttendanceFilter{Subject: "Math"})
	require.NoError(t, err)
	_, err = svc.List(context.Background(), domain.AttendanceFilter{Subject: "Math", Limit: 5000})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
