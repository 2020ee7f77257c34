package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/ws"
)

var receipt = domain.AttendanceReceipt{Message: domain.AttendanceMarkedMessage}

func newRecognition(t *testing.T) (*RecognitionService, *MockImageMatcher, *MockRecorder) {
	t.Helper()
	users := new(MockUserRepository)
	users.On("GetByEnrollment", mock.Anything, "2021001").Return(&domain.User{Enrollment: "2021001"}, nil)
	users.On("GetByEnrollment", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

	m := new(MockImageMatcher)
	rec := new(MockRecorder)
	return NewRecognitionService(users, session.NewRegistry(), m, rec), m, rec
}

func TestRecognitionService_Login(t *testing.T) {
	svc, _, _ := newRecognition(t)

	sess, err := svc.Login(context.Background(), "2021001", "Math")
	require.NoError(t, err)
	assert.Equal(t, "2021001", sess.StudentID)
	assert.Equal(t, "Math", sess.Subject)

	got, err := svc.Session(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
	assert.Len(t, svc.Sessions(), 1)

	_, err = svc.Login(context.Background(), "ghost", "Math")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = svc.Login(context.Background(), "2021001", " ")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}

func TestRecognitionService_Recognize(t *testing.T) {
	svc, m, rec := newRecognition(t)
	sess, err := svc.Login(context.Background(), "2021001", "Math")
	require.NoError(t, err)

	frame1, frame2, broken := []byte("one"), []byte("two"), []byte("broken")
	m.On("DetectAndMatch", mock.Anything, frame1).Return([]domain.MatchResult{
		{Identity: "alice", Distance: 0.3},
		{Identity: domain.Unknown, Distance: 0.9},
	}, nil)
	m.On("DetectAndMatch", mock.Anything, broken).Return(nil, domain.ErrInvalidImage)
	m.On("DetectAndMatch", mock.Anything, frame2).Return([]domain.MatchResult{
		{Identity: "alice", Distance: 0.35},
		{Identity: "bob", Distance: 0.4},
	}, nil)
	rec.On("MarkAttendance", mock.Anything, "alice", "Math").Return(receipt, nil).Once()
	rec.On("MarkAttendance", mock.Anything, "bob", "Math").Return(receipt, nil).Once()

	results, err := svc.Recognize(context.Background(), sess.ID, [][]byte{frame1, broken, frame2})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Len(t, results[0].Faces, 2)
	require.Len(t, results[0].Events, 1)
	assert.Equal(t, domain.Identity("alice"), results[0].Events[0].Identity)
	assert.True(t, results[0].Events[0].Marked)

	assert.NotEmpty(t, results[1].Error)
	assert.Empty(t, results[1].Faces)

	require.Len(t, results[2].Events, 1, "alice was already recorded")
	assert.Equal(t, domain.Identity("bob"), results[2].Events[0].Identity)

	assert.Equal(t, []domain.Identity{"alice", "bob"}, sess.Tracker.Recorded())
	rec.AssertExpectations(t)
}

func TestRecognitionService_Recognize_ProviderFailure(t *testing.T) {
	svc, m, _ := newRecognition(t)
	sess, err := svc.Login(context.Background(), "2021001", "Math")
	require.NoError(t, err)

	m.On("DetectAndMatch", mock.Anything, mock.Anything).Return(nil, domain.ErrProviderUnavailable)

	_, err = svc.Recognize(context.Background(), sess.ID, [][]byte{[]byte("x")})
	assert.True(t, errors.Is(err, domain.ErrProviderUnavailable))
}

func TestRecognitionService_Logout(t *testing.T) {
	svc, _, _ := newRecognition(t)
	sess, err := svc.Login(context.Background(), "2021001", "Math")
	require.NoError(t, err)
	sess.Tracker.Record("alice")

	require.NoError(t, svc.Logout(context.Background(), sess.ID))
	assert.Zero(t, sess.Tracker.Len(), "logout clears the record")

	_, err = svc.Recognize(context.Background(), sess.ID, nil)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Logout(context.Background(), sess.ID), domain.ErrSessionNotFound)
	assert.ErrorIs(t, svc.Logout(context.Background(), uuid.New()), domain.ErrSessionNotFound)
}

func TestRecognitionService_SessionsAreIndependent(t *testing.T) {
	svc, m, rec := newRecognition(t)
	math, err := svc.Login(context.Background(), "2021001", "Math")
	require.NoError(t, err)
	physics, err := svc.Login(context.Background(), "2021001", "Physics")
	require.NoError(t, err)

	m.On("DetectAndMatch", mock.Anything, mock.Anything).Return([]domain.MatchResult{{Identity: "alice"}}, nil)
	rec.On("MarkAttendance", mock.Anything, "alice", "Math").Return(receipt, nil).Once()
	rec.On("MarkAttendance", mock.Anything, "alice", "Physics").Return(receipt, nil).Once()

	for _, id := range []uuid.UUID{math.ID, physics.ID, math.ID} {
		_, err := svc.Recognize(context.Background(), id, [][]byte{[]byte("f")})
		require.NoError(t, err)
	}
	rec.AssertExpectations(t)
}

func TestRecognitionService_PublishesEvents(t *testing.T) {
	svc, m, rec := newRecognition(t)
	events := new(MockEventPublisher)
	svc.WithEventPublisher(events)

	sess, err := svc.Login(context.Background(), "2021001", "Math")
	require.NoError(t, err)

	m.On("DetectAndMatch", mock.Anything, mock.Anything).Return([]domain.MatchResult{
		{Identity: "alice", Distance: 0.2},
		{Identity: "bob", Distance: 0.4},
		{Identity: domain.Unknown, Distance: 0.8},
	}, nil)
	rec.On("MarkAttendance", mock.Anything, "alice", "Math").Return(receipt, nil)
	rec.On("MarkAttendance", mock.Anything, "bob", "Math").Return(domain.AttendanceReceipt{}, domain.ErrAttendanceUnavailable)

	isMark := func(id domain.Identity, marked bool) interface{} {
		return mock.MatchedBy(func(e attendance.Event) bool { return e.Identity == id && e.Marked == marked })
	}
	events.On("Publish", sess.ID, ws.EventFaceRecognized, mock.AnythingOfType("domain.MatchResult")).Twice()
	events.On("Publish", sess.ID, ws.EventAttendanceMarked, isMark("alice", true)).Once()
	events.On("Publish", sess.ID, ws.EventAttendanceFailed, isMark("bob", false)).Once()
	events.On("CloseSession", sess.ID).Once()

	_, err = svc.Recognize(context.Background(), sess.ID, [][]byte{[]byte("f")})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), sess.ID))
	events.AssertExpectations(t)
}
