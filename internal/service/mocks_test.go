package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/ws"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *domain.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByEnrollment(ctx context.Context, enrollment string) (*domain.User, error) {
	args := m.Called(ctx, enrollment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, enrollment string) error {
	args := m.Called(ctx, enrollment)
	return args.Error(0)
}

type MockGalleryWriter struct {
	mock.Mock
}

func (m *MockGalleryWriter) Embed(ctx context.Context, identity domain.Identity, image []byte) (domain.GalleryEntry, error) {
	args := m.Called(ctx, identity, image)
	return args.Get(0).(domain.GalleryEntry), args.Error(1)
}

func (m *MockGalleryWriter) Put(entry domain.GalleryEntry) error {
	args := m.Called(entry)
	return args.Error(0)
}

func (m *MockGalleryWriter) Remove(identity domain.Identity) bool {
	args := m.Called(identity)
	return args.Bool(0)
}

type MockFaceProvider struct {
	mock.Mock
}

func (m *MockFaceProvider) Name() string {
	return "gate"
}

func (m *MockFaceProvider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Create(ctx context.Context, rec *domain.AttendanceRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockAttendanceRepository) List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttendanceRecord), args.Error(1)
}

type MockImageMatcher struct {
	mock.Mock
}

func (m *MockImageMatcher) DetectAndMatch(ctx context.Context, frame []byte) ([]domain.MatchResult, error) {
	args := m.Called(ctx, frame)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchResult), args.Error(1)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) MarkAttendance(ctx context.Context, studentID, subject string) (domain.AttendanceReceipt, error) {
	args := m.Called(ctx, studentID, subject)
	return args.Get(0).(domain.AttendanceReceipt), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(sessionID uuid.UUID, eventType ws.EventType, data interface{}) {
	m.Called(sessionID, eventType, data)
}

func (m *MockEventPublisher) CloseSession(sessionID uuid.UUID) {
	m.Called(sessionID)
}

func pngPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
