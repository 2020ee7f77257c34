package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/ws"
)

type ImageMatcher interface {
	DetectAndMatch(ctx context.Context, frame []byte) ([]domain.MatchResult, error)
}

type UserGetter interface {
	GetByEnrollment(ctx context.Context, enrollment string) (*domain.User, error)
}

// EventPublisher receives live session events.
type EventPublisher interface {
	Publish(sessionID uuid.UUID, eventType ws.EventType, data interface{})
	CloseSession(sessionID uuid.UUID)
}

// ImageResult is the outcome for one uploaded image.
type ImageResult struct {
	Index  int                  `json:"index"`
	Faces  []domain.MatchResult `json:"faces"`
	Events []attendance.Event   `json:"attendance"`
	Error  string               `json:"error,omitempty"`
}

// RecognitionService runs recognition inside logged-in sessions. Each session
// has its own tracker and attendance workflow.
type RecognitionService struct {
	users    UserGetter
	registry *session.Registry
	matcher  ImageMatcher
	recorder attendance.Recorder
	audit    audit.Logger
	events   EventPublisher
	logger   *slog.Logger

	mu        sync.Mutex
	workflows map[uuid.UUID]*attendance.Workflow
}

func NewRecognitionService(users UserGetter, registry *session.Registry, m ImageMatcher, recorder attendance.Recorder) *RecognitionService {
	return &RecognitionService{
		users:     users,
		registry:  registry,
		matcher:   m,
		recorder:  recorder,
		logger:    slog.Default(),
		workflows: make(map[uuid.UUID]*attendance.Workflow),
	}
}

func (s *RecognitionService) WithAuditLogger(l audit.Logger) *RecognitionService {
	s.audit = l
	return s
}

func (s *RecognitionService) WithEventPublisher(p EventPublisher) *RecognitionService {
	s.events = p
	return s
}

func (s *RecognitionService) WithLogger(l *slog.Logger) *RecognitionService {
	s.logger = l.With("component", "recognition")
	return s
}

// Login opens a session for an enrolled student.
func (s *RecognitionService) Login(ctx context.Context, enrollment, subject string) (*session.Session, error) {
	user, err := s.users.GetByEnrollment(ctx, strings.TrimSpace(enrollment))
	if err != nil {
		return nil, err
	}

	sess, err := s.registry.Open(user.Enrollment, strings.TrimSpace(subject))
	if err != nil {
		return nil, err
	}

	wf := attendance.NewWorkflow(sess.Tracker, s.recorder, sess.Subject,
		attendance.WithSessionID(sess.ID.String()),
		attendance.WithAuditLogger(s.audit),
		attendance.WithLogger(s.logger),
	)

	s.mu.Lock()
	s.workflows[sess.ID] = wf
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session opened",
		slog.String("session_id", sess.ID.String()),
		slog.String("identity", sess.StudentID),
		slog.String("subject", sess.Subject),
	)
	return sess, nil
}

// Logout closes the session and clears its record.
func (s *RecognitionService) Logout(ctx context.Context, id uuid.UUID) error {
	if err := s.registry.Close(id); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.workflows, id)
	s.mu.Unlock()

	if s.events != nil {
		s.events.CloseSession(id)
	}

	s.logger.InfoContext(ctx, "session closed", slog.String("session_id", id.String()))
	return nil
}

func (s *RecognitionService) Session(id uuid.UUID) (*session.Session, error) {
	return s.registry.Get(id)
}

func (s *RecognitionService) Sessions() []*session.Session {
	return s.registry.List()
}

// Recognize matches every image and marks attendance for newly recognized
// identities. An undecodable image is reported in its result and does not
// stop the others.
func (s *RecognitionService) Recognize(ctx context.Context, id uuid.UUID, images [][]byte) ([]ImageResult, error) {
	wf, err := s.workflow(id)
	if err != nil {
		return nil, err
	}

	results := make([]ImageResult, 0, len(images))
	for i, img := range images {
		res := ImageResult{Index: i, Faces: []domain.MatchResult{}, Events: []attendance.Event{}}

		faces, err := s.matcher.DetectAndMatch(ctx, img)
		if err != nil {
			if !errors.Is(err, domain.ErrInvalidImage) {
				return nil, err
			}
			res.Error = err.Error()
			results = append(results, res)
			continue
		}

		res.Faces = faces
		if events := wf.Process(ctx, faces); len(events) > 0 {
			res.Events = events
		}
		s.publish(id, res)
		results = append(results, res)
	}
	return results, nil
}

func (s *RecognitionService) publish(id uuid.UUID, res ImageResult) {
	if s.events == nil {
		return
	}
	for _, f := range res.Faces {
		if f.Known() {
			s.events.Publish(id, ws.EventFaceRecognized, f)
		}
	}
	for _, e := range res.Events {
		if e.Marked {
			s.events.Publish(id, ws.EventAttendanceMarked, e)
		} else {
			s.events.Publish(id, ws.EventAttendanceFailed, e)
		}
	}
}

func (s *RecognitionService) workflow(id uuid.UUID) (*attendance.Workflow, error) {
	if _, err := s.registry.Get(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	wf, ok := s.workflows[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return wf, nil
}
