package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Session is one logged-in attendance session: a student marking attendance
// for a subject.
type Session struct {
	ID        uuid.UUID
	StudentID string
	Subject   string
	StartedAt time.Time
	Tracker   *Tracker
}

// Registry keeps the open sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		now:      time.Now,
	}
}

// Open starts a session with an empty tracker.
func (r *Registry) Open(studentID, subject string) (*Session, error) {
	if studentID == "" || subject == "" {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("student id and subject are required"))
	}

	s := &Session{
		ID:        uuid.New(),
		StudentID: studentID,
		Subject:   subject,
		StartedAt: r.now().UTC(),
		Tracker:   NewTracker(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Close ends the session and clears its record.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Tracker.Reset()
	return nil
}

// List returns open sessions, oldest first.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
