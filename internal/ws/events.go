package ws

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventFaceRecognized   EventType = "face.recognized"
	EventAttendanceMarked EventType = "attendance.marked"
	EventAttendanceFailed EventType = "attendance.failed"
	EventSessionClosed    EventType = "session.closed"
)

type Event struct {
	SessionID uuid.UUID   `json:"session_id"`
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
