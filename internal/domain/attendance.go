package domain

import (
	"time"

	"github.com/google/uuid"
)

const AttendanceMarkedMessage = "Attendance marked successfully!"

// AttendanceRecord is one persisted attendance mark.
type AttendanceRecord struct {
	ID        uuid.UUID `json:"id"`
	StudentID string    `json:"student_id"`
	Subject   string    `json:"subject"`
	MarkedAt  time.Time `json:"timestamp"`
}

// AttendanceReceipt is the collaborator's confirmation for a mark.
type AttendanceReceipt struct {
	Message string             `json:"message"`
	Records []AttendanceRecord `json:"attendance_records,omitempty"`
}

// AttendanceFilter narrows record listings. Zero values match everything.
type AttendanceFilter struct {
	StudentID string
	Subject   string
	Since     time.Time
	Limit     int
}
