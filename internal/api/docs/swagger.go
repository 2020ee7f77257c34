package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// UserResponse represents an enrolled student
type UserResponse struct {
	Enrollment string `json:"enrollment" example:"2021001"`
	Name       string `json:"name" example:"Alice Souza"`
	Class      string `json:"class" example:"CS-A"`
	Semester   string `json:"semester" example:"5"`
	CreatedAt  string `json:"created_at" example:"2024-01-01T00:00:00Z"`
	UpdatedAt  string `json:"updated_at" example:"2024-01-01T00:00:00Z"`
}

// UserListResponse represents the list of enrolled students
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total" example:"1"`
}

// LoginRequest opens an attendance session
type LoginRequest struct {
	Enrollment string `json:"enrollment" example:"2021001"`
	Subject    string `json:"subject" example:"Mathematics"`
}

// SessionResponse represents an open attendance session
type SessionResponse struct {
	ID         string   `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Enrollment string   `json:"enrollment" example:"2021001"`
	Subject    string   `json:"subject" example:"Mathematics"`
	StartedAt  string   `json:"started_at" example:"2024-01-01T09:00:00Z"`
	Recognized []string `json:"recognized" example:"2021001"`
}

// SessionEvent is one websocket message of the session event stream. Data
// holds a face match for face.recognized and an attendance event otherwise.
type SessionEvent struct {
	SessionID string    `json:"session_id" example:"5b1f0f53-6b8e-4a8e-9a55-2f1b7f6f0c11"`
	Type      string    `json:"type" example:"face.recognized"`
	Data      FaceMatch `json:"data"`
	Timestamp string    `json:"timestamp" example:"2026-03-02T09:30:00Z"`
}

// SessionListResponse lists open sessions
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// BoxData is a face bounding box in original frame pixels
type BoxData struct {
	X      int `json:"x" example:"120"`
	Y      int `json:"y" example:"80"`
	Width  int `json:"width" example:"96"`
	Height int `json:"height" example:"96"`
}

// DetectionData is one located face
type DetectionData struct {
	Box        BoxData `json:"box"`
	Confidence float64 `json:"confidence,omitempty" example:"0.99"`
}

// FaceMatch is the match result for one face; distance is -1 for an empty gallery
type FaceMatch struct {
	Identity  string        `json:"identity" example:"2021001"`
	Distance  float64       `json:"distance" example:"0.41"`
	Detection DetectionData `json:"detection"`
}

// AttendanceEvent reports a newly recognized identity
type AttendanceEvent struct {
	Identity string `json:"identity" example:"2021001"`
	Subject  string `json:"subject" example:"Mathematics"`
	Marked   bool   `json:"marked" example:"true"`
	Message  string `json:"message,omitempty" example:"Attendance marked successfully!"`
	Error    string `json:"error,omitempty" example:""`
}

// ImageResult is the outcome for one uploaded image
type ImageResult struct {
	Index      int               `json:"index" example:"0"`
	Faces      []FaceMatch       `json:"faces"`
	Attendance []AttendanceEvent `json:"attendance"`
	Error      string            `json:"error,omitempty" example:""`
}

// RecognizeResponse represents the recognition results of a request
type RecognizeResponse struct {
	SessionID string        `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Results   []ImageResult `json:"results"`
}

// MarkAttendanceRequest is the attendance collaborator request
type MarkAttendanceRequest struct {
	StudentID string `json:"student_id" example:"2021001"`
	Subject   string `json:"subject" example:"Mathematics"`
}

// AttendanceRecord is one persisted mark
type AttendanceRecord struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	StudentID string `json:"student_id" example:"2021001"`
	Subject   string `json:"subject" example:"Mathematics"`
	Timestamp string `json:"timestamp" example:"2024-01-01T09:05:00Z"`
}

// MarkAttendanceResponse is the attendance collaborator receipt
type MarkAttendanceResponse struct {
	Message string             `json:"message" example:"Attendance marked successfully!"`
	Records []AttendanceRecord `json:"attendance_records"`
}

// MarkAttendanceError keeps the flat error body of the collaborator
type MarkAttendanceError struct {
	Error string `json:"error" example:"Missing student_id or subject"`
}

// AttendanceListResponse represents a record listing
type AttendanceListResponse struct {
	Records []AttendanceRecord `json:"attendance_records"`
	Total   int                `json:"total" example:"1"`
}

// SlotData is one timetable slot
type SlotData struct {
	Time    string `json:"time" example:"09:00 - 10:00"`
	Subject string `json:"subject" example:"Mathematics"`
	Teacher string `json:"teacher,omitempty" example:"Dr. Rao"`
}

// DayResponse lists the slots of one day
type DayResponse struct {
	Day   string     `json:"day" example:"Monday"`
	Slots []SlotData `json:"slots"`
}

// TimetableResponse is the full week with its day names and subjects
type TimetableResponse struct {
	Timetable []DayResponse `json:"timetable"`
	Days      []string      `json:"days" example:"Monday"`
	Subjects  []string      `json:"subjects" example:"Mathematics"`
}

// GalleryResponse describes the in-memory gallery
type GalleryResponse struct {
	Size       int      `json:"size" example:"42"`
	Dimension  int      `json:"dimension" example:"128"`
	BuiltAt    string   `json:"built_at,omitempty" example:"2024-01-01T08:00:00Z"`
	Identities []string `json:"identities" example:"2021001"`
}

// SkipData is a reference image left out of the gallery
type SkipData struct {
	Identity string `json:"identity" example:"2021007"`
	Name     string `json:"name" example:"2021007.jpg"`
	Reason   string `json:"reason" example:"no face detected"`
}

// RebuildResponse is the gallery build report
type RebuildResponse struct {
	Found     int        `json:"found" example:"43"`
	Loaded    int        `json:"loaded" example:"42"`
	CacheHits int        `json:"cache_hits" example:"40"`
	Skipped   []SkipData `json:"skipped,omitempty"`
	Duration  int64      `json:"duration" example:"1500000000"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var internalError = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "SmartMark Attendance API",
		Version:     "v1.0.0",
		Description: "Face recognition attendance: student enrollment, attendance sessions and the attendance collaborator endpoint",
		Host:        "localhost:3000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		// Users

		endpoint.New(
			endpoint.POST,
			"/v1/users",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Enroll a student"),
			endpoint.WithDescription("Stores the student record and reference photo (fields enrollment, name, class, semester and file image). Re-enrolling an id replaces the photo and the gallery entry."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserResponse{}, "201", "Student enrolled"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Image could not be decoded"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in image"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "MULTIPLE_FACES", Message: "Multiple faces detected"}, "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/users",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("List enrolled students"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserListResponse{}, "200", "Students"),
			}),
			endpoint.WithErrors([]response.Response{internalError}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/users/{enrollment}",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Get an enrolled student"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("enrollment", parameter.Path, parameter.WithDescription("Enrollment number")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(UserResponse{}, "200", "Student"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/v1/users/{enrollment}",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Delete an enrolled student"),
			endpoint.WithDescription("Removes the record, the reference photo and the gallery entry"),
			endpoint.WithParams(
				parameter.StrParam("enrollment", parameter.Path, parameter.WithDescription("Enrollment number")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Student deleted"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"}, "404", "Not Found"),
				internalError,
			}),
		),

		// Sessions

		endpoint.New(
			endpoint.POST,
			"/v1/sessions",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Log in and open an attendance session"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(LoginRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "201", "Session opened"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "USER_NOT_FOUND", Message: "User not found"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/sessions",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("List open sessions"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionListResponse{}, "200", "Sessions"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/sessions/{id}",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Session dashboard"),
			endpoint.WithDescription("Identities recognized in the session, in recognition order"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionResponse{}, "200", "Session"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Session not found, please log in first"}, "404", "Not Found"),
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/v1/sessions/{id}",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Log out and clear the session record"),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Session closed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Session not found, please log in first"}, "404", "Not Found"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/v1/sessions/{id}/recognize",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Recognize faces and mark attendance"),
			endpoint.WithDescription("Upload one or more image files. Each newly recognized identity is marked once per session; Unknown faces are reported but never marked."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RecognizeResponse{}, "200", "Recognition results"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Session not found, please log in first"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "image is required"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded, please try again later"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "FACE_PROVIDER_UNAVAILABLE", Message: "Face detection service is unavailable"}, "502", "Bad Gateway"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/sessions/{id}/events",
			endpoint.WithTags("Sessions"),
			endpoint.WithSummary("Live session events (websocket)"),
			endpoint.WithDescription("Upgrade to a websocket that receives face.recognized, attendance.marked, attendance.failed and a final session.closed event as JSON text messages."),
			endpoint.WithParams(
				parameter.StrParam("id", parameter.Path, parameter.WithDescription("Session ID")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(SessionEvent{}, "101", "Switching Protocols"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "SESSION_NOT_FOUND", Message: "Session not found, please log in first"}, "404", "Not Found"),
				response.New(ErrorResponse{Code: "UPGRADE_REQUIRED", Message: "Upgrade Required"}, "426", "Upgrade Required"),
			}),
		),

		// Attendance

		endpoint.New(
			endpoint.POST,
			"/mark-attendance",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Mark attendance"),
			endpoint.WithDescription("Attendance collaborator endpoint. When a shared secret is configured the body must be signed in X-SmartMark-Signature (sha256=<hex hmac>)."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithBody(MarkAttendanceRequest{}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(MarkAttendanceResponse{}, "200", "Attendance marked"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(MarkAttendanceError{}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INVALID_SIGNATURE", Message: "Request signature is missing or invalid"}, "401", "Unauthorized"),
				internalError,
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/attendance",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("List attendance records"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("subject", parameter.Query, parameter.WithDescription("Filter by subject")),
				parameter.StrParam("student_id", parameter.Query, parameter.WithDescription("Filter by enrollment number")),
				parameter.StrParam("since", parameter.Query, parameter.WithDescription("RFC 3339 timestamp or YYYY-MM-DD")),
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum records (default and cap 1000)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceListResponse{}, "200", "Records"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				internalError,
			}),
		),

		// Timetable

		endpoint.New(
			endpoint.GET,
			"/v1/timetable",
			endpoint.WithTags("Timetable"),
			endpoint.WithSummary("Weekly timetable"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TimetableResponse{}, "200", "Timetable"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DAY_NOT_FOUND", Message: "No timetable for the requested day"}, "404", "Not Found"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/v1/timetable/{day}",
			endpoint.WithTags("Timetable"),
			endpoint.WithSummary("Slots of one day"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("day", parameter.Path, parameter.WithDescription("Day name, case-insensitive")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DayResponse{}, "200", "Day"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DAY_NOT_FOUND", Message: "No timetable for the requested day"}, "404", "Not Found"),
			}),
		),

		// Gallery

		endpoint.New(
			endpoint.GET,
			"/v1/gallery",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Current gallery"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GalleryResponse{}, "200", "Gallery"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/v1/gallery/rebuild",
			endpoint.WithTags("Gallery"),
			endpoint.WithSummary("Rebuild the gallery from enrolled students"),
			endpoint.WithDescription("The current gallery keeps serving until the new one is complete; a failed build leaves it in place."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(RebuildResponse{}, "200", "Build report"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "EMBEDDING_DIMENSION_MISMATCH", Message: "Embedding dimension mismatch"}, "500", "Internal Server Error"),
				internalError,
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
