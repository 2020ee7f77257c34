package handler

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/attendance"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

type AttendanceService interface {
	MarkAttendance(ctx context.Context, studentID, subject string) (domain.AttendanceReceipt, error)
	List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceRecord, error)
}

// AttendanceHandler serves the attendance collaborator endpoint and the
// record listing
type AttendanceHandler struct {
	service AttendanceService
	logger  *slog.Logger
}

func NewAttendanceHandler(service AttendanceService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		service: service,
		logger:  logger,
	}
}

type AttendanceListResponse struct {
	Records []domain.AttendanceRecord `json:"attendance_records"`
	Total   int                       `json:"total"`
}

// Mark POST /mark-attendance. Validation failures keep the flat
// {"error": "..."} body existing attendance clients parse.
func (h *AttendanceHandler) Mark(c *fiber.Ctx) error {
	var req attendance.MarkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": domain.ErrMissingAttendanceFields.Message})
	}

	receipt, err := h.service.MarkAttendance(c.Context(), req.StudentID, req.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrMissingAttendanceFields) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": domain.ErrMissingAttendanceFields.Message})
		}
		return err
	}

	if receipt.Records == nil {
		receipt.Records = []domain.AttendanceRecord{}
	}
	return c.JSON(fiber.Map{
		"message":            receipt.Message,
		"attendance_records": receipt.Records,
	})
}

// List GET /v1/attendance?subject=&student_id=&since=&limit=
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	f := domain.AttendanceFilter{
		StudentID: c.Query("student_id"),
		Subject:   c.Query("subject"),
	}

	if v := c.Query("since"); v != "" {
		since, err := parseSince(v)
		if err != nil {
			return domain.ErrValidationFailed.WithError(err)
		}
		f.Since = since
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return domain.ErrValidationFailed.WithError(errors.New("limit must be a non-negative integer"))
		}
		f.Limit = n
	}

	records, err := h.service.List(c.Context(), f)
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AttendanceRecord{}
	}
	return c.JSON(AttendanceListResponse{Records: records, Total: len(records)})
}

// parseSince accepts RFC 3339 or a plain date
func parseSince(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, v)
}
