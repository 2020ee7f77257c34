package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// HistoryLimit caps the records returned with a receipt.
const HistoryLimit = 100

type AttendanceRepositoryInterface interface {
	Create(ctx context.Context, rec *domain.AttendanceRecord) error
	List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceRecord, error)
}

// AttendanceService persists attendance marks. It serves the
// /mark-attendance endpoint and is the in-process recorder of the API.
type AttendanceService struct {
	repo   AttendanceRepositoryInterface
	logger *slog.Logger
}

func NewAttendanceService(repo AttendanceRepositoryInterface) *AttendanceService {
	return &AttendanceService{
		repo:   repo,
		logger: slog.Default(),
	}
}

func (s *AttendanceService) WithLogger(l *slog.Logger) *AttendanceService {
	s.logger = l.With("component", "attendance")
	return s
}

// MarkAttendance records one mark for studentID in subject. The receipt
// carries the student's records for that subject, newest last.
func (s *AttendanceService) MarkAttendance(ctx context.Context, studentID, subject string) (domain.AttendanceReceipt, error) {
	studentID = strings.TrimSpace(studentID)
	subject = strings.TrimSpace(subject)
	if studentID == "" || subject == "" {
		return domain.AttendanceReceipt{}, domain.ErrMissingAttendanceFields
	}

	rec := &domain.AttendanceRecord{StudentID: studentID, Subject: subject}
	if err := s.repo.Create(ctx, rec); err != nil {
		return domain.AttendanceReceipt{}, err
	}

	records, err := s.repo.List(ctx, domain.AttendanceFilter{
		StudentID: studentID,
		Subject:   subject,
		Limit:     HistoryLimit,
	})
	if err != nil {
		// the mark itself is stored
		s.logger.WarnContext(ctx, "attendance history unavailable",
			slog.String("identity", studentID),
			slog.String("error", err.Error()),
		)
		records = []domain.AttendanceRecord{*rec}
	}

	return domain.AttendanceReceipt{
		Message: domain.AttendanceMarkedMessage,
		Records: records,
	}, nil
}

func (s *AttendanceService) List(ctx context.Context, f domain.AttendanceFilter) ([]domain.AttendanceRecord, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 1000
	}
	return s.repo.List(ctx, f)
}
