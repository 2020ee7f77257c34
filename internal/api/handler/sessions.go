package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/service"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
)

type RecognitionService interface {
	Login(ctx context.Context, enrollment, subject string) (*session.Session, error)
	Logout(ctx context.Context, id uuid.UUID) error
	Session(id uuid.UUID) (*session.Session, error)
	Sessions() []*session.Session
	Recognize(ctx context.Context, id uuid.UUID, images [][]byte) ([]service.ImageResult, error)
}

// SessionHandler handles login, logout and recognition inside a session
type SessionHandler struct {
	service RecognitionService
	logger  *slog.Logger
}

func NewSessionHandler(service RecognitionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

type LoginRequest struct {
	Enrollment string `json:"enrollment"`
	Subject    string `json:"subject"`
}

type SessionResponse struct {
	ID         string            `json:"id"`
	Enrollment string            `json:"enrollment"`
	Subject    string            `json:"subject"`
	StartedAt  string            `json:"started_at"`
	Recognized []domain.Identity `json:"recognized"`
}

type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type RecognizeResponse struct {
	SessionID string                `json:"session_id"`
	Results   []service.ImageResult `json:"results"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:         s.ID.String(),
		Enrollment: s.StudentID,
		Subject:    s.Subject,
		StartedAt:  s.StartedAt.Format(time.RFC3339),
		Recognized: s.Tracker.Recorded(),
	}
}

// Login POST /v1/sessions - open a session for an enrolled student
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	sess, err := h.service.Login(c.Context(), req.Enrollment, req.Subject)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toSessionResponse(sess))
}

// List GET /v1/sessions
func (h *SessionHandler) List(c *fiber.Ctx) error {
	sessions := h.service.Sessions()
	resp := SessionListResponse{Sessions: make([]SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(s))
	}
	return c.JSON(resp)
}

// Get GET /v1/sessions/:id - the session dashboard
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	sess, err := h.service.Session(id)
	if err != nil {
		return err
	}
	return c.JSON(toSessionResponse(sess))
}

// Logout DELETE /v1/sessions/:id
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Recognize POST /v1/sessions/:id/recognize - multipart, one or more "image" files
func (h *SessionHandler) Recognize(c *fiber.Ctx) error {
	id, err := sessionID(c)
	if err != nil {
		return err
	}

	images, err := extractImages(c)
	if err != nil {
		return err
	}

	results, err := h.service.Recognize(c.Context(), id, images)
	if err != nil {
		return err
	}

	return c.JSON(RecognizeResponse{
		SessionID: id.String(),
		Results:   results,
	})
}

func sessionID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrSessionNotFound.WithError(err)
	}
	return id, nil
}
