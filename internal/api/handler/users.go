package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

type EnrollmentService interface {
	Enroll(ctx context.Context, user domain.User, photo []byte) (*domain.User, error)
	Get(ctx context.Context, enrollment string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, enrollment string) error
}

// UserHandler handles student enrollment
type UserHandler struct {
	service EnrollmentService
	logger  *slog.Logger
}

func NewUserHandler(service EnrollmentService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

type UserResponse struct {
	Enrollment string `json:"enrollment"`
	Name       string `json:"name"`
	Class      string `json:"class"`
	Semester   string `json:"semester"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		Enrollment: u.Enrollment,
		Name:       u.Name,
		Class:      u.Class,
		Semester:   u.Semester,
		CreatedAt:  u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// Enroll POST /v1/users - register or re-register a student with a photo
func (h *UserHandler) Enroll(c *fiber.Ctx) error {
	photo, err := extractImage(c)
	if err != nil {
		return err
	}

	user := domain.User{
		Enrollment: c.FormValue("enrollment"),
		Name:       c.FormValue("name"),
		Class:      c.FormValue("class"),
		Semester:   c.FormValue("semester"),
	}

	enrolled, err := h.service.Enroll(c.Context(), user, photo)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(enrolled))
}

// List GET /v1/users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.Context())
	if err != nil {
		return err
	}

	resp := UserListResponse{Users: make([]UserResponse, 0, len(users)), Total: len(users)}
	for i := range users {
		resp.Users = append(resp.Users, toUserResponse(&users[i]))
	}
	return c.JSON(resp)
}

// Get GET /v1/users/:enrollment
func (h *UserHandler) Get(c *fiber.Ctx) error {
	enrollment := strings.TrimSpace(c.Params("enrollment"))
	if enrollment == "" {
		return domain.ErrValidationFailed.WithError(errors.New("enrollment is required"))
	}

	user, err := h.service.Get(c.Context(), enrollment)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// Delete DELETE /v1/users/:enrollment - drops the record, photo and gallery entry
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	enrollment := strings.TrimSpace(c.Params("enrollment"))
	if enrollment == "" {
		return domain.ErrValidationFailed.WithError(errors.New("enrollment is required"))
	}

	if err := h.service.Delete(c.Context(), enrollment); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
