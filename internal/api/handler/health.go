package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/database"
)

const Version = "0.1.0"

type Pinger = database.Pinger

type HealthHandler struct {
	db          Pinger
	gallerySize func() int
}

// NewHealthHandler accepts nil for either dependency.
func NewHealthHandler(db Pinger, gallerySize func() int) *HealthHandler {
	return &HealthHandler{db: db, gallerySize: gallerySize}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Gallery *int   `json:"gallery_size,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	if h.gallerySize != nil {
		n := h.gallerySize()
		resp.Gallery = &n
	}
	return c.JSON(resp)
}

// Ready reports 503 until the database answers
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.db != nil {
		if err := database.HealthCheck(c.Context(), h.db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
				Status: "unavailable",
				Error:  err.Error(),
			})
		}
	}

	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
