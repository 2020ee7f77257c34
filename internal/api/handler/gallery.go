package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
)

type GalleryStore interface {
	Current() *gallery.Gallery
	Rebuild(ctx context.Context) (gallery.Report, error)
}

type GalleryHandler struct {
	store  GalleryStore
	logger *slog.Logger
}

func NewGalleryHandler(store GalleryStore, logger *slog.Logger) *GalleryHandler {
	return &GalleryHandler{
		store:  store,
		logger: logger,
	}
}

type GalleryResponse struct {
	Size       int               `json:"size"`
	Dimension  int               `json:"dimension"`
	BuiltAt    string            `json:"built_at,omitempty"`
	Identities []domain.Identity `json:"identities"`
}

// Get GET /v1/gallery
func (h *GalleryHandler) Get(c *fiber.Ctx) error {
	g := h.store.Current()
	resp := GalleryResponse{
		Size:       g.Len(),
		Dimension:  g.Dimension(),
		Identities: g.Identities(),
	}
	if !g.BuiltAt().IsZero() {
		resp.BuiltAt = g.BuiltAt().UTC().Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// Rebuild POST /v1/gallery/rebuild - the current gallery stays in place on failure
func (h *GalleryHandler) Rebuild(c *fiber.Ctx) error {
	report, err := h.store.Rebuild(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(report)
}
