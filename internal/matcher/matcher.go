package matcher

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

// DefaultScale is the live-frame downscale factor applied before detection.
const DefaultScale = 0.25

// GallerySource hands out the gallery snapshot for one matching pass.
// *gallery.Store implements it.
type GallerySource interface {
	Current() *gallery.Gallery
}

// Matcher runs detection on a frame and resolves every face against the
// current gallery.
type Matcher struct {
	galleries GallerySource
	provider  provider.FaceProvider
	tolerance float64
	scale     float64
	logger    *slog.Logger
}

type Option func(*Matcher)

func WithTolerance(t float64) Option {
	return func(m *Matcher) { m.tolerance = t }
}

// WithScale sets the factor frames are resized by before detection. 1
// disables resizing.
func WithScale(f float64) Option {
	return func(m *Matcher) { m.scale = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Matcher) { m.logger = l }
}

func New(galleries GallerySource, p provider.FaceProvider, opts ...Option) *Matcher {
	m := &Matcher{
		galleries: galleries,
		provider:  p,
		tolerance: DefaultTolerance,
		scale:     DefaultScale,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

func (m *Matcher) Scale() float64 {
	return m.scale
}

// DetectAndMatch decodes frame and matches every face in it. A frame that
// does not decode fails with ErrInvalidImage. A frame without faces yields
// an empty slice.
func (m *Matcher) DetectAndMatch(ctx context.Context, frame []byte) ([]domain.MatchResult, error) {
	img, _, err := imaging.Decode(frame)
	if err != nil {
		return nil, err
	}
	return m.MatchImage(ctx, img)
}

// MatchImage is DetectAndMatch for an already decoded frame. Boxes in the
// results are in img's coordinate space.
func (m *Matcher) MatchImage(ctx context.Context, img image.Image) ([]domain.MatchResult, error) {
	// One snapshot per pass; a concurrent rebuild is not observed mid-frame
	g := m.galleries.Current()

	small, err := imaging.Scale(img, m.scale)
	if err != nil {
		return nil, domain.ErrConfiguration.WithError(err)
	}
	data, err := imaging.EncodeJPEG(small)
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	faces, err := m.provider.DetectFaces(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	results := make([]domain.MatchResult, 0, len(faces))
	for _, f := range faces {
		if !f.HasEmbedding() {
			return nil, domain.ErrConfiguration.WithError(
				fmt.Errorf("provider %s returned a face without an embedding", m.provider.Name()))
		}

		c, err := Match(f.Embedding, g, m.tolerance)
		if err != nil {
			return nil, err
		}

		det := f.ToDetection()
		det.Box = det.Box.Rescale(m.scale)
		dist := c.Distance
		if c.Index < 0 {
			dist = -1
		}
		results = append(results, domain.MatchResult{
			Identity:  c.Identity,
			Distance:  dist,
			Detection: det,
		})
	}

	m.logger.DebugContext(ctx, "frame matched",
		slog.Int("faces", len(results)),
		slog.Int("gallery_size", g.Len()),
	)
	return results, nil
}
