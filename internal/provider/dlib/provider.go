//go:build dlib

package dlib

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

var ErrClosed = errors.New("dlib recognizer closed")

// Provider implements provider.FaceProvider on top of a go-face recognizer.
type Provider struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// NewProvider loads the dlib models from modelsDir.
func NewProvider(modelsDir string) (*Provider, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, domain.ErrConfiguration.WithError(fmt.Errorf("load dlib models from %s: %w", modelsDir, err))
	}
	return &Provider{rec: rec}, nil
}

func (p *Provider) Name() string {
	return "dlib"
}

// DetectFaces runs detection and descriptor extraction. go-face only accepts
// JPEG input, which is what the matcher hands to providers.
func (p *Provider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The recognizer is not safe for concurrent use
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec == nil {
		return nil, domain.ErrProviderUnavailable.WithError(ErrClosed)
	}

	faces, err := p.rec.Recognize(image)
	if err != nil {
		var imgErr face.ImageLoadError
		if errors.As(err, &imgErr) {
			return nil, domain.ErrInvalidImage.WithError(err)
		}
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	result := make([]provider.DetectedFace, 0, len(faces))
	for _, f := range faces {
		embedding := make(domain.Embedding, len(f.Descriptor))
		for i, v := range f.Descriptor {
			embedding[i] = float64(v)
		}

		result = append(result, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				X:      f.Rectangle.Min.X,
				Y:      f.Rectangle.Min.Y,
				Width:  f.Rectangle.Dx(),
				Height: f.Rectangle.Dy(),
			},
			// go-face doesn't report a detection score
			Confidence: 1.0,
			Embedding:  embedding,
		})
	}

	return result, nil
}

// Close releases the native recognizer.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec != nil {
		p.rec.Close()
		p.rec = nil
	}
	return nil
}

var _ provider.FaceProvider = (*Provider)(nil)
