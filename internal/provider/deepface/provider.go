package deepface

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.FaceProvider using DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

func (p *Provider) Name() string {
	return "deepface:" + p.client.config.Model
}

// DetectFaces detects faces and computes one embedding per face
func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(img)
	extent := imageExtent(img)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		return nil, mapError(err)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, result := range resp.Results {
		if p.isPlaceholder(result, extent) {
			continue
		}

		confidence := result.FaceConfidence
		if confidence <= 0 {
			// Older DeepFace versions do not report a confidence
			confidence = calculateConfidence(float64(result.FacialArea.W * result.FacialArea.H))
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				X:      result.FacialArea.X,
				Y:      result.FacialArea.Y,
				Width:  result.FacialArea.W,
				Height: result.FacialArea.H,
			},
			Confidence: confidence,
			Embedding:  result.Embedding,
		})
	}

	return faces, nil
}

// isPlaceholder reports the whole-image result DeepFace returns when
// detection is not enforced and no face was found
func (p *Provider) isPlaceholder(result RepresentResult, extent image.Point) bool {
	if p.client.config.EnforceDetection || extent == (image.Point{}) {
		return false
	}
	area := result.FacialArea
	return area.X == 0 && area.Y == 0 && area.W == extent.X && area.H == extent.Y
}

// imageExtent returns the pixel size of data, or the zero point when its
// format is not recognized
func imageExtent(data []byte) image.Point {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Point{}
	}
	return image.Pt(cfg.Width, cfg.Height)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isClientError(err):
		return domain.ErrInvalidImage.WithError(err)
	default:
		return domain.ErrProviderUnavailable.WithError(fmt.Errorf("detect faces: %w", err))
	}
}

// calculateConfidence estimates confidence based on face area
// Larger faces are more likely to be accurately detected
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5 // Low confidence for very small faces
	}
	// Scale from 0.7 to 0.99 based on face area
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}

// Ensure Provider implements provider.FaceProvider
var _ provider.FaceProvider = (*Provider)(nil)
