package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	// registers the decoders used by image.DecodeConfig
	_ "github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Provider implements provider.FaceProvider using AWS Rekognition
// DetectFaces. Rekognition never exposes descriptors, so every returned face
// has a nil embedding; it is used to vet enrollment photos, not to build a
// gallery.
type Provider struct {
	api         DetectFacesAPI
	config      Config
	auditLogger audit.Logger
}

// ProviderOption defines optional configuration for Provider
type ProviderOption func(*Provider)

// WithAuditLogger sets the audit logger for the provider
func WithAuditLogger(logger audit.Logger) ProviderOption {
	return func(p *Provider) {
		p.auditLogger = logger
	}
}

// Ensure Provider implements provider.FaceProvider interface at compile time
var _ provider.FaceProvider = (*Provider)(nil)

// NewProvider creates a Rekognition provider backed by the AWS SDK client
func NewProvider(ctx context.Context, cfg Config, opts ...ProviderOption) (*Provider, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewProviderWithAPI(client, cfg, opts...), nil
}

// NewProviderWithAPI creates a provider over any DetectFacesAPI implementation
func NewProviderWithAPI(api DetectFacesAPI, cfg Config, opts ...ProviderOption) *Provider {
	p := &Provider{
		api:    api,
		config: cfg,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Provider) Name() string {
	return "rekognition"
}

// logAudit logs an audit event if an audit logger is configured
// Audit failure does not affect the operation (fire-and-forget)
func (p *Provider) logAudit(ctx context.Context, success bool, err error, metadata map[string]string) {
	event := audit.Event{
		EventType: audit.EventFaceDetected,
		Provider:  p.Name(),
		Success:   success,
		Metadata:  metadata,
	}

	if err != nil {
		event.Error = err.Error()
	}

	audit.Fire(ctx, p.auditLogger, event)
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return ErrInvalidImage
	}
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces in an image using AWS Rekognition DetectFaces API
// Returns an empty slice if no faces are detected (not an error)
func (p *Provider) DetectFaces(ctx context.Context, data []byte) ([]provider.DetectedFace, error) {
	meta := map[string]string{
		"image_size": strconv.Itoa(len(data)),
	}

	if err := validateImage(data); err != nil {
		p.logAudit(ctx, false, err, meta)
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	// Rekognition reports boxes as ratios of the image size
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		p.logAudit(ctx, false, err, meta)
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	output, err := p.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: data,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		mapped := mapAPIError(err)
		p.logAudit(ctx, false, mapped, meta)
		return nil, mapped
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		confidence := 0.0
		if detail.Confidence != nil {
			confidence = float64(*detail.Confidence) / 100.0
		}
		if confidence < p.config.MinConfidence || detail.BoundingBox == nil {
			continue
		}

		faces = append(faces, provider.DetectedFace{
			BoundingBox: toPixels(detail.BoundingBox, cfg.Width, cfg.Height),
			Confidence:  confidence,
		})
	}

	meta["faces_count"] = strconv.Itoa(len(faces))
	p.logAudit(ctx, true, nil, meta)

	return faces, nil
}

// toPixels converts a ratio bounding box into pixel coordinates
func toPixels(box *types.BoundingBox, width, height int) domain.BoundingBox {
	ratio := func(v *float32, size int) int {
		if v == nil {
			return 0
		}
		return int(math.Round(float64(*v) * float64(size)))
	}

	return domain.BoundingBox{
		X:      ratio(box.Left, width),
		Y:      ratio(box.Top, height),
		Width:  ratio(box.Width, width),
		Height: ratio(box.Height, height),
	}
}
