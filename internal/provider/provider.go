package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// FaceProvider locates faces in an encoded image and, when the backend
// supports it, computes one embedding per face.
type FaceProvider interface {
	// Name identifies the backend in logs and cache keys
	Name() string

	// DetectFaces returns every face found in image, in the order the backend
	// reports them. Boxes are in pixel coordinates of image.
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox domain.BoundingBox `json:"bounding_box"`
	Confidence  float64            `json:"confidence"`
	// Embedding is nil for detect-only backends
	Embedding domain.Embedding `json:"-"`
}

// HasEmbedding reports whether the backend produced a descriptor for the face.
func (f DetectedFace) HasEmbedding() bool {
	return len(f.Embedding) > 0
}

// ToDetection converts the provider output into the domain detection type.
func (f DetectedFace) ToDetection() domain.DetectionResult {
	return domain.DetectionResult{
		Box:        f.BoundingBox,
		Embedding:  f.Embedding,
		Confidence: f.Confidence,
	}
}
