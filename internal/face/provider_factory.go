package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/config"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider/rekognition"
)

// ProviderType defines supported face recognition provider types
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace HTTP service (default)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeDlib runs dlib in process; requires the "dlib" build tag
	ProviderTypeDlib ProviderType = "dlib"
	// ProviderTypeMock is the deterministic provider for dev/test
	ProviderTypeMock ProviderType = "mock"
	// ProviderTypeRekognition is the AWS Rekognition detector used to vet enrollment photos
	ProviderTypeRekognition ProviderType = "rekognition"
)

// NewFaceProvider creates the embedding FaceProvider selected by FACE_PROVIDER
//
// Environment variables:
//   - FACE_PROVIDER: "deepface", "dlib" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR: DeepFace service settings
//   - DLIB_MODELS_DIR: directory holding the dlib model files
//   - EMBEDDING_DIM: descriptor length produced by the mock provider
func NewFaceProvider(ctx context.Context, cfg *config.Config) (provider.FaceProvider, error) {
	providerType := ProviderType(cfg.FaceProvider)

	switch providerType {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeDlib:
		return newDlibProvider(cfg)

	case ProviderTypeMock:
		return mock.New(cfg.EmbeddingDim), nil

	default:
		return nil, domain.ErrConfiguration.WithError(fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.FaceProvider, ProviderTypeDeepFace, ProviderTypeDlib, ProviderTypeMock))
	}
}

// NewEnrollmentGate creates the detector used to require exactly one face in
// enrollment photos. It returns nil when ENROLLMENT_CHECK is "none".
func NewEnrollmentGate(ctx context.Context, cfg *config.Config, auditLogger audit.Logger) (provider.FaceProvider, error) {
	switch cfg.EnrollmentCheck {
	case "", "none":
		return nil, nil

	case string(ProviderTypeRekognition):
		rekogConfig := rekognition.DefaultConfig()
		rekogConfig.Region = cfg.AWSRegion

		prov, err := rekognition.NewProvider(ctx, rekogConfig, rekognition.WithAuditLogger(auditLogger))
		if err != nil {
			return nil, fmt.Errorf("create rekognition provider: %w", err)
		}
		return prov, nil

	default:
		return nil, domain.ErrConfiguration.WithError(fmt.Errorf("unknown enrollment check: %s", cfg.EnrollmentCheck))
	}
}

// createDeepFaceProvider creates a DeepFace provider instance
func createDeepFaceProvider(cfg *config.Config) provider.FaceProvider {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}

	return deepface.NewProvider(deepfaceConfig)
}
