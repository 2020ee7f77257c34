package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Provider
	FaceProvider     string `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Dlib"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"dlib"`
	DlibModelsDir    string `envconfig:"DLIB_MODELS_DIR" default:"models"`
	EnrollmentCheck  string `envconfig:"ENROLLMENT_CHECK" default:"none"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Gallery and matching
	ReferenceDir   string  `envconfig:"REFERENCE_DIR" default:"images"`
	EmbeddingDim   int     `envconfig:"EMBEDDING_DIM" default:"128"`
	MatchTolerance float64 `envconfig:"MATCH_TOLERANCE" default:"0.6"`
	FrameScale     float64 `envconfig:"FRAME_SCALE" default:"0.25"`
	EmbeddingCache bool    `envconfig:"EMBEDDING_CACHE" default:"true"`

	// Attendance
	TimetablePath     string        `envconfig:"TIMETABLE_PATH" default:"timetable.json"`
	AttendanceAPIURL  string        `envconfig:"ATTENDANCE_API_URL" default:"http://localhost:5001"`
	AttendanceTimeout time.Duration `envconfig:"ATTENDANCE_TIMEOUT" default:"10s"`
	AttendanceSecret  string        `envconfig:"ATTENDANCE_SECRET"`

	// Camera
	CameraDevice string `envconfig:"CAMERA_DEVICE" default:"/dev/video0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the matcher cannot work with.
func (c *Config) Validate() error {
	var errs []error
	if c.MatchTolerance < 0 {
		errs = append(errs, fmt.Errorf("MATCH_TOLERANCE must be >= 0, got %v", c.MatchTolerance))
	}
	if c.FrameScale <= 0 || c.FrameScale > 1 {
		errs = append(errs, fmt.Errorf("FRAME_SCALE must be in (0, 1], got %v", c.FrameScale))
	}
	if c.EmbeddingDim <= 0 {
		errs = append(errs, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", c.EmbeddingDim))
	}
	if c.LogLevel != "" {
		if _, err := ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}
	switch c.EnrollmentCheck {
	case "", "none", "rekognition":
	default:
		errs = append(errs, fmt.Errorf("ENROLLMENT_CHECK must be none or rekognition, got %q", c.EnrollmentCheck))
	}
	if len(errs) > 0 {
		return domain.ErrConfiguration.WithError(errors.Join(errs...))
	}
	return nil
}

// RequireDatabase fails when DATABASE_URL is unset. Only the binaries that
// talk to Postgres call it.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return domain.ErrConfiguration.WithError(errors.New("DATABASE_URL is required"))
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
