package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

// MaxPhotoSize limits the longest side of a stored reference photo.
const MaxPhotoSize = 1024

// Enrollment ids become file names in the reference directory.
var enrollmentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

type UserRepositoryInterface interface {
	Upsert(ctx context.Context, user *domain.User) (bool, error)
	GetByEnrollment(ctx context.Context, enrollment string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, enrollment string) error
}

// GalleryWriter is the part of gallery.Store enrollment needs.
type GalleryWriter interface {
	Embed(ctx context.Context, identity domain.Identity, image []byte) (domain.GalleryEntry, error)
	Put(entry domain.GalleryEntry) error
	Remove(identity domain.Identity) bool
}

type EnrollmentService struct {
	users        UserRepositoryInterface
	gallery      GalleryWriter
	gate         provider.FaceProvider
	referenceDir string
	audit        audit.Logger
	logger       *slog.Logger
}

func NewEnrollmentService(users UserRepositoryInterface, g GalleryWriter, referenceDir string) *EnrollmentService {
	return &EnrollmentService{
		users:        users,
		gallery:      g,
		referenceDir: referenceDir,
		logger:       slog.Default(),
	}
}

// WithGate requires exactly one face in the enrollment photo, as reported by p.
func (s *EnrollmentService) WithGate(p provider.FaceProvider) *EnrollmentService {
	s.gate = p
	return s
}

func (s *EnrollmentService) WithAuditLogger(l audit.Logger) *EnrollmentService {
	s.audit = l
	return s
}

func (s *EnrollmentService) WithLogger(l *slog.Logger) *EnrollmentService {
	s.logger = l.With("component", "enrollment")
	return s
}

// Enroll stores user with photo as the reference image and refreshes the
// user's gallery entry. Re-enrolling an existing id replaces both.
func (s *EnrollmentService) Enroll(ctx context.Context, user domain.User, photo []byte) (*domain.User, error) {
	user.Normalize()
	if missing := user.MissingFields(); len(missing) > 0 {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("missing fields: %s", strings.Join(missing, ", ")))
	}
	if !enrollmentPattern.MatchString(user.Enrollment) || user.Identity() == domain.Unknown {
		return nil, domain.ErrValidationFailed.WithError(fmt.Errorf("invalid enrollment %q", user.Enrollment))
	}

	img, err := imaging.Normalize(photo, MaxPhotoSize)
	if err != nil {
		return nil, err
	}

	if s.gate != nil {
		faces, err := s.gate.DetectFaces(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("enrollment %s: detect faces: %w", user.Enrollment, err)
		}
		if len(faces) == 0 {
			return nil, domain.ErrNoFaceDetected
		}
		if len(faces) > 1 {
			return nil, domain.ErrMultipleFaces
		}
	}

	// Nothing is persisted unless the photo embeds
	entry, err := s.gallery.Embed(ctx, user.Identity(), img)
	if err != nil {
		return nil, fmt.Errorf("enrollment %s: %w", user.Enrollment, err)
	}

	// The photo only replaces the reference once the record is stored,
	// so a failed upsert leaves REFERENCE_DIR as it was.
	path := gallery.ImagePath(s.referenceDir, user.Identity())
	staged, err := stagePhoto(path, img)
	if err != nil {
		return nil, fmt.Errorf("enrollment %s: store photo: %w", user.Enrollment, err)
	}
	defer staged.discard()
	user.ImagePath = path

	created, err := s.users.Upsert(ctx, &user)
	if err != nil {
		return nil, err
	}
	if err := staged.commit(); err != nil {
		return nil, fmt.Errorf("enrollment %s: store photo: %w", user.Enrollment, err)
	}

	if err := s.gallery.Put(entry); err != nil {
		return nil, fmt.Errorf("enrollment %s: %w", user.Enrollment, err)
	}

	s.logger.InfoContext(ctx, "user enrolled",
		slog.String("identity", user.Enrollment),
		slog.Bool("created", created),
	)
	audit.Fire(ctx, s.audit, audit.Event{
		EventType: audit.EventUserEnrolled,
		Identity:  user.Enrollment,
		Success:   true,
		Metadata:  map[string]string{"created": fmt.Sprint(created)},
	})

	return &user, nil
}

func (s *EnrollmentService) Get(ctx context.Context, enrollment string) (*domain.User, error) {
	return s.users.GetByEnrollment(ctx, strings.TrimSpace(enrollment))
}

func (s *EnrollmentService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// Delete removes the user record, its gallery entry and its reference photo.
func (s *EnrollmentService) Delete(ctx context.Context, enrollment string) error {
	user, err := s.users.GetByEnrollment(ctx, enrollment)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, enrollment); err != nil {
		return err
	}

	s.gallery.Remove(user.Identity())
	if user.ImagePath != "" {
		if err := os.Remove(user.ImagePath); err != nil && !os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "reference photo not removed",
				slog.String("identity", enrollment),
				slog.String("path", user.ImagePath),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// stagedPhoto is a photo written next to its destination, not yet visible
// under the destination name.
type stagedPhoto struct {
	tmp  string
	path string
	done bool
}

func stagePhoto(path string, data []byte) (*stagedPhoto, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, ".enroll-*")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	return &stagedPhoto{tmp: tmp.Name(), path: path}, nil
}

func (p *stagedPhoto) commit() error {
	if err := os.Rename(p.tmp, p.path); err != nil {
		return err
	}
	p.done = true
	return nil
}

// discard removes the staged file unless it was committed.
func (p *stagedPhoto) discard() {
	if !p.done {
		os.Remove(p.tmp)
	}
}
