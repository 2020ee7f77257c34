package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/camera"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/database"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/face"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/repository"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/service"
)

var errNoFrame = errors.New("camera produced no frame")

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a student from a photo file or a webcam capture",
	Long: `Store a student record and reference photo the same way POST /v1/users does.
The photo comes from --photo or, with --camera, from one webcam frame.

Requires DATABASE_URL. A running API picks the student up after
POST /v1/gallery/rebuild or a restart.

Examples:
  smartmark enroll --id 2021001 --name Alice --class CS-A --semester 5 --photo alice.jpg
  smartmark enroll --id 2021002 --name Bob --class CS-A --semester 5 --camera`,
	Args: cobra.NoArgs,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("id", "", "Enrollment id, also the gallery identity")
	enrollCmd.Flags().String("name", "", "Student name")
	enrollCmd.Flags().String("class", "", "Class")
	enrollCmd.Flags().String("semester", "", "Semester")
	enrollCmd.Flags().String("photo", "", "Reference photo file")
	enrollCmd.Flags().Bool("camera", false, "Capture the reference photo from the webcam")
	enrollCmd.Flags().Int("skip-frames", 5, "Frames to discard while the camera adjusts exposure")
	enrollCmd.Flags().String("device", "", "Video device (default: CAMERA_DEVICE)")
	enrollCmd.Flags().String("replay", "", "Capture from image files in this directory instead of a device")
	enrollCmd.Flags().Duration("interval", 0, "Delay between replayed frames")
}

func runEnroll(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	photoPath := mustGetString(cmd, "photo")
	useCamera := mustGetBool(cmd, "camera")
	if err := checkPhotoInput(photoPath, useCamera); err != nil {
		return err
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	auditLogger := audit.NewSlogLogger(logger)

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	userRepo := repository.NewUserRepository(pool)

	faceProvider, err := face.NewFaceProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	gate, err := face.NewEnrollmentGate(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create enrollment gate: %w", err)
	}

	// Only the new entry is installed, so the gallery is not rebuilt
	store := gallery.NewStore(
		gallery.NewBuilder(faceProvider,
			gallery.WithDimension(cfg.EmbeddingDim),
			gallery.WithLogger(logger.With("component", "gallery")),
		),
		gallery.NewUserSource(userRepo),
		gallery.WithAuditLogger(auditLogger),
		gallery.WithStoreLogger(logger.With("component", "gallery")),
	)
	svc := service.NewEnrollmentService(userRepo, store, cfg.ReferenceDir).
		WithAuditLogger(auditLogger).
		WithLogger(logger)
	if gate != nil {
		svc.WithGate(gate)
	}

	var photo []byte
	if useCamera {
		src, err := openSource(cmd, cfg, logger)
		if err != nil {
			return err
		}
		photo, err = capturePhoto(ctx, src, mustGetInt(cmd, "skip-frames"))
		if err != nil {
			return fmt.Errorf("capture photo: %w", err)
		}
	} else {
		photo, err = os.ReadFile(photoPath)
		if err != nil {
			return fmt.Errorf("read photo: %w", err)
		}
	}

	user, err := svc.Enroll(ctx, domain.User{
		Enrollment: mustGetString(cmd, "id"),
		Name:       mustGetString(cmd, "name"),
		Class:      mustGetString(cmd, "class"),
		Semester:   mustGetString(cmd, "semester"),
	}, photo)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		return writeJSON(cmd.OutOrStdout(), user)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Enrolled %s (%s), photo %s\n", user.Enrollment, user.Name, user.ImagePath)
	return nil
}

func checkPhotoInput(photoPath string, useCamera bool) error {
	switch {
	case photoPath != "" && useCamera:
		return errors.New("use either --photo or --camera, not both")
	case photoPath == "" && !useCamera:
		return errors.New("one of --photo or --camera is required")
	}
	return nil
}

// capturePhoto discards skip frames and returns the next one as JPEG. A
// stream that ends early yields its last frame. src is closed on return.
func capturePhoto(ctx context.Context, src camera.Source, skip int) ([]byte, error) {
	defer src.Close()

	var last *camera.Frame
	for i := 0; ; i++ {
		frame, err := src.Next(ctx)
		if camera.IsEndOfStream(err) {
			if last == nil {
				return nil, errNoFrame
			}
			return imaging.EncodeJPEG(last.Image)
		}
		if err != nil {
			return nil, err
		}
		if i >= skip {
			return imaging.EncodeJPEG(frame.Image)
		}
		last = &frame
	}
}
