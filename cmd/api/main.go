package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/api"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/config"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/database"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/face"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/matcher"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/repository"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/service"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/session"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/timetable"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}

	// Initialize logger
	logger := config.NewLoggerTo(os.Stdout, cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)
	auditLogger := audit.NewSlogLogger(logger)

	logger.Info("starting SmartMark API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("provider", cfg.FaceProvider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	// Face providers
	faceProvider, err := face.NewFaceProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face provider: %w", err)
	}
	gate, err := face.NewEnrollmentGate(ctx, cfg, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to create enrollment gate: %w", err)
	}

	// Gallery from the enrolled users
	builderOpts := []gallery.BuilderOption{
		gallery.WithDimension(cfg.EmbeddingDim),
		gallery.WithLogger(logger.With("component", "gallery")),
	}
	if cfg.EmbeddingCache {
		builderOpts = append(builderOpts, gallery.WithCache(repository.NewEmbeddingRepository(pool)))
	}
	store := gallery.NewStore(
		gallery.NewBuilder(faceProvider, builderOpts...),
		gallery.NewUserSource(userRepo),
		gallery.WithAuditLogger(auditLogger),
		gallery.WithStoreLogger(logger.With("component", "gallery")),
	)
	if _, err := store.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to build gallery: %w", err)
	}

	m := matcher.New(store, faceProvider,
		matcher.WithTolerance(cfg.MatchTolerance),
		matcher.WithScale(cfg.FrameScale),
		matcher.WithLogger(logger),
	)

	// Timetable is optional
	var tt *timetable.Timetable
	if cfg.TimetablePath != "" {
		tt, err = timetable.Load(cfg.TimetablePath)
		if err != nil {
			logger.Warn("timetable not loaded",
				slog.String("path", cfg.TimetablePath),
				slog.String("error", err.Error()),
			)
			tt = nil
		}
	}

	// Services
	enrollment := service.NewEnrollmentService(userRepo, store, cfg.ReferenceDir).
		WithAuditLogger(auditLogger).
		WithLogger(logger)
	if gate != nil {
		enrollment.WithGate(gate)
	}
	attendanceSvc := service.NewAttendanceService(attendanceRepo).WithLogger(logger)

	// Live session events
	hub := ws.NewHub()
	go hub.Run(ctx)

	recognition := service.NewRecognitionService(userRepo, session.NewRegistry(), m, attendanceSvc).
		WithAuditLogger(auditLogger).
		WithEventPublisher(hub).
		WithLogger(logger)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Enrollment:       enrollment,
		Recognition:      recognition,
		Attendance:       attendanceSvc,
		Gallery:          store,
		Timetable:        tt,
		DB:               pool,
		Events:           hub,
		AttendanceSecret: cfg.AttendanceSecret,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() { done <- router.Shutdown() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Error("shutdown timed out")
	}

	logger.Info("server stopped")
	return nil
}
