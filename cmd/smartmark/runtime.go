package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/config"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/database"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/face"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/matcher"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/repository"
)

// runtime is what every recognition command needs: a built gallery over
// REFERENCE_DIR and a matcher reading from it.
type runtime struct {
	cfg     *config.Config
	logger  *slog.Logger
	audit   audit.Logger
	store   *gallery.Store
	matcher *matcher.Matcher
	report  gallery.Report
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// loadConfig reads the configuration and builds the stderr logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if mustGetBool(cmd, "verbose") {
		level = "debug"
	}
	return cfg, config.NewLoggerTo(cmd.ErrOrStderr(), cfg.Environment, level), nil
}

// newRuntime builds the gallery from the reference directory. When
// DATABASE_URL is set and EMBEDDING_CACHE is on, embeddings are cached in
// Postgres between runs.
func newRuntime(cmd *cobra.Command, progress bool) (*runtime, error) {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger, audit: audit.NewSlogLogger(logger)}

	faceProvider, err := face.NewFaceProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create face provider: %w", err)
	}

	opts := []gallery.BuilderOption{
		gallery.WithDimension(cfg.EmbeddingDim),
		gallery.WithLogger(logger.With("component", "gallery")),
	}
	if cfg.EmbeddingCache && cfg.DatabaseURL != "" {
		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			logger.Warn("embedding cache disabled", slog.String("error", err.Error()))
		} else {
			rt.closers = append(rt.closers, pool.Close)
			opts = append(opts, gallery.WithCache(repository.NewEmbeddingRepository(pool)))
		}
	}
	if progress {
		opts = append(opts, gallery.WithProgress(progressReporter(cmd.ErrOrStderr())))
	}

	rt.store = gallery.NewStore(
		gallery.NewBuilder(faceProvider, opts...),
		gallery.NewDirSource(cfg.ReferenceDir),
		gallery.WithAuditLogger(rt.audit),
		gallery.WithStoreLogger(logger.With("component", "gallery")),
	)
	rt.report, err = rt.store.Rebuild(ctx)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build gallery: %w", err)
	}
	for _, s := range rt.report.Skipped {
		logger.Warn("reference skipped",
			slog.String("identity", s.Identity.String()),
			slog.String("file", s.Name),
			slog.String("reason", s.Reason),
		)
	}

	rt.matcher = matcher.New(rt.store, faceProvider,
		matcher.WithTolerance(cfg.MatchTolerance),
		matcher.WithScale(cfg.FrameScale),
		matcher.WithLogger(logger),
	)
	return rt, nil
}

// progressReporter draws a bar on w. The bar is created on the first call,
// once the number of references is known.
func progressReporter(w io.Writer) gallery.ProgressFunc {
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription("Embedding references"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("photos"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetPredictTime(true),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
		if done == total {
			_ = bar.Finish()
			fmt.Fprintln(w)
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
