package gallery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

var ErrCacheMiss = errors.New("embedding not cached")

// EmbeddingCache stores reference embeddings keyed by identity and image
// digest so unchanged photos are not re-embedded on rebuild.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, identity domain.Identity, digest, provider string) (domain.Embedding, error)
	PutEmbedding(ctx context.Context, rec domain.EmbeddingRecord) error
}

// Skip describes a reference image left out of the gallery.
type Skip struct {
	Identity domain.Identity `json:"identity"`
	Name     string          `json:"name"`
	Reason   string          `json:"reason"`
}

// Report summarizes a build.
type Report struct {
	Found     int           `json:"found"`
	Loaded    int           `json:"loaded"`
	CacheHits int           `json:"cache_hits"`
	Skipped   []Skip        `json:"skipped,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ProgressFunc is called after each reference is processed.
type ProgressFunc func(done, total int)

// Builder turns reference images into a Gallery.
type Builder struct {
	provider  provider.FaceProvider
	dimension int
	cache     EmbeddingCache
	logger    *slog.Logger
	progress  ProgressFunc
}

type BuilderOption func(*Builder)

// WithDimension requires every embedding to have n components.
func WithDimension(n int) BuilderOption {
	return func(b *Builder) { b.dimension = n }
}

func WithCache(c EmbeddingCache) BuilderOption {
	return func(b *Builder) { b.cache = c }
}

func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

func WithProgress(fn ProgressFunc) BuilderOption {
	return func(b *Builder) { b.progress = fn }
}

func NewBuilder(p provider.FaceProvider, opts ...BuilderOption) *Builder {
	b := &Builder{
		provider: p,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Dimension() int {
	return b.dimension
}

// Build embeds every reference from src. Unreadable images, undecodable
// images, images without a face and per-image provider failures are skipped
// with a warning. A dimension mismatch, a provider that returns no
// embeddings, or an unreadable source aborts the build and no gallery is
// returned.
func (b *Builder) Build(ctx context.Context, src ReferenceSource) (*Gallery, Report, error) {
	start := time.Now()
	var report Report

	refs, err := src.References(ctx)
	if err != nil {
		return nil, report, err
	}
	report.Found = len(refs)

	g := Empty(b.dimension)
	for i, ref := range refs {
		entry, hit, err := b.embed(ctx, ref)
		if err == nil {
			if putErr := g.put(entry); putErr != nil {
				if errors.Is(putErr, domain.ErrDimensionMismatch) {
					return nil, report, fmt.Errorf("build gallery: %s: %w", ref.Name, putErr)
				}
				err = &stageError{stage: "index", err: putErr}
			} else if hit {
				report.CacheHits++
			}
		}

		if err != nil {
			if isFatal(err) {
				return nil, report, fmt.Errorf("build gallery: %s: %w", ref.Name, err)
			}
			report.Skipped = append(report.Skipped, Skip{Identity: ref.Identity, Name: ref.Name, Reason: err.Error()})
			b.logger.WarnContext(ctx, "skipping reference image",
				slog.String("identity", ref.Identity.String()),
				slog.String("file", ref.Name),
				slog.String("stage", stageOf(err)),
				slog.String("error", err.Error()),
			)
		}

		if b.progress != nil {
			b.progress(i+1, len(refs))
		}
	}

	// Entries replaced by a later duplicate count once
	report.Loaded = g.Len()
	report.Duration = time.Since(start)
	return g, report, nil
}

// Embed computes the canonical entry for a single reference image. Unlike
// Build it returns ErrNoFaceDetected when the image holds no face.
func (b *Builder) Embed(ctx context.Context, identity domain.Identity, image []byte) (domain.GalleryEntry, error) {
	entry, _, err := b.embedBytes(ctx, identity, image)
	if err != nil {
		return domain.GalleryEntry{}, err
	}
	if b.dimension > 0 && len(entry.Embedding) != b.dimension {
		return domain.GalleryEntry{}, domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("identity %s: got %d, want %d", identity, len(entry.Embedding), b.dimension))
	}
	return entry, nil
}

func (b *Builder) embed(ctx context.Context, ref Reference) (domain.GalleryEntry, bool, error) {
	data, err := ref.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return domain.GalleryEntry{}, false, ctx.Err()
		}
		return domain.GalleryEntry{}, false, &stageError{stage: "load", err: err}
	}

	entry, hit, err := b.embedBytes(ctx, ref.Identity, data)
	if err != nil {
		return domain.GalleryEntry{}, false, err
	}
	entry.Source = ref.Name
	return entry, hit, nil
}

func (b *Builder) embedBytes(ctx context.Context, identity domain.Identity, data []byte) (domain.GalleryEntry, bool, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	if b.cache != nil {
		emb, err := b.cache.GetEmbedding(ctx, identity, digest, b.provider.Name())
		switch {
		case err == nil && len(emb) > 0:
			return domain.GalleryEntry{Identity: identity, Embedding: emb}, true, nil
		case err != nil && !errors.Is(err, ErrCacheMiss):
			b.logger.WarnContext(ctx, "embedding cache read failed",
				slog.String("identity", identity.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return domain.GalleryEntry{}, false, &stageError{stage: "decode", err: err}
	}
	// Reference images are embedded at full resolution
	jpg, err := imaging.EncodeJPEG(img)
	if err != nil {
		return domain.GalleryEntry{}, false, &stageError{stage: "decode", err: err}
	}

	faces, err := b.provider.DetectFaces(ctx, jpg)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, domain.ErrConfiguration) {
			return domain.GalleryEntry{}, false, err
		}
		return domain.GalleryEntry{}, false, &stageError{stage: "embed", err: err}
	}
	if len(faces) == 0 {
		return domain.GalleryEntry{}, false, &stageError{stage: "detect", err: domain.ErrNoFaceDetected}
	}

	// Only the first detected face is kept
	first := faces[0]
	if !first.HasEmbedding() {
		return domain.GalleryEntry{}, false, domain.ErrConfiguration.WithError(
			fmt.Errorf("provider %s returned a face without an embedding", b.provider.Name()))
	}

	entry := domain.GalleryEntry{Identity: identity, Embedding: first.Embedding}

	if b.cache != nil {
		rec := domain.EmbeddingRecord{
			Identity:  identity,
			Digest:    digest,
			Embedding: first.Embedding,
			Provider:  b.provider.Name(),
			CreatedAt: time.Now().UTC(),
		}
		if err := b.cache.PutEmbedding(ctx, rec); err != nil {
			b.logger.WarnContext(ctx, "embedding cache write failed",
				slog.String("identity", identity.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	return entry, false, nil
}

// stageError marks a per-image failure that only skips that image.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string {
	return fmt.Sprintf("%s: %v", e.stage, e.err)
}

func (e *stageError) Unwrap() error {
	return e.err
}

func isFatal(err error) bool {
	var se *stageError
	return !errors.As(err, &se)
}

func stageOf(err error) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return "unknown"
}
