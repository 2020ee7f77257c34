package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/audit"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Store publishes the current Gallery to concurrent readers. Readers take a
// snapshot with Current and keep using it for a whole matching pass; writers
// build a new Gallery and swap it in, so a pass never observes a partial
// update.
type Store struct {
	current atomic.Pointer[Gallery]

	// mu serializes writers; readers never take it
	mu      sync.Mutex
	builder *Builder
	source  ReferenceSource
	audit   audit.Logger
	logger  *slog.Logger
}

type StoreOption func(*Store)

func WithAuditLogger(l audit.Logger) StoreOption {
	return func(s *Store) { s.audit = l }
}

func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// NewStore starts with an empty gallery. Call Rebuild to load source.
func NewStore(builder *Builder, source ReferenceSource, opts ...StoreOption) *Store {
	s := &Store{
		builder: builder,
		source:  source,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(Empty(builder.Dimension()))
	return s
}

// Current returns the gallery snapshot in effect. It is never nil.
func (s *Store) Current() *Gallery {
	return s.current.Load()
}

// Swap installs g and returns the previous gallery.
func (s *Store) Swap(g *Gallery) *Gallery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Swap(g)
}

// Rebuild builds a fresh gallery from the store's source. The current gallery
// is replaced only when the build succeeds.
func (s *Store) Rebuild(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, report, err := s.builder.Build(ctx, s.source)

	event := audit.Event{
		EventType: audit.EventGalleryRebuilt,
		Provider:  s.builder.provider.Name(),
		Success:   err == nil,
		Metadata: map[string]string{
			"found":   strconv.Itoa(report.Found),
			"loaded":  strconv.Itoa(report.Loaded),
			"skipped": strconv.Itoa(len(report.Skipped)),
		},
	}
	if err != nil {
		event.Error = err.Error()
		audit.Fire(ctx, s.audit, event)
		return report, err
	}

	s.current.Store(g)
	audit.Fire(ctx, s.audit, event)

	s.logger.InfoContext(ctx, "gallery rebuilt",
		slog.Int("found", report.Found),
		slog.Int("loaded", report.Loaded),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("cache_hits", report.CacheHits),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// Embed computes the entry for identity without installing it.
func (s *Store) Embed(ctx context.Context, identity domain.Identity, image []byte) (domain.GalleryEntry, error) {
	return s.builder.Embed(ctx, identity, image)
}

// Put installs entry, replacing any previous entry for its identity.
func (s *Store) Put(entry domain.GalleryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.current.Load().With(entry)
	if err != nil {
		return err
	}
	s.current.Store(next)
	return nil
}

// Enroll embeds image and installs it as identity's entry.
func (s *Store) Enroll(ctx context.Context, identity domain.Identity, image []byte) (domain.GalleryEntry, error) {
	// Only the swap is serialized, not the provider call
	entry, err := s.builder.Embed(ctx, identity, image)
	if err != nil {
		return domain.GalleryEntry{}, fmt.Errorf("enroll %s: %w", identity, err)
	}
	if err := s.Put(entry); err != nil {
		return domain.GalleryEntry{}, fmt.Errorf("enroll %s: %w", identity, err)
	}
	return entry, nil
}

// Remove drops identity from the gallery. It reports whether it was present.
func (s *Store) Remove(identity domain.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := s.current.Load().Without(identity)
	if ok {
		s.current.Store(next)
	}
	return ok
}
