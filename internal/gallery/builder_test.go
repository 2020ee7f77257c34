package gallery

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestBuilder_Build(t *testing.T) {
	t.Run("skips corrupt image and keeps the rest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "alice.png", pngImage(t, 10))
		writeFile(t, dir, "bob.png", pngImage(t, 20))
		writeFile(t, dir, "carol.png", pngImage(t, 30))
		writeFile(t, dir, "dave.jpg", []byte("definitely not a jpeg"))

		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0, 0)}, nil).Once()
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(0, 1, 0)}, nil).Once()
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(0, 0, 1)}, nil).Once()

		var progress []int
		b := NewBuilder(p, WithLogger(quietLogger()), WithProgress(func(done, total int) {
			assert.Equal(t, 4, total)
			progress = append(progress, done)
		}))

		g, report, err := b.Build(context.Background(), NewDirSource(dir))
		require.NoError(t, err)

		assert.Equal(t, []domain.Identity{"alice", "bob", "carol"}, g.Identities())
		assert.Equal(t, 3, g.Dimension())
		assert.Equal(t, 4, report.Found)
		assert.Equal(t, 3, report.Loaded)
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, domain.Identity("dave"), report.Skipped[0].Identity)
		assert.Contains(t, report.Skipped[0].Reason, "decode")
		assert.Equal(t, []int{1, 2, 3, 4}, progress)

		e, _ := g.Get("bob")
		assert.Equal(t, "bob.png", e.Source)
		p.AssertNumberOfCalls(t, "DetectFaces", 3)
	})

	t.Run("skips image without a face", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{}, nil).Once()
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 2)}, nil).Once()

		b := NewBuilder(p, WithLogger(quietLogger()))
		src := staticSource{bytesRef("empty", pngImage(t, 1)), bytesRef("alice", pngImage(t, 2))}

		g, report, err := b.Build(context.Background(), src)
		require.NoError(t, err)
		assert.Equal(t, []domain.Identity{"alice"}, g.Identities())
		require.Len(t, report.Skipped, 1)
		assert.Contains(t, report.Skipped[0].Reason, domain.ErrNoFaceDetected.Message)
	})

	t.Run("keeps only the first face", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).
			Return([]provider.DetectedFace{face(1, 1), face(9, 9)}, nil).Once()

		g, _, err := NewBuilder(p, WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("group", pngImage(t, 3))})
		require.NoError(t, err)

		e, ok := g.Get("group")
		require.True(t, ok)
		assert.Equal(t, domain.Embedding{1, 1}, e.Embedding)
	})

	t.Run("provider failure skips the image", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).
			Return(nil, domain.ErrProviderUnavailable).Once()
		p.On("DetectFaces", mock.Anything, mock.Anything).
			Return([]provider.DetectedFace{face(1, 1)}, nil).Once()

		g, report, err := NewBuilder(p, WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("a", pngImage(t, 1)), bytesRef("b", pngImage(t, 2))})
		require.NoError(t, err)
		assert.Equal(t, 1, g.Len())
		require.Len(t, report.Skipped, 1)
		assert.Equal(t, domain.Identity("a"), report.Skipped[0].Identity)
	})

	t.Run("unreadable reference is skipped", func(t *testing.T) {
		p := &MockFaceProvider{}
		broken := Reference{
			Identity: "broken",
			Name:     "broken.jpg",
			Load: func(context.Context) ([]byte, error) {
				return nil, errors.New("permission denied")
			},
		}

		g, report, err := NewBuilder(p, WithLogger(quietLogger())).
			Build(context.Background(), staticSource{broken})
		require.NoError(t, err)
		assert.Equal(t, 0, g.Len())
		require.Len(t, report.Skipped, 1)
		assert.Contains(t, report.Skipped[0].Reason, "load")
		p.AssertNotCalled(t, "DetectFaces", mock.Anything, mock.Anything)
	})

	t.Run("dimension mismatch aborts the build", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0)}, nil).Once()
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0, 0)}, nil).Once()

		g, _, err := NewBuilder(p, WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("a", pngImage(t, 1)), bytesRef("b", pngImage(t, 2))})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
		assert.Nil(t, g)
	})

	t.Run("configured dimension is enforced", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 0)}, nil).Once()

		_, _, err := NewBuilder(p, WithDimension(128), WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("a", pngImage(t, 1))})
		assert.True(t, errors.Is(err, domain.ErrDimensionMismatch))
	})

	t.Run("detect-only provider aborts the build", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).
			Return([]provider.DetectedFace{{BoundingBox: domain.BoundingBox{Width: 5, Height: 5}, Confidence: 0.9}}, nil).Once()

		_, _, err := NewBuilder(p, WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("a", pngImage(t, 1))})
		assert.True(t, errors.Is(err, domain.ErrConfiguration))
	})

	t.Run("invalid directory", func(t *testing.T) {
		_, _, err := NewBuilder(&MockFaceProvider{}).
			Build(context.Background(), NewDirSource("/does/not/exist"))
		assert.True(t, errors.Is(err, domain.ErrReferenceDirInvalid))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		dir := t.TempDir()
		writeFile(t, dir, "alice.png", pngImage(t, 1))

		_, _, err := NewBuilder(&MockFaceProvider{}, WithLogger(quietLogger())).
			Build(ctx, NewDirSource(dir))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuilder_Cache(t *testing.T) {
	img := pngImage(t, 7)

	t.Run("hit skips the provider", func(t *testing.T) {
		p := &MockFaceProvider{}
		cache := &MockEmbeddingCache{}
		cache.On("GetEmbedding", mock.Anything, domain.Identity("alice"), mock.AnythingOfType("string"), "test").
			Return(domain.Embedding{0.5, 0.5}, nil)

		g, report, err := NewBuilder(p, WithCache(cache), WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("alice", img)})
		require.NoError(t, err)
		assert.Equal(t, 1, report.CacheHits)
		e, _ := g.Get("alice")
		assert.Equal(t, domain.Embedding{0.5, 0.5}, e.Embedding)
		p.AssertNotCalled(t, "DetectFaces", mock.Anything, mock.Anything)
	})

	t.Run("miss embeds and stores", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 2, 3)}, nil).Once()

		cache := &MockEmbeddingCache{}
		cache.On("GetEmbedding", mock.Anything, domain.Identity("alice"), mock.Anything, "test").
			Return(nil, ErrCacheMiss)
		cache.On("PutEmbedding", mock.Anything, mock.MatchedBy(func(rec domain.EmbeddingRecord) bool {
			return rec.Identity == "alice" && rec.Provider == "test" && len(rec.Digest) == 64 && len(rec.Embedding) == 3
		})).Return(nil)

		_, report, err := NewBuilder(p, WithCache(cache), WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("alice", img)})
		require.NoError(t, err)
		assert.Equal(t, 0, report.CacheHits)
		cache.AssertExpectations(t)
	})

	t.Run("cache failures do not fail the build", func(t *testing.T) {
		p := &MockFaceProvider{}
		p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 2)}, nil).Once()

		cache := &MockEmbeddingCache{}
		cache.On("GetEmbedding", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused"))
		cache.On("PutEmbedding", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		g, _, err := NewBuilder(p, WithCache(cache), WithLogger(quietLogger())).
			Build(context.Background(), staticSource{bytesRef("alice", img)})
		require.NoError(t, err)
		assert.Equal(t, 1, g.Len())
	})
}

func TestBuilder_Embed(t *testing.T) {
	p := &MockFaceProvider{}
	p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{}, nil).Once()
	p.On("DetectFaces", mock.Anything, mock.Anything).Return([]provider.DetectedFace{face(1, 2)}, nil).Once()

	b := NewBuilder(p, WithLogger(quietLogger()))

	_, err := b.Embed(context.Background(), "alice", pngImage(t, 1))
	assert.True(t, errors.Is(err, domain.ErrNoFaceDetected))

	entry, err := b.Embed(context.Background(), "alice", pngImage(t, 1))
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("alice"), entry.Identity)

	_, err = b.Embed(context.Background(), "alice", []byte("junk"))
	assert.True(t, errors.Is(err, domain.ErrInvalidImage))
}
