package gallery

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

type MockFaceProvider struct {
	mock.Mock
}

func (m *MockFaceProvider) Name() string {
	return "test"
}

func (m *MockFaceProvider) DetectFaces(ctx context.Context, image []byte) ([]provider.DetectedFace, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.DetectedFace), args.Error(1)
}

type MockEmbeddingCache struct {
	mock.Mock
}

func (m *MockEmbeddingCache) GetEmbedding(ctx context.Context, identity domain.Identity, digest, provider string) (domain.Embedding, error) {
	args := m.Called(ctx, identity, digest, provider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.Embedding), args.Error(1)
}

func (m *MockEmbeddingCache) PutEmbedding(ctx context.Context, rec domain.EmbeddingRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

// pngImage encodes a small image whose pixels depend on seed
func pngImage(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: seed, G: uint8(x * 8), B: uint8(y * 8), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func face(values ...float64) provider.DetectedFace {
	return provider.DetectedFace{
		BoundingBox: domain.BoundingBox{X: 1, Y: 1, Width: 10, Height: 10},
		Confidence:  0.99,
		Embedding:   domain.Embedding(values),
	}
}

func entry(id string, values ...float64) domain.GalleryEntry {
	return domain.GalleryEntry{Identity: domain.Identity(id), Embedding: domain.Embedding(values)}
}

// staticSource serves in-memory references
type staticSource []Reference

func (s staticSource) References(_ context.Context) ([]Reference, error) {
	return s, nil
}

func bytesRef(id string, data []byte) Reference {
	return Reference{
		Identity: domain.Identity(id),
		Name:     id + ".png",
		Load: func(context.Context) ([]byte, error) {
			return data, nil
		},
	}
}
