package mock

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
)

func gradient(w, h int, invert bool) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / w)
			if invert {
				v = 255 - v
			}
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestProvider_DetectFaces(t *testing.T) {
	p := New(0)
	ctx := context.Background()

	tests := []struct {
		name      string
		image     []byte
		wantFaces int
		wantErr   bool
	}{
		{
			name:      "valid image",
			image:     gradient(256, 200, false),
			wantFaces: 1,
			wantErr:   false,
		},
		{
			name:      "not an image",
			image:     make([]byte, 100),
			wantFaces: 0,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces, err := p.DetectFaces(ctx, tt.image)
			if (err != nil) != tt.wantErr {
				t.Errorf("DetectFaces() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidImage) {
				t.Errorf("DetectFaces() error = %v, want ErrInvalidImage", err)
			}
			if len(faces) != tt.wantFaces {
				t.Errorf("DetectFaces() got %d faces, want %d", len(faces), tt.wantFaces)
			}
		})
	}
}

func TestProvider_EmbeddingShape(t *testing.T) {
	p := New(0)

	faces, err := p.DetectFaces(context.Background(), gradient(256, 200, false))
	if err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}

	face := faces[0]
	if len(face.Embedding) != 128 {
		t.Errorf("embedding dimension = %d, want 128", len(face.Embedding))
	}

	var norm float64
	for _, v := range face.Embedding {
		norm += v * v
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 0.0001 {
		t.Errorf("embedding not normalized: norm = %f", math.Sqrt(norm))
	}

	want := domain.BoundingBox{X: 25, Y: 20, Width: 206, Height: 160}
	if face.BoundingBox != want {
		t.Errorf("box = %+v, want %+v", face.BoundingBox, want)
	}
}

func TestProvider_Deterministic(t *testing.T) {
	p := New(64)
	ctx := context.Background()
	data := gradient(256, 200, false)

	first, err := p.DetectFaces(ctx, data)
	if err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}
	second, err := p.DetectFaces(ctx, data)
	if err != nil {
		t.Fatalf("DetectFaces() error = %v", err)
	}

	for i := range first[0].Embedding {
		if first[0].Embedding[i] != second[0].Embedding[i] {
			t.Fatalf("embedding differs at %d", i)
		}
	}
}

func TestProvider_ScaleTolerant(t *testing.T) {
	p := New(0)
	ctx := context.Background()
	data := gradient(512, 400, false)

	img, _, err := imaging.Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	small, err := imaging.Scale(img, 0.5)
	if err != nil {
		t.Fatalf("Scale() error = %v", err)
	}
	smallData, err := imaging.EncodeJPEG(small)
	if err != nil {
		t.Fatalf("EncodeJPEG() error = %v", err)
	}

	orig, _ := p.DetectFaces(ctx, data)
	scaled, _ := p.DetectFaces(ctx, smallData)
	other, _ := p.DetectFaces(ctx, gradient(512, 400, true))

	if d := distance(orig[0].Embedding, scaled[0].Embedding); d > 0.2 {
		t.Errorf("scaled distance = %f, want <= 0.2", d)
	}
	if d := distance(orig[0].Embedding, other[0].Embedding); d < 1.0 {
		t.Errorf("distinct distance = %f, want >= 1.0", d)
	}
}

func TestProvider_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(0).DetectFaces(ctx, gradient(64, 64, false)); !errors.Is(err, context.Canceled) {
		t.Errorf("DetectFaces() error = %v, want context.Canceled", err)
	}
}
