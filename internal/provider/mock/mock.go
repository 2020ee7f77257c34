package mock

import (
	"context"
	"image"
	"math"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/imaging"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/provider"
)

const defaultDimension = 128

// Provider implementa provider.FaceProvider para testes e desenvolvimento.
// Ele reporta uma única face por imagem e deriva o embedding da luminância
// média de uma grade sobre a imagem, então versões redimensionadas da mesma
// foto produzem embeddings próximos.
type Provider struct {
	dimension int
}

// New cria uma nova instância do MockProvider
func New(dimension int) *Provider {
	if dimension <= 0 {
		dimension = defaultDimension
	}
	return &Provider{dimension: dimension}
}

func (p *Provider) Name() string {
	return "mock"
}

// DetectFaces simula detecção de uma face centralizada
func (p *Provider) DetectFaces(ctx context.Context, data []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, _, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	marginX, marginY := b.Dx()/10, b.Dy()/10

	return []provider.DetectedFace{
		{
			BoundingBox: domain.BoundingBox{
				X:      marginX,
				Y:      marginY,
				Width:  b.Dx() - 2*marginX,
				Height: b.Dy() - 2*marginY,
			},
			Confidence:  0.99,
			Embedding:   generateEmbedding(img, p.dimension),
		},
	}, nil
}

// generateEmbedding divide a imagem em dimension faixas verticais e usa a
// luminância média centralizada e normalizada de cada faixa.
func generateEmbedding(img image.Image, dimension int) []float64 {
	b := img.Bounds()
	sums := make([]float64, dimension)
	counts := make([]float64, dimension)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cell := (x - b.Min.X) * dimension / b.Dx()
			r, g, bl, _ := img.At(x, y).RGBA()
			sums[cell] += 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)
			counts[cell]++
		}
	}

	embedding := make([]float64, dimension)
	var mean float64
	for i := range embedding {
		if counts[i] > 0 {
			embedding[i] = sums[i] / counts[i] / 0xffff
		}
		mean += embedding[i]
	}
	mean /= float64(dimension)

	norm := 0.0
	for i := range embedding {
		embedding[i] -= mean
		norm += embedding[i] * embedding[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return embedding
	}

	for i := range embedding {
		embedding[i] /= norm
	}

	return embedding
}

var _ provider.FaceProvider = (*Provider)(nil)
