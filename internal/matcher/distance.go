package matcher

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
	"github.com/saturnino-fabrica-de-software/smartmark/internal/gallery"
)

// DefaultTolerance is the usual acceptance threshold for 128-d dlib
// descriptors.
const DefaultTolerance = 0.6

// Candidate is the nearest gallery entry for a query.
type Candidate struct {
	Identity domain.Identity
	Distance float64
	// Index is the gallery position of the nearest entry, -1 for an empty gallery
	Index int
}

// EuclideanDistance returns the L2 distance between a and b.
func EuclideanDistance(a, b domain.Embedding) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.ErrDimensionMismatch.WithError(fmt.Errorf("got %d, want %d", len(a), len(b)))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Match finds the entry of g nearest to query. The candidate keeps its
// identity only when its distance is within tolerance; otherwise Identity is
// Unknown. On equal distances the entry earlier in gallery order wins.
func Match(query domain.Embedding, g *gallery.Gallery, tolerance float64) (Candidate, error) {
	best := Candidate{Identity: domain.Unknown, Distance: math.Inf(1), Index: -1}
	if g == nil || g.Len() == 0 {
		return best, nil
	}
	if len(query) != g.Dimension() {
		return best, domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("query has %d components, gallery has %d", len(query), g.Dimension()))
	}

	for i := 0; i < g.Len(); i++ {
		e := g.At(i)
		d, err := EuclideanDistance(query, e.Embedding)
		if err != nil {
			return Candidate{Identity: domain.Unknown, Distance: math.Inf(1), Index: -1}, err
		}
		// strict < keeps the first of equal distances
		if d < best.Distance {
			best = Candidate{Identity: e.Identity, Distance: d, Index: i}
		}
	}

	if best.Distance > tolerance {
		best.Identity = domain.Unknown
	}
	return best, nil
}
