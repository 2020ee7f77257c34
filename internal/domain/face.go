package domain

import (
	"math"
	"time"
)

// Identity labels an enrolled person. It is the reference image filename stem
// or the enrollment number.
type Identity string

// Unknown is returned for faces that match no gallery entry within tolerance.
const Unknown Identity = "Unknown"

func (i Identity) IsUnknown() bool {
	return i == Unknown || i == ""
}

func (i Identity) String() string {
	return string(i)
}

// Embedding is a fixed-length face descriptor. Treat it as immutable once
// computed.
type Embedding []float64

func (e Embedding) Dimension() int {
	return len(e)
}

// Clone returns a copy that does not share storage with e.
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// BoundingBox is a face location in pixel coordinates of the frame it was
// detected in.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rescale maps a box detected on a frame scaled by factor back to the
// original frame by dividing every coordinate by factor.
func (b BoundingBox) Rescale(factor float64) BoundingBox {
	if factor <= 0 || factor == 1 {
		return b
	}
	scale := func(v int) int {
		return int(math.Round(float64(v) / factor))
	}
	return BoundingBox{
		X:      scale(b.X),
		Y:      scale(b.Y),
		Width:  scale(b.Width),
		Height: scale(b.Height),
	}
}

// GalleryEntry pairs an identity with its canonical embedding.
type GalleryEntry struct {
	Identity  Identity  `json:"identity"`
	Embedding Embedding `json:"-"`
	Source    string    `json:"source,omitempty"`
}

// DetectionResult is one detected face.
type DetectionResult struct {
	Box        BoundingBox `json:"box"`
	Embedding  Embedding   `json:"-"`
	Confidence float64     `json:"confidence,omitempty"`
}

// MatchResult is produced per detected face, independently of other faces in
// the same frame. Distance is -1 when the gallery was empty.
type MatchResult struct {
	Identity  Identity        `json:"identity"`
	Distance  float64         `json:"distance"`
	Detection DetectionResult `json:"detection"`
}

func (m MatchResult) Known() bool {
	return !m.Identity.IsUnknown()
}

// EmbeddingRecord is a cached embedding for a reference image, keyed by
// identity and the image digest.
type EmbeddingRecord struct {
	Identity  Identity  `json:"identity"`
	Digest    string    `json:"digest"`
	Embedding Embedding `json:"-"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}
