package gallery

import (
	"fmt"
	"time"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Gallery is an immutable, ordered set of identities with their canonical
// embedding. Iteration order decides ties in matching. Use With and Without
// to derive modified copies.
type Gallery struct {
	entries   []domain.GalleryEntry
	index     map[domain.Identity]int
	dimension int
	builtAt   time.Time
}

// Empty returns a gallery without entries. dimension may be zero when the
// descriptor length is not known up front.
func Empty(dimension int) *Gallery {
	return &Gallery{
		index:     map[domain.Identity]int{},
		dimension: dimension,
		builtAt:   time.Now(),
	}
}

// New builds a gallery from entries. A later entry for an identity already
// present replaces the earlier one in its original position. Every embedding
// must have the same length as dimension, or as the first entry when
// dimension is zero.
func New(dimension int, entries ...domain.GalleryEntry) (*Gallery, error) {
	g := Empty(dimension)
	for _, e := range entries {
		if err := g.put(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Gallery) put(e domain.GalleryEntry) error {
	if e.Identity.IsUnknown() {
		return domain.ErrValidationFailed.WithError(fmt.Errorf("identity %q is reserved", e.Identity))
	}
	if len(e.Embedding) == 0 {
		return domain.ErrDimensionMismatch.WithError(fmt.Errorf("identity %s has an empty embedding", e.Identity))
	}
	if g.dimension == 0 {
		g.dimension = len(e.Embedding)
	}
	if len(e.Embedding) != g.dimension {
		return domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("identity %s: got %d, want %d", e.Identity, len(e.Embedding), g.dimension))
	}

	e.Embedding = e.Embedding.Clone()
	if i, ok := g.index[e.Identity]; ok {
		g.entries[i] = e
		return nil
	}
	g.index[e.Identity] = len(g.entries)
	g.entries = append(g.entries, e)
	return nil
}

func (g *Gallery) clone() *Gallery {
	c := &Gallery{
		entries:   make([]domain.GalleryEntry, len(g.entries), len(g.entries)+1),
		index:     make(map[domain.Identity]int, len(g.index)+1),
		dimension: g.dimension,
		builtAt:   time.Now(),
	}
	copy(c.entries, g.entries)
	for k, v := range g.index {
		c.index[k] = v
	}
	return c
}

// With returns a copy of g holding e, replacing any previous entry for the
// same identity.
func (g *Gallery) With(e domain.GalleryEntry) (*Gallery, error) {
	c := g.clone()
	if err := c.put(e); err != nil {
		return nil, err
	}
	return c, nil
}

// Without returns a copy of g without identity. The second result is false
// when identity was not present, in which case g itself is returned.
func (g *Gallery) Without(identity domain.Identity) (*Gallery, bool) {
	i, ok := g.index[identity]
	if !ok {
		return g, false
	}

	c := &Gallery{
		entries:   make([]domain.GalleryEntry, 0, len(g.entries)-1),
		index:     make(map[domain.Identity]int, len(g.index)-1),
		dimension: g.dimension,
		builtAt:   time.Now(),
	}
	for j, e := range g.entries {
		if j == i {
			continue
		}
		c.index[e.Identity] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, true
}

func (g *Gallery) Len() int {
	return len(g.entries)
}

// Dimension is the embedding length shared by every entry, or zero for an
// empty gallery built without a configured dimension.
func (g *Gallery) Dimension() int {
	return g.dimension
}

func (g *Gallery) BuiltAt() time.Time {
	return g.builtAt
}

// At returns the entry at position i in iteration order. The embedding must
// not be modified.
func (g *Gallery) At(i int) domain.GalleryEntry {
	return g.entries[i]
}

// Get looks up the entry for identity.
func (g *Gallery) Get(identity domain.Identity) (domain.GalleryEntry, bool) {
	i, ok := g.index[identity]
	if !ok {
		return domain.GalleryEntry{}, false
	}
	return g.entries[i], true
}

// Identities lists identities in iteration order.
func (g *Gallery) Identities() []domain.Identity {
	ids := make([]domain.Identity, len(g.entries))
	for i, e := range g.entries {
		ids[i] = e.Identity
	}
	return ids
}
