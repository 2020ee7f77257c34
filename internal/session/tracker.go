package session

import (
	"sync"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

// Tracker holds the identities already credited in the current session.
// The set only grows until Reset. The zero value is an empty tracker.
type Tracker struct {
	mu    sync.Mutex
	seen  map[domain.Identity]struct{}
	order []domain.Identity
}

func NewTracker() *Tracker {
	return &Tracker{seen: make(map[domain.Identity]struct{})}
}

// Record adds identity and reports whether it was new. Unknown is never
// recorded.
func (t *Tracker) Record(identity domain.Identity) bool {
	if identity.IsUnknown() {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.seen[identity]; ok {
		return false
	}
	if t.seen == nil {
		t.seen = make(map[domain.Identity]struct{})
	}
	t.seen[identity] = struct{}{}
	t.order = append(t.order, identity)
	return true
}

// Reset empties the session record.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seen = make(map[domain.Identity]struct{})
	t.order = nil
}

func (t *Tracker) Has(identity domain.Identity) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.seen[identity]
	return ok
}

// Recorded lists identities in the order they were first recorded.
func (t *Tracker) Recorded() []domain.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]domain.Identity, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}
