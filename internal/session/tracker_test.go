package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/smartmark/internal/domain"
)

func TestTracker_Record(t *testing.T) {
	tr := NewTracker()

	assert.True(t, tr.Record("alice"))
	assert.False(t, tr.Record("alice"))
	assert.True(t, tr.Record("bob"))
	assert.False(t, tr.Record("alice"))

	assert.Equal(t, []domain.Identity{"alice", "bob"}, tr.Recorded())
	assert.Equal(t, 2, tr.Len())
	assert.True(t, tr.Has("bob"))
	assert.False(t, tr.Has("carol"))
}

func TestTracker_ZeroValue(t *testing.T) {
	var tr Tracker

	assert.False(t, tr.Has("alice"))
	assert.True(t, tr.Record("alice"))
	assert.False(t, tr.Record("alice"))
	assert.Equal(t, []domain.Identity{"alice"}, tr.Recorded())
}

func TestTracker_IgnoresUnknown(t *testing.T) {
	tr := NewTracker()

	assert.False(t, tr.Record(domain.Unknown))
	assert.False(t, tr.Record(""))
	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.Has(domain.Unknown))
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	tr.Record("alice")

	recorded := tr.Recorded()
	tr.Reset()

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, []domain.Identity{"alice"}, recorded, "earlier snapshot must survive reset")
	assert.True(t, tr.Record("alice"))
	assert.False(t, tr.Record("alice"))
}

func TestTracker_ConcurrentRecordIsNewOnce(t *testing.T) {
	tr := NewTracker()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins = map[domain.Identity]int{}
	)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := domain.Identity(fmt.Sprintf("student-%d", i))
				if tr.Record(id) {
					mu.Lock()
					wins[id]++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, wins, 50)
	for id, n := range wins {
		assert.Equal(t, 1, n, "identity %s", id)
	}
	assert.Equal(t, 50, tr.Len())
}
