package persist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type memStore struct {
	mu      sync.Mutex
	entries []Entry
	match   uuid.UUID
	fail    bool
}

func (m *memStore) WriteEntries(_ context.Context, id uuid.UUID, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("boom")
	}
	m.match = id
	m.entries = append(m.entries, entries...)
	return nil
}

func TestJournalWriter_WritesInOrder(t *testing.T) {
	store := &memStore{}
	id := NewMatchID()
	w := NewJournalWriter(store, id, 8, zap.NewNop())
	go w.Run()

	w.Append([]Entry{{Tick: 1, Kind: KindSpawn, Entity: 1}})
	w.Append(nil)
	w.Append([]Entry{{Tick: 2, Kind: KindHealth, Entity: 1, Amount: 10}, {Tick: 2, Kind: KindDespawn, Entity: 1}})
	w.Close()

	assert.Equal(t, id, store.match)
	kinds := make([]string, len(store.entries))
	for i, e := range store.entries {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []string{KindSpawn, KindHealth, KindDespawn}, kinds)
}

func TestJournalWriter_DropsWhenFull(t *testing.T) {
	store := &memStore{}
	w := NewJournalWriter(store, NewMatchID(), 1, zap.NewNop())
	// Not running: the second batch cannot be queued.
	w.Append([]Entry{{Kind: KindSpawn}})
	w.Append([]Entry{{Kind: KindSpawn}, {Kind: KindSpawn}})
	assert.Equal(t, 2, w.Dropped())

	go w.Run()
	w.Close()
	assert.Len(t, store.entries, 1)
}

func TestJournalWriter_SurvivesStoreErrors(t *testing.T) {
	store := &memStore{fail: true}
	w := NewJournalWriter(store, NewMatchID(), 4, zap.NewNop())
	go w.Run()
	w.Append([]Entry{{Kind: KindSpawn}})
	w.Close()
	assert.Empty(t, store.entries)
}
