package persist

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EntryStore persists journal batches. JournalRepo implements it.
type EntryStore interface {
	WriteEntries(ctx context.Context, matchID uuid.UUID, entries []Entry) error
}

// writeTimeout bounds one batch insert.
const writeTimeout = 5 * time.Second

// JournalWriter moves journal entries off the game loop. Append never
// blocks: when the writer falls behind, batches are dropped and logged.
type JournalWriter struct {
	store   EntryStore
	matchID uuid.UUID
	queue   chan []Entry
	done    chan struct{}
	log     *zap.Logger

	dropped int
}

func NewJournalWriter(store EntryStore, matchID uuid.UUID, buffer int, log *zap.Logger) *JournalWriter {
	return &JournalWriter{
		store:   store,
		matchID: matchID,
		queue:   make(chan []Entry, max(buffer, 1)),
		done:    make(chan struct{}),
		log:     log.With(zap.Stringer("match", matchID)),
	}
}

// Append hands a batch to the writer goroutine. Game loop only.
func (w *JournalWriter) Append(entries []Entry) {
	if len(entries) == 0 {
		return
	}
	select {
	case w.queue <- entries:
	default:
		w.dropped += len(entries)
		w.log.Warn("journal queue full, dropping entries",
			zap.Int("entries", len(entries)),
			zap.Int("dropped_total", w.dropped),
		)
	}
}

// Dropped returns the number of entries lost to backpressure.
func (w *JournalWriter) Dropped() int { return w.dropped }

// Run writes batches until Close is called and the queue is drained.
func (w *JournalWriter) Run() {
	defer close(w.done)
	for entries := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := w.store.WriteEntries(ctx, w.matchID, entries); err != nil {
			w.log.Error("journal write failed", zap.Int("entries", len(entries)), zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting entries and waits for queued ones to be written.
func (w *JournalWriter) Close() {
	close(w.queue)
	<-w.done
}
