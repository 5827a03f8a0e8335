package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Journal entry kinds.
const (
	KindSpawn   = "spawn"
	KindDespawn = "despawn"
	KindHealth  = "health"
	KindCommand = "command"
	KindReject  = "reject"
)

// Entry is one journaled match event.
type Entry struct {
	Tick   uint64
	Kind   string
	Entity uint64
	Player uint64
	Detail string
	Amount float32
}

// NewMatchID returns a fresh match identifier.
func NewMatchID() uuid.UUID { return uuid.New() }

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// CreateMatch records the start of a match.
func (r *JournalRepo) CreateMatch(ctx context.Context, id uuid.UUID, mapName, serverName string, startedAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO matches (id, map_name, server_name, started_at) VALUES ($1, $2, $3, $4)`,
		id, mapName, serverName, startedAt,
	)
	if err != nil {
		return fmt.Errorf("create match: %w", err)
	}
	return nil
}

// EndMatch stamps the match end time.
func (r *JournalRepo) EndMatch(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	_, err := r.db.Pool.Exec(ctx, `UPDATE matches SET ended_at = $2 WHERE id = $1`, id, endedAt)
	if err != nil {
		return fmt.Errorf("end match: %w", err)
	}
	return nil
}

// WriteEntries appends a batch of events in a single round trip.
func (r *JournalRepo) WriteEntries(ctx context.Context, matchID uuid.UUID, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO match_events (match_id, tick, kind, entity, player, detail, amount)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			matchID, int64(e.Tick), e.Kind, int64(e.Entity), int64(e.Player), e.Detail, e.Amount,
		)
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// CountEntries returns the number of events journaled for a match.
func (r *JournalRepo) CountEntries(ctx context.Context, matchID uuid.UUID) (int, error) {
	var n int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM match_events WHERE match_id = $1`, matchID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
