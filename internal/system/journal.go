package system

import (
	"fmt"
	"time"

	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/persist"
)

// JournalSink accepts journal batches without blocking.
// persist.JournalWriter implements it.
type JournalSink interface {
	Append(entries []persist.Entry)
}

// JournalSystem records match events and hands them to the journal writer
// once per tick. Entries are stamped with the tick carried by each event.
// Phase 5 (Persist).
type JournalSystem struct {
	sink    JournalSink
	pending []persist.Entry
}

func NewJournalSystem(bus *event.Bus, sink JournalSink) *JournalSystem {
	s := &JournalSystem{sink: sink}
	event.Subscribe(bus, s.onSpawned)
	event.Subscribe(bus, s.onDied)
	event.Subscribe(bus, s.onHealth)
	event.Subscribe(bus, s.onCommand)
	event.Subscribe(bus, s.onRejected)
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	if len(s.pending) == 0 {
		return
	}
	s.sink.Append(s.pending)
	s.pending = nil
}

func (s *JournalSystem) record(e persist.Entry) {
	s.pending = append(s.pending, e)
}

func (s *JournalSystem) onSpawned(ev event.UnitSpawned) {
	s.record(persist.Entry{
		Tick:   ev.Tick,
		Kind:   persist.KindSpawn,
		Entity: uint64(ev.NetEntity),
		Player: ev.Owner,
		Detail: fmt.Sprintf("%s@%.2f,%.2f,%.2f", ev.Unit, ev.X, ev.Y, ev.Z),
	})
}

func (s *JournalSystem) onDied(ev event.UnitDied) {
	s.record(persist.Entry{Tick: ev.Tick, Kind: persist.KindDespawn, Entity: uint64(ev.NetEntity)})
}

func (s *JournalSystem) onHealth(ev event.HealthChanged) {
	s.record(persist.Entry{
		Tick:   ev.Tick,
		Kind:   persist.KindHealth,
		Entity: uint64(ev.NetEntity),
		Detail: ev.Op,
		Amount: ev.Amount,
	})
}

func (s *JournalSystem) onCommand(ev event.CommandApplied) {
	s.record(persist.Entry{
		Tick:   ev.Tick,
		Kind:   persist.KindCommand,
		Entity: uint64(ev.NetEntity),
		Player: ev.Player,
		Detail: ev.Op,
	})
}

func (s *JournalSystem) onRejected(ev event.CommandRejected) {
	s.record(persist.Entry{
		Tick:   ev.Tick,
		Kind:   persist.KindReject,
		Entity: uint64(ev.NetEntity),
		Detail: fmt.Sprintf("session %d: %s", ev.SessionID, ev.Reason),
	})
}
