package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/handler"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// HealthSystem drains every unit's operation log, replicates each applied
// operation and despawns units whose health reached zero. Phase 2 (Update),
// after behaviours.
type HealthSystem struct {
	world    *world.State
	sessions *net.SessionStore
	bus      *event.Bus
	log      *zap.Logger
}

func NewHealthSystem(ws *world.State, sessions *net.SessionStore, bus *event.Bus, log *zap.Logger) *HealthSystem {
	return &HealthSystem{world: ws, sessions: sessions, bus: bus, log: log}
}

func (s *HealthSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *HealthSystem) Update(_ time.Duration) {
	ws := s.world
	for _, u := range ws.UnitsByID() {
		inst, ok := ws.Instances.Get(u.Entity)
		if !ok || inst.Pending() == 0 {
			continue
		}
		for _, applied := range inst.Drain() {
			handler.Broadcast(s.sessions, protocol.UnitOp{Entity: u.ID, Op: applied.Op})
			event.Emit(s.bus, event.HealthChanged{
				Tick:      ws.Tick,
				NetEntity: u.ID,
				Op:        applied.Op.Kind.String(),
				Amount:    applied.Op.Amount,
				Health:    applied.Health,
			})
		}
		if !inst.Dead() {
			continue
		}

		ws.Despawn(u.ID)
		handler.Broadcast(s.sessions, protocol.Despawn{Entity: u.ID})
		event.Emit(s.bus, event.UnitDied{Tick: ws.Tick, Entity: u.Entity, NetEntity: u.ID})
		s.log.Debug("unit died", zap.Stringer("entity", u.ID))
	}
}
