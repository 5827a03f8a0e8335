package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/core/parallel"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/handler"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// IdleSystem gives units with nothing to do an attack on the nearest
// opposing unit within engage range. Phase 2 (Update), before commands are
// resolved.
type IdleSystem struct {
	world    *world.State
	pool     *parallel.Pool
	sessions *net.SessionStore
	bus      *event.Bus
	log      *zap.Logger
}

func NewIdleSystem(ws *world.State, pool *parallel.Pool, sessions *net.SessionStore, bus *event.Bus, log *zap.Logger) *IdleSystem {
	return &IdleSystem{world: ws, pool: pool, sessions: sessions, bus: bus, log: log}
}

func (s *IdleSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

type acquisition struct {
	unit   world.Unit
	attack *command.Attack
}

func (s *IdleSystem) Update(_ time.Duration) {
	ws := s.world
	snap := ws.Snapshot()
	units := ws.UnitsByID()

	parts, err := parallel.Map(context.Background(), s.pool, units,
		func(_ context.Context, u world.Unit) ([]acquisition, error) {
			q, ok := ws.Commands.Get(u.Entity)
			if !ok || !q.Empty() {
				return nil, nil
			}
			ref, ok := ws.Units.Get(u.Entity)
			if !ok || ref.Def == nil {
				return nil, nil
			}
			self, ok := snap.Get(u.ID)
			if !ok {
				return nil, nil
			}
			atk, ok := command.AcquireIdleTarget(ref.Def, self, snap)
			if !ok {
				return nil, nil
			}
			return []acquisition{{unit: u, attack: atk}}, nil
		})
	if err != nil {
		s.log.Error("idle scan failed", zap.Error(err))
		return
	}

	for _, a := range parallel.Flatten(parts) {
		q, _ := ws.Commands.Get(a.unit.Entity)
		op := command.Add(a.attack)
		q.Apply(op)

		handler.Broadcast(s.sessions, protocol.CommandOp{Entity: a.unit.ID, Op: op})
		event.Emit(s.bus, event.CommandApplied{Tick: ws.Tick, NetEntity: a.unit.ID, Op: op.Kind.String()})
	}
}
