package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/core/parallel"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// CommandSystem turns every unit's active command into this tick's
// behaviour. Each worker writes only the queue and behaviour of the unit it
// was handed; other units are read from a snapshot. Phase 2 (Update).
type CommandSystem struct {
	world *world.State
	pool  *parallel.Pool
	log   *zap.Logger
}

func NewCommandSystem(ws *world.State, pool *parallel.Pool, log *zap.Logger) *CommandSystem {
	return &CommandSystem{world: ws, pool: pool, log: log}
}

func (s *CommandSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CommandSystem) Update(_ time.Duration) {
	ws := s.world
	snap := ws.Snapshot()

	err := parallel.ForEach(context.Background(), s.pool, ws.UnitsByID(),
		func(_ context.Context, u world.Unit) error {
			q, ok := ws.Commands.Get(u.Entity)
			if !ok {
				return nil
			}
			beh, ok := ws.Behaviours.Get(u.Entity)
			if !ok {
				return nil
			}
			ref, ok := ws.Units.Get(u.Entity)
			if !ok || ref.Def == nil {
				return nil
			}
			self, ok := snap.Get(u.ID)
			if !ok {
				return nil
			}
			in := command.Input{
				Unit:     ref.Def,
				Position: self.Position,
				Owner:    self.Owner,
				World:    snap,
			}
			if a, ok := ws.Animators.Get(u.Entity); ok {
				in.Frame = a.CurrentFrame()
			}
			beh.Current = command.Drive(q, in, beh.Current)
			return nil
		})
	if err != nil {
		s.log.Error("command resolution failed", zap.Error(err))
	}
}
