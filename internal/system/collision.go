package system

import (
	"math/rand/v2"
	"time"

	"github.com/ChangeCaps/robots-or-smth/internal/behaviour"
	"github.com/ChangeCaps/robots-or-smth/internal/collision"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// CollisionSystem pushes overlapping units apart once per tick, visiting
// pairs in network id order. Phase 3 (PostUpdate).
type CollisionSystem struct {
	world  *world.State
	rng    *rand.Rand
	bodies []collision.Body
}

// NewCollisionSystem seeds the generator used for coincident units, so a
// replay with the same seed separates them identically.
func NewCollisionSystem(ws *world.State, seed uint64) *CollisionSystem {
	return &CollisionSystem{
		world: ws,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *CollisionSystem) Update(_ time.Duration) {
	ws := s.world
	s.bodies = s.bodies[:0]
	for _, u := range ws.UnitsByID() {
		pos, ok := ws.Positions.Get(u.Entity)
		if !ok {
			continue
		}
		ref, ok := ws.Units.Get(u.Entity)
		if !ok || ref.Def == nil {
			continue
		}
		var priority float32
		if beh, ok := ws.Behaviours.Get(u.Entity); ok {
			if _, moving := beh.Current.(behaviour.Move); moving {
				priority = ref.Def.MovementPriority
			}
		}
		s.bodies = append(s.bodies, collision.Body{
			Position: &pos.Vec3,
			Size:     ref.Def.Size,
			Priority: priority,
		})
	}
	collision.Resolve(s.bodies, s.rng)
}
