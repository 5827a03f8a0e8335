package system

import (
	"time"

	"github.com/ChangeCaps/robots-or-smth/internal/anim"
	"github.com/ChangeCaps/robots-or-smth/internal/core/ecs"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// UnitAnimationSystem turns each unit's logical animation and facing into
// the concrete animation its animator plays. Phase 3 (PostUpdate).
type UnitAnimationSystem struct {
	world *world.State
}

func NewUnitAnimationSystem(ws *world.State) *UnitAnimationSystem {
	return &UnitAnimationSystem{world: ws}
}

func (s *UnitAnimationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *UnitAnimationSystem) Update(_ time.Duration) {
	ws := s.world
	ecs.Each2(ws.UnitAnimators, ws.Animators, func(_ ecs.EntityID, ua *anim.UnitAnimator, a *anim.Animator) {
		set, ok := ws.Assets.UnitAnimationSet(ua.Set)
		if !ok {
			return
		}
		ua.Apply(set, a)
	})
}
