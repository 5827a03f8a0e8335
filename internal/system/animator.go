package system

import (
	"time"

	"github.com/ChangeCaps/robots-or-smth/internal/anim"
	"github.com/ChangeCaps/robots-or-smth/internal/core/ecs"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// AnimatorSystem advances every animator by one tick and recomputes the
// frame-changed edge the behaviour stage reads. Phase 1 (PreUpdate).
type AnimatorSystem struct {
	world *world.State
}

func NewAnimatorSystem(ws *world.State) *AnimatorSystem {
	return &AnimatorSystem{world: ws}
}

func (s *AnimatorSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *AnimatorSystem) Update(dt time.Duration) {
	secs := float32(dt.Seconds())
	s.world.Animators.Each(func(_ ecs.EntityID, a *anim.Animator) {
		set, ok := s.world.Assets.AnimationSet(a.Set)
		if !ok {
			return
		}
		clip, ok := set.Get(a.Playing())
		if !ok {
			return
		}
		a.Tick(clip, secs)
	})
}
