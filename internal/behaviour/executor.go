package behaviour

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/anim"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
)

// Actor is the mutable state of the unit executing a behaviour. Only the
// actor's own components are written.
type Actor struct {
	ID           netentity.ID
	Def          *data.Unit
	Position     *mgl32.Vec3
	Animator     *anim.Animator
	UnitAnimator *anim.UnitAnimator
}

// Execute performs b for one tick of dt seconds. It returns the damage event
// produced this tick, if any; applying it to the target is the caller's job.
func Execute(b Behaviour, a Actor, dt float32) (Hit, bool) {
	switch b := b.(type) {
	case Move:
		step(a, b.Target, dt)
	case Attack:
		return swing(a, b)
	case Idle:
		a.UnitAnimator.SetPlaying(anim.Idle)
	}
	return Hit{}, false
}

func step(a Actor, target mgl32.Vec2, dt float32) {
	diff := target.Sub(a.Position.Vec2())
	dist := diff.Len()
	if dist == 0 {
		return
	}
	a.UnitAnimator.SetPlaying(anim.Walk)

	speed := a.Def.MovementSpeed.At(a.Animator.CurrentFrame())
	move := min(dist, speed*dt)
	dir := diff.Mul(1 / dist)
	a.UnitAnimator.Face(anim.DirectionFromVec2(dir))

	*a.Position = a.Position.Add(dir.Mul(move).Vec3(0))
}

// swing deals damage on the tick a damage frame begins. Frames skipped
// between ticks deal nothing.
func swing(a Actor, b Attack) (Hit, bool) {
	if diff := b.TargetPosition.Sub(a.Position.Vec2()); diff.Len() > 0 {
		a.UnitAnimator.Face(anim.DirectionFromVec2(diff))
	}
	a.UnitAnimator.SetPlaying(anim.Attack)

	if !a.UnitAnimator.Showing(anim.Attack) || !a.Animator.FrameJustChanged() {
		return Hit{}, false
	}
	frame := a.Animator.CurrentFrame()
	dmg, ok := b.Damage[frame]
	if !ok {
		return Hit{}, false
	}
	return Hit{Attacker: a.ID, Target: b.Target, Frame: frame, Amount: dmg}, true
}
