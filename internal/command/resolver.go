package command

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/behaviour"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
)

// PreciseThreshold is the arrival distance of a precise Move and of an
// Attack's target position.
const PreciseThreshold = 0.1

// approachFactor scales unit size into the arrival distance of a loose Move.
const approachFactor = 1.1

// Flow is what the resolver wants done with the active command.
type Flow uint8

const (
	// Wait leaves the unit's behaviour unchanged.
	Wait Flow = iota
	// Emit sets the unit's behaviour to Result.Behaviour.
	Emit
	// Completed pops the active command.
	Completed
)

func (f Flow) String() string {
	switch f {
	case Wait:
		return "wait"
	case Emit:
		return "emit"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// Result is the outcome of resolving one command for one tick.
type Result struct {
	Flow      Flow
	Behaviour behaviour.Behaviour
	// Lock is meaningful for Emit: the queue must be locked for this tick.
	Lock bool
}

func emit(b behaviour.Behaviour) Result { return Result{Flow: Emit, Behaviour: b} }

var completed = Result{Flow: Completed}

// Input is everything the resolver may read about the resolving unit.
type Input struct {
	Unit     *data.Unit
	Position mgl32.Vec3
	Owner    player.ID
	// Frame is the unit's current animation frame.
	Frame int
	// RequestCancel is set when a replacement command is waiting on the lock.
	RequestCancel bool
	World         *Snapshot
}

// Resolve advances cmd by one tick. cmd is mutated in place: an Attack may
// gain, change or drop its target.
func Resolve(cmd Command, in Input) Result {
	switch c := cmd.(type) {
	case *Move:
		return resolveMove(c, in)
	case *Attack:
		return resolveAttack(c, in)
	}
	return completed
}

func resolveMove(m *Move, in Input) Result {
	if in.RequestCancel {
		return completed
	}
	target := m.Target.Position
	if m.Target.IsUnit {
		v, ok := in.World.Get(m.Target.Unit)
		if !ok {
			return completed
		}
		target = v.Pos2()
	}

	threshold := in.Unit.Size * approachFactor
	if m.Precise {
		threshold = PreciseThreshold
	}
	if target.Sub(in.Position.Vec2()).Len() < threshold {
		return completed
	}
	return emit(behaviour.Move{Target: target})
}

// resolveAttack decides one tick of an Attack command. A target out of
// attack range is chased with Move when Persue is set. Without Persue a
// pending cancel completes the command, a target beyond engage range is
// dropped, and a target between attack and engage range is approached with
// Move, not attacked: Attack is only emitted once the target is in range.
func resolveAttack(a *Attack, in Input) Result {
	atk := in.Unit.Attack
	if atk == nil {
		return completed
	}
	self := in.Position.Vec2()
	engaging := a.TargetUnit != nil

	if a.TargetUnit != nil {
		v, ok := in.World.Get(*a.TargetUnit)
		if !ok {
			a.TargetUnit = nil
		} else if d := v.Pos2().Sub(self).Len(); d > atk.Range {
			switch {
			case a.Persue:
				return emit(behaviour.Move{Target: v.Pos2()})
			case in.RequestCancel:
				return completed
			case d > atk.EngageRange:
				a.TargetUnit = nil
			default:
				return emit(behaviour.Move{Target: v.Pos2()})
			}
		}
	}

	if a.TargetUnit == nil && (a.TargetPosition != nil || engaging) {
		if v, ok := in.World.NearestOpposing(self, in.Owner, atk.Range); ok {
			id := v.ID
			a.TargetUnit = &id
		}
	}

	if a.TargetPosition != nil && a.TargetPosition.Sub(self).Len() < PreciseThreshold {
		a.TargetPosition = nil
	}

	if a.TargetUnit != nil {
		v, _ := in.World.Get(*a.TargetUnit)
		return Result{
			Flow: Emit,
			Behaviour: behaviour.Attack{
				TargetPosition: v.Pos2(),
				Target:         v.ID,
				Damage:         atk.Damage,
			},
			Lock: atk.AnimationLock.Contains(in.Frame),
		}
	}
	if a.TargetPosition != nil {
		return emit(behaviour.Move{Target: *a.TargetPosition})
	}
	return completed
}

// AcquireIdleTarget returns the Attack an idle unit starts on its own: the
// nearest opposing unit within engage range, not pursued.
func AcquireIdleTarget(u *data.Unit, self UnitView, world *Snapshot) (*Attack, bool) {
	if u.Attack == nil {
		return nil, false
	}
	v, ok := world.NearestOpposing(self.Pos2(), self.Owner, u.Attack.EngageRange)
	if !ok {
		return nil, false
	}
	return AttackUnit(v.ID, false), true
}

// Drive runs the resolver against q until it settles on a behaviour for this
// tick, popping completed commands and honouring the lock window. An empty
// queue always yields Idle. prev is returned unchanged on Wait.
func Drive(q *Queue, in Input, prev behaviour.Behaviour) behaviour.Behaviour {
	for {
		active := q.Active()
		if active == nil {
			q.Unlock()
			if q.Active() != nil {
				continue
			}
			return behaviour.Idle{}
		}
		in.RequestCancel = q.RequestCancel()
		res := Resolve(active, in)
		switch res.Flow {
		case Completed:
			q.Complete()
			continue
		case Wait:
			return prev
		}
		if res.Lock {
			q.Lock()
			return res.Behaviour
		}
		if q.Unlock() {
			continue
		}
		return res.Behaviour
	}
}
