// Package behaviour executes the low-level action a unit performs this tick.
//
// A Behaviour is derived from the unit's active command every tick by the
// command resolver and is never persisted or replicated.
package behaviour

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
)

// Behaviour is one of Idle, Move or Attack.
type Behaviour interface {
	isBehaviour()
	String() string
}

// Idle stands still.
type Idle struct{}

// Move walks toward Target.
type Move struct {
	Target mgl32.Vec2
}

// Attack swings at Target, standing at TargetPosition. Damage maps an
// animation frame to the damage dealt when that frame begins.
type Attack struct {
	TargetPosition mgl32.Vec2
	Target         netentity.ID
	Damage         map[int]float32
}

func (Idle) isBehaviour()   {}
func (Move) isBehaviour()   {}
func (Attack) isBehaviour() {}

func (Idle) String() string   { return "idle" }
func (Move) String() string   { return "move" }
func (Attack) String() string { return "attack" }

// Hit is a damage event produced by an attacking unit. Hits are collected
// during the parallel stage and applied to their targets afterwards.
type Hit struct {
	Attacker netentity.ID
	Target   netentity.ID
	Frame    int
	Amount   float32
}
