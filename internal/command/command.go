// Package command holds the per-unit order queue and the resolver that turns
// the active order into a behaviour every tick.
package command

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
)

// Command is a high-level order: *Move or *Attack. The resolver mutates the
// active command in place, so the queue stores pointers.
type Command interface {
	isCommand()
	Clone() Command
	String() string
}

// Target is either a fixed position or a unit whose live position is used.
type Target struct {
	Position mgl32.Vec2
	Unit     netentity.ID
	IsUnit   bool
}

// PositionTarget targets a fixed world position.
func PositionTarget(p mgl32.Vec2) Target { return Target{Position: p} }

// UnitTarget targets a unit.
func UnitTarget(id netentity.ID) Target { return Target{Unit: id, IsUnit: true} }

func (t Target) String() string {
	if t.IsUnit {
		return t.Unit.String()
	}
	return fmt.Sprintf("(%.1f,%.1f)", t.Position.X(), t.Position.Y())
}

// Move walks to Target. Precise moves stop within 0.1 units, others within
// 1.1 unit sizes.
type Move struct {
	Target  Target
	Precise bool
}

// Attack attacks TargetUnit, or walks to TargetPosition engaging whatever
// comes into range on the way. Persue keeps chasing a target that leaves
// attack range.
type Attack struct {
	TargetPosition *mgl32.Vec2
	TargetUnit     *netentity.ID
	Persue         bool
}

func (*Move) isCommand()   {}
func (*Attack) isCommand() {}

func (m *Move) Clone() Command {
	c := *m
	return &c
}

func (a *Attack) Clone() Command {
	c := &Attack{Persue: a.Persue}
	if a.TargetPosition != nil {
		p := *a.TargetPosition
		c.TargetPosition = &p
	}
	if a.TargetUnit != nil {
		u := *a.TargetUnit
		c.TargetUnit = &u
	}
	return c
}

func (m *Move) String() string {
	return fmt.Sprintf("move(%s precise=%t)", m.Target, m.Precise)
}

func (a *Attack) String() string {
	pos, unit := "-", "-"
	if a.TargetPosition != nil {
		pos = fmt.Sprintf("(%.1f,%.1f)", a.TargetPosition.X(), a.TargetPosition.Y())
	}
	if a.TargetUnit != nil {
		unit = a.TargetUnit.String()
	}
	return fmt.Sprintf("attack(pos=%s unit=%s persue=%t)", pos, unit, a.Persue)
}

// AttackUnit returns an Attack order against id.
func AttackUnit(id netentity.ID, persue bool) *Attack {
	return &Attack{TargetUnit: &id, Persue: persue}
}

// AttackMove returns an Attack order that walks to p engaging on the way.
func AttackMove(p mgl32.Vec2) *Attack {
	return &Attack{TargetPosition: &p}
}
