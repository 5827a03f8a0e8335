package component

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/behaviour"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
)

// Owner is the player that commands a unit. Zero is neutral.
type Owner struct {
	Player player.ID
}

// Position is the authoritative world position.
type Position struct {
	mgl32.Vec3
}

// NetEntity is the network-wide identity of an entity.
type NetEntity struct {
	ID netentity.ID
}

// UnitRef names the static data a unit was spawned from. Def is nil while
// the unit definition is not loaded; systems skip such units.
type UnitRef struct {
	Name             string
	Def              *data.Unit
	AnimationSet     string
	UnitAnimationSet string
}

// Behaviour is what the unit does this tick. Recomputed every tick by the
// command system.
type Behaviour struct {
	Current behaviour.Behaviour
}

// Replicated tracks what observers were last told about an entity.
type Replicated struct {
	Position     mgl32.Vec3
	PositionSent bool
	KeyframeTick uint64 // last tick a full snapshot went out

	// Newest snapshot ticks applied on a client; older datagrams are
	// discarded.
	PositionTick uint64
	AnimatorTick uint64
}
