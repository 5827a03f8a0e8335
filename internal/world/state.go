// Package world holds the simulation state shared by the server tick and
// the observer client: ECS component stores plus the network-entity and
// player registries.
package world

import (
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/anim"
	"github.com/ChangeCaps/robots-or-smth/internal/behaviour"
	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/component"
	"github.com/ChangeCaps/robots-or-smth/internal/core/ecs"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/unit"
)

// ErrUnknownUnit reports a unit name the asset provider does not know.
var ErrUnknownUnit = errors.New("unknown unit")

// State is the game world. Accessed only from the game loop goroutine, except
// for the read-only parallel stages inside a system.
type State struct {
	ECS      *ecs.World
	Entities *netentity.Registry
	Players  *player.Registry
	Assets   *data.Assets

	Owners        *ecs.PtrComponentStore[component.Owner]
	Positions     *ecs.PtrComponentStore[component.Position]
	NetEntities   *ecs.PtrComponentStore[component.NetEntity]
	Units         *ecs.PtrComponentStore[component.UnitRef]
	Instances     *ecs.PtrComponentStore[unit.Instance]
	Commands      *ecs.PtrComponentStore[command.Queue]
	Behaviours    *ecs.PtrComponentStore[component.Behaviour]
	Animators     *ecs.PtrComponentStore[anim.Animator]
	UnitAnimators *ecs.PtrComponentStore[anim.UnitAnimator]
	Replicated    *ecs.PtrComponentStore[component.Replicated]

	// Tick counts completed simulation ticks; stamps unreliable snapshots.
	Tick uint64
	// Started is set once the map's units have been spawned.
	Started bool

	unresolved  map[ecs.EntityID]struct{}
	deferredOps map[ecs.EntityID][]unit.Operation
}

func NewState(assets *data.Assets) *State {
	s := &State{
		ECS:           ecs.NewWorld(),
		Entities:      netentity.NewRegistry(),
		Players:       player.NewRegistry(),
		Assets:        assets,
		Owners:        ecs.NewPtrComponentStore[component.Owner](),
		Positions:     ecs.NewPtrComponentStore[component.Position](),
		NetEntities:   ecs.NewPtrComponentStore[component.NetEntity](),
		Units:         ecs.NewPtrComponentStore[component.UnitRef](),
		Instances:     ecs.NewPtrComponentStore[unit.Instance](),
		Commands:      ecs.NewPtrComponentStore[command.Queue](),
		Behaviours:    ecs.NewPtrComponentStore[component.Behaviour](),
		Animators:     ecs.NewPtrComponentStore[anim.Animator](),
		UnitAnimators: ecs.NewPtrComponentStore[anim.UnitAnimator](),
		Replicated:    ecs.NewPtrComponentStore[component.Replicated](),
		unresolved:    make(map[ecs.EntityID]struct{}),
		deferredOps:   make(map[ecs.EntityID][]unit.Operation),
	}
	reg := s.ECS.Registry()
	reg.Register("owner", s.Owners)
	reg.Register("position", s.Positions)
	reg.Register("net_entity", s.NetEntities)
	reg.Register("unit", s.Units)
	reg.Register("instance", s.Instances)
	reg.Register("command_queue", s.Commands)
	reg.Register("behaviour", s.Behaviours)
	reg.Register("animator", s.Animators)
	reg.Register("unit_animator", s.UnitAnimators)
	reg.Register("replicated", s.Replicated)
	return s
}

// SpawnUnit creates the unit described by d under the network id id.
// The server passes a freshly generated id; clients pass the id they
// received. A unit whose definition is not loaded yet is created anyway with
// a nil Def and no Instance; ResolveDefinitions fills both in once the asset
// appears, and systems skip the unit until then.
func (s *State) SpawnUnit(id netentity.ID, d protocol.UnitSpawn) ecs.EntityID {
	e := s.ECS.CreateEntity()
	s.Entities.Insert(id, e)

	s.NetEntities.Set(e, &component.NetEntity{ID: id})
	s.Owners.Set(e, &component.Owner{Player: d.Owner})
	s.Positions.Set(e, &component.Position{Vec3: d.Position})
	s.Units.Set(e, &component.UnitRef{
		Name:             d.Unit,
		AnimationSet:     d.AnimationSet,
		UnitAnimationSet: d.UnitAnimationSet,
	})
	s.Commands.Set(e, &command.Queue{})
	s.Behaviours.Set(e, &component.Behaviour{Current: behaviour.Idle{}})

	ua := anim.NewUnitAnimator(d.UnitAnimationSet)
	a := anim.New(d.AnimationSet, "")
	if set, ok := s.Assets.UnitAnimationSet(d.UnitAnimationSet); ok {
		ua.Apply(set, a)
	}
	s.Animators.Set(e, a)
	s.UnitAnimators.Set(e, ua)
	s.Replicated.Set(e, &component.Replicated{})

	s.resolveDefinition(e)
	return e
}

// ResolveDefinitions binds units spawned before their definition was loaded.
// It returns the number of units resolved by this call.
func (s *State) ResolveDefinitions() int {
	if len(s.unresolved) == 0 {
		return 0
	}
	n := 0
	for e := range s.unresolved {
		if s.resolveDefinition(e) {
			n++
		}
	}
	return n
}

func (s *State) resolveDefinition(e ecs.EntityID) bool {
	ref, ok := s.Units.Get(e)
	if !ok || !s.ECS.Alive(e) {
		delete(s.unresolved, e)
		delete(s.deferredOps, e)
		return false
	}
	def, ok := s.Assets.Unit(ref.Name)
	if !ok {
		s.unresolved[e] = struct{}{}
		return false
	}
	ref.Def = def
	inst := def.Instance()
	for _, op := range s.deferredOps[e] {
		inst.Push(op)
	}
	s.Instances.Set(e, inst)
	delete(s.unresolved, e)
	delete(s.deferredOps, e)
	return true
}

// Unresolved returns the number of units still waiting for a definition.
func (s *State) Unresolved() int { return len(s.unresolved) }

// PushUnitOp queues a health operation on a unit. Operations for a unit whose
// definition is not loaded are held and replayed in order once it resolves.
func (s *State) PushUnitOp(e ecs.EntityID, op unit.Operation) {
	if inst, ok := s.Instances.Get(e); ok {
		inst.Push(op)
		return
	}
	s.deferredOps[e] = append(s.deferredOps[e], op)
}

// Despawn queues the unit for destruction and retires its network id.
// It reports false for an unknown id.
func (s *State) Despawn(id netentity.ID) (ecs.EntityID, bool) {
	e, ok := s.Entities.Get(id)
	if !ok {
		return 0, false
	}
	s.Entities.Remove(id)
	s.ECS.MarkForDestruction(e)
	delete(s.unresolved, e)
	delete(s.deferredOps, e)
	return e, true
}

// Resolve maps a network id to a live entity.
func (s *State) Resolve(id netentity.ID) (ecs.EntityID, bool) {
	e, ok := s.Entities.Get(id)
	if !ok || !s.ECS.Alive(e) || s.ECS.PendingDestruction(e) {
		return 0, false
	}
	return e, true
}

// Unit pairs an entity with its network id.
type Unit struct {
	Entity ecs.EntityID
	ID     netentity.ID
}

// UnitsByID lists live units in ascending network id order. Server and
// clients agree on this order, so it drives every order-sensitive stage.
func (s *State) UnitsByID() []Unit {
	out := make([]Unit, 0, s.NetEntities.Len())
	s.NetEntities.Each(func(e ecs.EntityID, ne *component.NetEntity) {
		if s.ECS.PendingDestruction(e) {
			return
		}
		out = append(out, Unit{Entity: e, ID: ne.ID})
	})
	slices.SortFunc(out, func(a, b Unit) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Snapshot captures every live unit's id, position and owner for the
// read-only parallel stages.
func (s *State) Snapshot() *command.Snapshot {
	units := s.UnitsByID()
	views := make([]command.UnitView, 0, len(units))
	for _, u := range units {
		pos, ok := s.Positions.Get(u.Entity)
		if !ok {
			continue
		}
		var owner player.ID
		if o, ok := s.Owners.Get(u.Entity); ok {
			owner = o.Player
		}
		views = append(views, command.UnitView{ID: u.ID, Position: pos.Vec3, Owner: owner})
	}
	return command.NewSnapshot(views)
}

// OwnerOf returns the owner of a unit.
func (s *State) OwnerOf(e ecs.EntityID) (player.ID, bool) {
	o, ok := s.Owners.Get(e)
	if !ok {
		return 0, false
	}
	return o.Player, true
}

// PositionOf returns the position of a unit.
func (s *State) PositionOf(e ecs.EntityID) (mgl32.Vec3, bool) {
	p, ok := s.Positions.Get(e)
	if !ok {
		return mgl32.Vec3{}, false
	}
	return p.Vec3, true
}
