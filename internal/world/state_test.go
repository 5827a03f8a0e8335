package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/unit"
)

func testAssets() *data.Assets {
	a := data.NewAssets()
	a.AddUnit(&data.Unit{Name: "grunt", Size: 10, SelectionSize: 10, MaxHealth: 50})
	a.AddUnitAnimationSet(&data.UnitAnimationSet{Name: "grunt", Animations: map[string]data.UnitAnimation{
		"idle": {Up: "idle_up", UpRight: "idle_up_right", Right: "idle_right", DownRight: "idle_down_right",
			Down: "idle_down", DownLeft: "idle_down_left", Left: "idle_left", UpLeft: "idle_up_left"},
	}})
	return a
}

func spawn(t *testing.T, s *State, owner uint64, pos mgl32.Vec3) netentity.ID {
	t.Helper()
	id := s.Entities.Generate()
	s.SpawnUnit(id, protocol.UnitSpawn{Position: pos, Owner: player.ID(owner), Unit: "grunt", UnitAnimationSet: "grunt"})
	return id
}

func TestSpawnUnit(t *testing.T) {
	s := NewState(testAssets())
	id := spawn(t, s, 1, mgl32.Vec3{1, 2, 0})

	e, ok := s.Resolve(id)
	require.True(t, ok)
	pos, _ := s.PositionOf(e)
	assert.Equal(t, mgl32.Vec3{1, 2, 0}, pos)
	inst, _ := s.Instances.Get(e)
	assert.Equal(t, float32(50), inst.Health)
	a, _ := s.Animators.Get(e)
	assert.Equal(t, "idle_down", a.Playing())
	assert.Contains(t, s.ECS.Registry().Components(e), "instance")
}

func TestSpawnUnit_DefinitionResolvesLater(t *testing.T) {
	s := NewState(testAssets())
	id := s.Entities.Generate()
	e := s.SpawnUnit(id, protocol.UnitSpawn{Unit: "tank", Owner: 2})

	got, ok := s.Resolve(id)
	require.True(t, ok)
	assert.Equal(t, e, got)
	ref, _ := s.Units.Get(e)
	assert.Nil(t, ref.Def)
	assert.False(t, s.Instances.Has(e))
	assert.NotContains(t, s.ECS.Registry().Components(e), "instance")

	s.PushUnitOp(e, unit.SubtractHealth(30))
	s.PushUnitOp(e, unit.SubtractHealth(5))
	assert.Zero(t, s.ResolveDefinitions())

	s.Assets.AddUnit(&data.Unit{Name: "tank", Size: 20, SelectionSize: 20, MaxHealth: 200})
	assert.Equal(t, 1, s.ResolveDefinitions())
	assert.Zero(t, s.Unresolved())

	ref, _ = s.Units.Get(e)
	require.NotNil(t, ref.Def)
	inst, ok := s.Instances.Get(e)
	require.True(t, ok)
	assert.Equal(t, 2, inst.Pending())
	inst.Drain()
	assert.Equal(t, float32(165), inst.Health)
}

func TestDespawnForgetsUnresolvedUnit(t *testing.T) {
	s := NewState(testAssets())
	id := s.Entities.Generate()
	s.SpawnUnit(id, protocol.UnitSpawn{Unit: "tank"})
	require.Equal(t, 1, s.Unresolved())

	s.Despawn(id)
	assert.Zero(t, s.Unresolved())
}

func TestDespawnHidesUnitImmediately(t *testing.T) {
	s := NewState(testAssets())
	a := spawn(t, s, 1, mgl32.Vec3{})
	b := spawn(t, s, 2, mgl32.Vec3{5, 0, 0})

	_, ok := s.Despawn(a)
	require.True(t, ok)
	_, ok = s.Resolve(a)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Snapshot().Len())

	s.ECS.FlushDestroyQueue()
	assert.Equal(t, 1, s.Positions.Len())
	_, ok = s.Resolve(b)
	assert.True(t, ok)

	_, ok = s.Despawn(a)
	assert.False(t, ok)
}

func TestChecksumTracksState(t *testing.T) {
	s := NewState(testAssets())
	id := spawn(t, s, 1, mgl32.Vec3{})
	before := s.Checksum()
	assert.Equal(t, before, s.Checksum())

	e, _ := s.Resolve(id)
	p, _ := s.Positions.Get(e)
	p.Vec3 = mgl32.Vec3{0.5, 0, 0}
	assert.NotEqual(t, before, s.Checksum())

	other := NewState(testAssets())
	oid := spawn(t, other, 1, mgl32.Vec3{})
	oe, _ := other.Resolve(oid)
	op, _ := other.Positions.Get(oe)
	op.Vec3 = mgl32.Vec3{0.5, 0, 0}
	assert.Equal(t, s.Checksum(), other.Checksum())
}
