package system

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/behaviour"
	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/config"
	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/core/parallel"
	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/handler"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/persist"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

const dt = time.Second / 60

func sameEverywhere(name string) data.UnitAnimation {
	return data.UnitAnimation{
		Up: name, UpRight: name, Right: name, DownRight: name,
		Down: name, DownLeft: name, Left: name, UpLeft: name,
	}
}

func testAssets() *data.Assets {
	a := data.NewAssets()
	a.AddUnit(&data.Unit{
		Name: "soldier", Size: 10, SelectionSize: 10, MovementPriority: 1,
		MovementSpeed: data.MovementSpeed{Speed: 120},
		MaxHealth:     100,
		Attack: &data.Attack{
			Range:         50,
			EngageRange:   150,
			AnimationLock: data.FrameRange{Start: 2, End: 4},
			Damage:        map[int]float32{4: 25},
		},
	})
	a.AddUnit(&data.Unit{Name: "dummy", Size: 10, SelectionSize: 10, MaxHealth: 50})
	a.AddUnit(&data.Unit{Name: "wall", Size: 10, SelectionSize: 10, MaxHealth: 10000})
	a.AddAnimationSet(&data.AnimationSet{Name: "basic", Animations: map[string]data.Animation{
		"idle":   {Frames: 1, FrameLength: 1},
		"walk":   {Frames: 4, FrameLength: 0.1},
		"attack": {Frames: 6, FrameLength: 0.05},
	}})
	a.AddUnitAnimationSet(&data.UnitAnimationSet{Name: "basic", Animations: map[string]data.UnitAnimation{
		"idle":   sameEverywhere("idle"),
		"walk":   sameEverywhere("walk"),
		"attack": sameEverywhere("attack"),
	}})
	return a
}

type recordingSink struct {
	entries []persist.Entry
}

func (s *recordingSink) Append(entries []persist.Entry) { s.entries = append(s.entries, entries...) }

type harness struct {
	ws       *world.State
	runner   *coresys.Runner
	sessions *net.SessionStore
	sink     *recordingSink
}

func newHarness(t *testing.T, m *data.Map) *harness {
	t.Helper()
	log := zap.NewNop()
	if m == nil {
		m = &data.Map{Name: "test", Players: []uint64{1, 2}}
	}
	h := &harness{
		ws:       world.NewState(testAssets()),
		sessions: net.NewSessionStore(),
		sink:     &recordingSink{},
	}
	bus := event.NewBus()
	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{
		Config:   config.Default(),
		Log:      log,
		World:    h.ws,
		Sessions: h.sessions,
		Bus:      bus,
		Map:      m,
		Match:    "test-match",
	})
	h.runner = NewServerRunner(ServerSetup{
		World:    h.ws,
		Registry: reg,
		Sessions: h.sessions,
		Bus:      bus,
		Pool:     parallel.NewPool(3),
		Journal:  h.sink,
		Seed:     1,

		SnapshotInterval: 30,
		Log:              log,
	})
	return h
}

func (h *harness) spawn(t *testing.T, unitName string, owner player.ID, pos mgl32.Vec3) netentity.ID {
	t.Helper()
	id := h.ws.Entities.Generate()
	h.ws.SpawnUnit(id, protocol.UnitSpawn{
		Position:         pos,
		Owner:            owner,
		Unit:             unitName,
		AnimationSet:     "basic",
		UnitAnimationSet: "basic",
	})
	return id
}

func (h *harness) queue(t *testing.T, id netentity.ID) *command.Queue {
	t.Helper()
	e, ok := h.ws.Resolve(id)
	require.True(t, ok)
	q, _ := h.ws.Commands.Get(e)
	return q
}

func (h *harness) behaviour(t *testing.T, id netentity.ID) behaviour.Behaviour {
	t.Helper()
	e, ok := h.ws.Resolve(id)
	require.True(t, ok)
	b, _ := h.ws.Behaviours.Get(e)
	return b.Current
}

func (h *harness) position(t *testing.T, id netentity.ID) mgl32.Vec3 {
	t.Helper()
	e, ok := h.ws.Resolve(id)
	require.True(t, ok)
	p, _ := h.ws.PositionOf(e)
	return p
}

func (h *harness) health(t *testing.T, id netentity.ID) float32 {
	t.Helper()
	e, ok := h.ws.Resolve(id)
	require.True(t, ok)
	inst, _ := h.ws.Instances.Get(e)
	return inst.Health
}

func (h *harness) alive(id netentity.ID) bool {
	_, ok := h.ws.Resolve(id)
	return ok
}

func TestPursuitUntilTargetDies(t *testing.T) {
	h := newHarness(t, nil)
	hunter := h.spawn(t, "soldier", 1, mgl32.Vec3{0, 0, 0})
	prey := h.spawn(t, "dummy", 2, mgl32.Vec3{300, 0, 0})
	h.queue(t, hunter).SetCommand(command.AttackUnit(prey, true))

	h.runner.Tick(dt)
	assert.IsType(t, behaviour.Move{}, h.behaviour(t, hunter))

	var healthSeen []float32
	for i := 0; i < 600 && h.alive(prey); i++ {
		h.runner.Tick(dt)
		if h.alive(prey) {
			hp := h.health(t, prey)
			if len(healthSeen) == 0 || healthSeen[len(healthSeen)-1] != hp {
				healthSeen = append(healthSeen, hp)
			}
		}
	}
	require.False(t, h.alive(prey), "prey should have died")
	assert.Equal(t, []float32{50, 25}, healthSeen)

	// The hunter stopped at the edge of its attack range.
	assert.InDelta(t, 250, h.position(t, hunter).X(), 2.1)

	h.runner.Tick(dt)
	assert.True(t, h.queue(t, hunter).Empty())
	assert.Equal(t, behaviour.Idle{}, h.behaviour(t, hunter))

	kinds := map[string]int{}
	for _, e := range h.sink.entries {
		kinds[e.Kind]++
	}
	assert.Equal(t, 2, kinds[persist.KindHealth])
	assert.Equal(t, 1, kinds[persist.KindDespawn])
}

func TestJournalStampsEventTick(t *testing.T) {
	h := newHarness(t, nil)
	hunter := h.spawn(t, "soldier", 1, mgl32.Vec3{0, 0, 0})
	prey := h.spawn(t, "dummy", 2, mgl32.Vec3{200, 0, 0})
	h.queue(t, hunter).SetCommand(command.AttackUnit(prey, true))

	var hitTicks []uint64
	var diedAt uint64
	last := h.health(t, prey)
	for i := 0; i < 600 && h.alive(prey); i++ {
		tick := h.ws.Tick
		h.runner.Tick(dt)
		if !h.alive(prey) {
			hitTicks = append(hitTicks, tick)
			diedAt = tick
			break
		}
		if hp := h.health(t, prey); hp != last {
			hitTicks = append(hitTicks, tick)
			last = hp
		}
	}
	require.False(t, h.alive(prey))

	// Events are journaled on the tick after they happen.
	h.runner.Tick(dt)

	var healthTicks []uint64
	for _, e := range h.sink.entries {
		switch e.Kind {
		case persist.KindHealth:
			healthTicks = append(healthTicks, e.Tick)
		case persist.KindDespawn:
			assert.Equal(t, diedAt, e.Tick)
		}
	}
	assert.Equal(t, hitTicks, healthTicks)
}

func TestLockedSwingBuffersReplacement(t *testing.T) {
	h := newHarness(t, nil)
	attacker := h.spawn(t, "soldier", 1, mgl32.Vec3{0, 0, 0})
	wall := h.spawn(t, "wall", 2, mgl32.Vec3{30, 0, 0})
	q := h.queue(t, attacker)
	q.SetCommand(command.AttackUnit(wall, false))

	for i := 0; i < 120 && !q.Locked(); i++ {
		h.runner.Tick(dt)
	}
	require.True(t, q.Locked(), "attack should enter its lock window")
	assert.Equal(t, float32(10000), h.health(t, wall))

	retreat := &command.Move{Target: command.PositionTarget(mgl32.Vec2{-100, 0})}
	q.SetCommand(retreat)
	assert.Equal(t, 1, q.Len())
	assert.Same(t, retreat, q.Awaiting())

	for i := 0; i < 120 && q.Locked(); i++ {
		h.runner.Tick(dt)
		if q.Locked() {
			assert.IsType(t, behaviour.Attack{}, h.behaviour(t, attacker))
		}
	}
	require.False(t, q.Locked())

	// The swing finished its damage frame before the retreat took over.
	assert.Equal(t, float32(10000-25), h.health(t, wall))
	assert.Same(t, retreat, q.Active())
	assert.Nil(t, q.Awaiting())
	assert.IsType(t, behaviour.Move{}, h.behaviour(t, attacker))
}

func TestIdleUnitAcquiresTargetInEngageRange(t *testing.T) {
	h := newHarness(t, nil)
	guard := h.spawn(t, "soldier", 1, mgl32.Vec3{0, 0, 0})
	far := h.spawn(t, "dummy", 2, mgl32.Vec3{400, 0, 0})

	h.runner.Tick(dt)
	assert.True(t, h.queue(t, guard).Empty())

	near := h.spawn(t, "dummy", 2, mgl32.Vec3{120, 0, 0})
	h.runner.Tick(dt)

	q := h.queue(t, guard)
	require.Equal(t, 1, q.Len())
	atk, ok := q.Active().(*command.Attack)
	require.True(t, ok)
	require.NotNil(t, atk.TargetUnit)
	assert.Equal(t, near, *atk.TargetUnit)
	assert.False(t, atk.Persue)
	assert.NotEqual(t, far, *atk.TargetUnit)
}

func TestCollisionSeparatesIdleUnits(t *testing.T) {
	h := newHarness(t, nil)
	a := h.spawn(t, "dummy", 1, mgl32.Vec3{0, 0, 0})
	b := h.spawn(t, "dummy", 1, mgl32.Vec3{10, 0, 0})

	h.runner.Tick(dt)
	assert.InDelta(t, -5, h.position(t, a).X(), 1e-4)
	assert.InDelta(t, 15, h.position(t, b).X(), 1e-4)
}

func TestChecksumIsDeterministic(t *testing.T) {
	run := func() world.Digest {
		h := newHarness(t, nil)
		a := h.spawn(t, "soldier", 1, mgl32.Vec3{0, 0, 0})
		h.spawn(t, "soldier", 2, mgl32.Vec3{100, 20, 0})
		h.spawn(t, "dummy", 0, mgl32.Vec3{50, 50, 0})
		h.spawn(t, "dummy", 0, mgl32.Vec3{50, 50, 0})
		h.queue(t, a).SetCommand(&command.Move{Target: command.PositionTarget(mgl32.Vec2{60, 40})})
		for i := 0; i < 240; i++ {
			h.runner.Tick(dt)
		}
		return h.ws.Checksum()
	}
	assert.Equal(t, run(), run())
}

func TestReplicationResendsUnitsAtRest(t *testing.T) {
	h := newHarness(t, nil)
	sess := net.NewSession(1, nil, nil, net.Options{OutQueueSize: 64, DatagramQueueSize: 4096}, zap.NewNop())
	sess.SetState(packet.StateJoined)
	h.sessions.Add(sess)

	h.spawn(t, "dummy", 0, mgl32.Vec3{10, 10, 0})
	for i := 0; i < 5; i++ {
		h.runner.Tick(dt)
	}
	settled := sess.DatagramBacklog()
	require.Positive(t, settled)

	// Nothing moves, yet position and animator keyframes keep coming.
	for i := 0; i < 600; i++ {
		h.runner.Tick(dt)
	}
	resent := sess.DatagramBacklog() - settled
	assert.InDelta(t, 40, resent, 2, "expected one position and one animator state every 30 ticks")
}

func TestUnitWaitsForItsDefinition(t *testing.T) {
	h := newHarness(t, nil)
	tank := h.spawn(t, "tank", 1, mgl32.Vec3{0, 0, 0})
	h.queue(t, tank).SetCommand(&command.Move{Target: command.PositionTarget(mgl32.Vec2{100, 0})})

	for i := 0; i < 10; i++ {
		h.runner.Tick(dt)
	}
	require.True(t, h.alive(tank))
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, h.position(t, tank))
	e, _ := h.ws.Resolve(tank)
	assert.False(t, h.ws.Instances.Has(e))
	assert.Equal(t, 1, h.ws.Unresolved())

	h.ws.Assets.AddUnit(&data.Unit{
		Name: "tank", Size: 10, SelectionSize: 10,
		MovementSpeed: data.MovementSpeed{Speed: 60},
		MaxHealth:     300,
	})
	for i := 0; i < 10; i++ {
		h.runner.Tick(dt)
	}
	assert.Zero(t, h.ws.Unresolved())
	assert.Greater(t, h.position(t, tank).X(), float32(5))
	assert.Equal(t, float32(300), h.health(t, tank))
}
