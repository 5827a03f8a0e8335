package handler

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/config"
	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

type fixture struct {
	deps *Deps
	reg  *packet.Registry
	bus  *event.Bus
}

func newFixture() *fixture {
	assets := data.NewAssets()
	assets.AddUnit(&data.Unit{Name: "grunt", Size: 10, SelectionSize: 10, MaxHealth: 30})
	spawn := func(x float32) data.SpawnEntry {
		return data.SpawnEntry{Unit: "grunt", X: x}
	}
	m := &data.Map{
		Name:    "duel",
		Players: []uint64{1, 2},
		Spawns:  []data.SpawnEntry{spawn(0)},
		PlayerSpawns: map[uint64][]data.SpawnEntry{
			1: {spawn(-100)},
			2: {spawn(100), {Unit: "missing"}},
		},
	}
	log := zap.NewNop()
	f := &fixture{reg: packet.NewRegistry(log), bus: event.NewBus()}
	f.deps = &Deps{
		Config:   config.Default(),
		Log:      log,
		World:    world.NewState(assets),
		Sessions: net.NewSessionStore(),
		Bus:      f.bus,
		Map:      m,
		Match:    "match-1",
	}
	RegisterAll(f.reg, f.deps)
	return f
}

func (f *fixture) connect(id uint64) *net.Session {
	sess := net.NewSession(id, nil, nil, net.Options{OutQueueSize: 16}, zap.NewNop())
	f.deps.Sessions.Add(sess)
	return sess
}

func (f *fixture) send(t *testing.T, sess *net.Session, m protocol.Message) {
	t.Helper()
	f.reg.Dispatch(sess, sess.State(), protocol.Encode(m))
	f.deps.Sessions.ForEach(func(s *net.Session) { s.FlushOutput() })
}

func received(t *testing.T, sess *net.Session) []protocol.Message {
	t.Helper()
	var out []protocol.Message
	for {
		select {
		case data := <-sess.OutQueue:
			m, err := protocol.Decode(data)
			require.NoError(t, err)
			out = append(out, m)
		default:
			return out
		}
	}
}

func (f *fixture) unitOf(t *testing.T, owner player.ID) netentity.ID {
	t.Helper()
	for _, u := range f.deps.World.UnitsByID() {
		if o, _ := f.deps.World.OwnerOf(u.Entity); o == owner {
			return u.ID
		}
	}
	t.Fatalf("no unit owned by %s", owner)
	return 0
}

func TestHandshake_AssignsSlotsAndStartsMatch(t *testing.T) {
	f := newFixture()
	alice, bob := f.connect(1), f.connect(2)

	f.send(t, alice, protocol.Hello{Name: "  alice "})
	msgs := received(t, alice)
	require.Len(t, msgs, 1)
	assert.Equal(t, protocol.Welcome{Player: 1, Map: "duel", Match: "match-1"}, msgs[0])
	assert.Equal(t, packet.StateJoined, alice.State())
	assert.Equal(t, "alice", alice.Name)
	assert.False(t, f.deps.World.Started)

	// A repeated Hello is not answered again.
	f.send(t, alice, protocol.Hello{Name: "alice"})
	assert.Empty(t, received(t, alice))

	f.send(t, bob, protocol.Hello{})
	bobMsgs := received(t, bob)
	require.Len(t, bobMsgs, 4)
	assert.Equal(t, protocol.Welcome{Player: 2, Map: "duel", Match: "match-1"}, bobMsgs[0])
	assert.Equal(t, "player2", bob.Name)

	// Neutral first, then slot 1, then slot 2; the unknown unit is skipped.
	aliceMsgs := received(t, alice)
	require.Len(t, aliceMsgs, 3)
	owners := make([]player.ID, 0, 3)
	for i, m := range aliceMsgs {
		sp, ok := m.(protocol.Spawn)
		require.True(t, ok)
		assert.Equal(t, netentity.ID(i), sp.Entity)
		owners = append(owners, sp.Descriptor.(protocol.UnitSpawn).Owner)
	}
	assert.Equal(t, []player.ID{0, 1, 2}, owners)
	assert.Equal(t, bobMsgs[1:], aliceMsgs)
	assert.True(t, f.deps.World.Started)
	assert.Equal(t, 3, f.bus.Pending())
}

func TestHandshake_FullMapClosesConnection(t *testing.T) {
	f := newFixture()
	f.send(t, f.connect(1), protocol.Hello{})
	f.send(t, f.connect(2), protocol.Hello{})

	late := f.connect(3)
	f.send(t, late, protocol.Hello{})
	assert.True(t, late.IsClosed())
	_, ok := f.deps.World.Players.PlayerOf(3)
	assert.False(t, ok)
}

func TestCommand_Authorization(t *testing.T) {
	f := newFixture()
	alice, bob := f.connect(1), f.connect(2)
	stranger := f.connect(3)

	f.send(t, alice, protocol.Hello{})
	f.send(t, bob, protocol.Hello{})
	received(t, alice)
	received(t, bob)

	mine := f.unitOf(t, 1)
	theirs := f.unitOf(t, 2)
	neutral := f.unitOf(t, 0)
	move := command.Set(&command.Move{Target: command.PositionTarget(mgl32.Vec2{5, 5}), Precise: true})

	queueLen := func(id netentity.ID) int {
		e, ok := f.deps.World.Resolve(id)
		require.True(t, ok)
		q, _ := f.deps.World.Commands.Get(e)
		return q.Len()
	}

	// not joined
	f.send(t, stranger, protocol.CommandOp{Entity: mine, Op: move})
	// someone else's unit, and a neutral one
	f.send(t, alice, protocol.CommandOp{Entity: theirs, Op: move})
	f.send(t, alice, protocol.CommandOp{Entity: neutral, Op: move})
	// stale entity
	f.send(t, alice, protocol.CommandOp{Entity: 99, Op: move})

	assert.Equal(t, 0, queueLen(mine))
	assert.Equal(t, 0, queueLen(theirs))
	assert.Equal(t, 0, queueLen(neutral))
	assert.Empty(t, received(t, alice))
	assert.Empty(t, received(t, bob))

	f.send(t, alice, protocol.CommandOp{Entity: mine, Op: move})
	assert.Equal(t, 1, queueLen(mine))

	// Relayed to every observer, sender included.
	for _, sess := range []*net.Session{alice, bob} {
		msgs := received(t, sess)
		require.Len(t, msgs, 1)
		op, ok := msgs[0].(protocol.CommandOp)
		require.True(t, ok)
		assert.Equal(t, mine, op.Entity)
		assert.Equal(t, command.OpSetCommand, op.Op.Kind)
	}
	assert.Empty(t, received(t, stranger))
}
