package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// HandleHandshake processes Hello. The first Hello of a connection claims
// the first free player slot and is answered with Welcome exactly once.
func HandleHandshake(sess *net.Session, r *packet.Reader, deps *Deps) {
	msg, err := protocol.Read(r)
	if err != nil {
		deps.Log.Debug("malformed handshake", zap.Uint64("session", sess.ID), zap.Error(err))
		return
	}
	hello, ok := msg.(protocol.Hello)
	if !ok {
		deps.Log.Debug("unexpected handshake message", zap.Uint64("session", sess.ID), zap.Stringer("kind", msg.Channel()))
		return
	}

	ws := deps.World
	if id, joined := ws.Players.PlayerOf(sess.ID); joined {
		deps.Log.Warn("repeated hello from joined connection",
			zap.Uint64("session", sess.ID),
			zap.Stringer("player", id),
		)
		return
	}

	id, ok := ws.Players.FirstFree(deps.slots())
	if !ok {
		deps.Log.Warn("no free player slot, closing connection",
			zap.Uint64("session", sess.ID),
			zap.String("addr", sess.Addr),
		)
		sess.Close()
		return
	}

	name := player.NormalizeName(hello.Name, fmt.Sprintf("player%d", id))
	ws.Players.Insert(id, sess.ID, name)
	sess.Name = name
	sess.SetState(packet.StateJoined)

	protocol.Send(sess, protocol.Welcome{Player: id, Map: deps.Map.Name, Match: deps.Match})
	deps.Log.Info("player joined",
		zap.Uint64("session", sess.ID),
		zap.Stringer("player", id),
		zap.String("name", name),
	)

	if !ws.Started && ws.Players.AllConnected(deps.slots()) {
		StartMatch(deps)
	}
}

func (d *Deps) slots() []player.ID {
	out := make([]player.ID, len(d.Map.Players))
	for i, p := range d.Map.Players {
		out[i] = player.ID(p)
	}
	return out
}

// StartMatch spawns the map's units and announces each one. Runs once, when
// the last player slot is filled.
func StartMatch(deps *Deps) {
	ws := deps.World
	ws.Started = true

	spawned := 0
	for _, sp := range deps.Map.StartSpawns() {
		desc := protocol.UnitSpawn{
			Position:         sp.Position(),
			Owner:            player.ID(sp.Owner),
			Unit:             sp.Unit,
			AnimationSet:     sp.AnimationSet,
			UnitAnimationSet: sp.UnitAnimationSet,
		}
		if _, err := SpawnUnit(deps, desc); err != nil {
			deps.Log.Warn("map spawn skipped", zap.String("unit", sp.Unit), zap.Error(err))
			continue
		}
		spawned++
	}
	deps.Log.Info("match started", zap.String("map", deps.Map.Name), zap.Int("units", spawned))
}

// SpawnUnit spawns a unit under a fresh network id and broadcasts it.
func SpawnUnit(deps *Deps, desc protocol.UnitSpawn) (protocol.Spawn, error) {
	ws := deps.World
	// The server loads every asset at startup; a name it cannot resolve now
	// never will.
	if _, ok := ws.Assets.Unit(desc.Unit); !ok {
		return protocol.Spawn{}, fmt.Errorf("%w: %q", world.ErrUnknownUnit, desc.Unit)
	}
	id := ws.Entities.Generate()
	e := ws.SpawnUnit(id, desc)
	msg := protocol.Spawn{Entity: id, Descriptor: desc}
	Broadcast(deps.Sessions, msg)
	event.Emit(deps.Bus, event.UnitSpawned{
		Tick:      ws.Tick,
		Entity:    e,
		NetEntity: id,
		Unit:      desc.Unit,
		Owner:     uint64(desc.Owner),
		X:         desc.Position.X(),
		Y:         desc.Position.Y(),
		Z:         desc.Position.Z(),
	})
	return msg, nil
}
