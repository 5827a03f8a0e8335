// Package client applies replicated server state to a local world. The
// headless observer uses it; a rendering client would too.
package client

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// ErrStale reports a message about an entity the client does not know.
var ErrStale = errors.New("stale entity reference")

// Client mirrors the server's world. Game loop only.
type Client struct {
	World     *world.State
	Handshake *Handshake

	Player player.ID
	Map    string
	Match  string

	log *zap.Logger
}

func New(ws *world.State, name string, helloInterval time.Duration, log *zap.Logger) *Client {
	return &Client{
		World:     ws,
		Handshake: NewHandshake(name, helloInterval),
		log:       log,
	}
}

// Joined reports whether Welcome has arrived.
func (c *Client) Joined() bool { return c.Player != 0 }

// Handle decodes and applies one received message.
func (c *Client) Handle(data []byte) error {
	m, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	return c.Apply(m)
}

// Apply applies a decoded message. Messages naming unknown entities are
// skipped with ErrStale.
func (c *Client) Apply(m protocol.Message) error {
	ws := c.World
	switch m := m.(type) {
	case protocol.Welcome:
		if c.Joined() {
			c.log.Warn("duplicate welcome", zap.Stringer("player", m.Player))
			return nil
		}
		c.Player, c.Map, c.Match = m.Player, m.Map, m.Match
		c.Handshake.Done()
		c.log.Info("joined", zap.Stringer("player", m.Player), zap.String("map", m.Map), zap.String("match", m.Match))

	case protocol.Spawn:
		desc, ok := m.Descriptor.(protocol.UnitSpawn)
		if !ok {
			return fmt.Errorf("spawn %s: unsupported descriptor %T", m.Entity, m.Descriptor)
		}
		if _, known := ws.Resolve(m.Entity); known {
			return nil
		}
		ws.SpawnUnit(m.Entity, desc)
		ws.Started = true

	case protocol.Despawn:
		if _, ok := ws.Despawn(m.Entity); !ok {
			return fmt.Errorf("%w: despawn %s", ErrStale, m.Entity)
		}

	case protocol.Position:
		e, ok := ws.Resolve(m.Entity)
		if !ok {
			return fmt.Errorf("%w: position %s", ErrStale, m.Entity)
		}
		rep, _ := ws.Replicated.Get(e)
		if rep != nil && rep.PositionSent && m.Tick < rep.PositionTick {
			return nil
		}
		if pos, ok := ws.Positions.Get(e); ok {
			pos.Vec3 = m.Position
		}
		if rep != nil {
			rep.PositionTick, rep.PositionSent = m.Tick, true
		}

	case protocol.AnimatorState:
		e, ok := ws.Resolve(m.Entity)
		if !ok {
			return fmt.Errorf("%w: animator %s", ErrStale, m.Entity)
		}
		rep, _ := ws.Replicated.Get(e)
		if rep != nil && m.Tick < rep.AnimatorTick {
			return nil
		}
		if a, ok := ws.Animators.Get(e); ok {
			a.Sync(m.Playing, int(m.Frame), c.clip(a.Set, m.Playing))
		}
		if rep != nil {
			rep.AnimatorTick = m.Tick
		}

	case protocol.UnitOp:
		e, ok := ws.Resolve(m.Entity)
		if !ok {
			return fmt.Errorf("%w: unit op %s", ErrStale, m.Entity)
		}
		ws.PushUnitOp(e, m.Op)
		if inst, ok := ws.Instances.Get(e); ok {
			inst.Drain()
		}

	case protocol.CommandOp:
		e, ok := ws.Resolve(m.Entity)
		if !ok {
			return fmt.Errorf("%w: command %s", ErrStale, m.Entity)
		}
		if q, ok := ws.Commands.Get(e); ok {
			q.Apply(m.Op)
		}

	default:
		c.log.Debug("ignoring message", zap.Stringer("channel", m.Channel()), zap.Uint8("kind", m.Kind()))
	}
	return nil
}

// Settle binds units whose definition has loaded since they spawned and
// applies the health operations that arrived for them meanwhile. It returns
// the number of units resolved.
func (c *Client) Settle() int {
	ws := c.World
	n := ws.ResolveDefinitions()
	if n == 0 {
		return 0
	}
	for _, u := range ws.UnitsByID() {
		if inst, ok := ws.Instances.Get(u.Entity); ok && inst.Pending() > 0 {
			inst.Drain()
		}
	}
	return n
}

func (c *Client) clip(set, name string) *data.Animation {
	s, ok := c.World.Assets.AnimationSet(set)
	if !ok {
		return nil
	}
	clip, _ := s.Get(name)
	return clip
}
