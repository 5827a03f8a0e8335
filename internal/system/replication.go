package system

import (
	"time"

	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/handler"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// ReplicationSystem sends unit positions and animator states on the
// unreliable channels and flushes every session. Phase 4 (Output).
//
// A unit is sent when its state changed, and in any case every interval
// ticks, so a lost datagram is repaired by a later keyframe even after the
// unit comes to rest. Each message is the full current value.
type ReplicationSystem struct {
	world    *world.State
	sessions *net.SessionStore
	interval uint64
}

// NewReplicationSystem returns the system. interval <= 0 sends every unit
// every tick.
func NewReplicationSystem(ws *world.State, sessions *net.SessionStore, interval int) *ReplicationSystem {
	return &ReplicationSystem{world: ws, sessions: sessions, interval: uint64(max(interval, 0))}
}

func (s *ReplicationSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *ReplicationSystem) Update(_ time.Duration) {
	ws := s.world
	for _, u := range ws.UnitsByID() {
		rep, ok := ws.Replicated.Get(u.Entity)
		if !ok {
			continue
		}
		keyframe := !rep.PositionSent || s.interval == 0 || ws.Tick-rep.KeyframeTick >= s.interval
		if keyframe {
			rep.KeyframeTick = ws.Tick
		}

		if pos, ok := ws.Positions.Get(u.Entity); ok && (keyframe || rep.Position != pos.Vec3) {
			handler.Broadcast(s.sessions, protocol.Position{Entity: u.ID, Tick: ws.Tick, Position: pos.Vec3})
			rep.Position = pos.Vec3
			rep.PositionSent = true
		}
		// TakeDirty runs first so a keyframe also clears the flag.
		if a, ok := ws.Animators.Get(u.Entity); ok && (a.TakeDirty() || keyframe) {
			handler.Broadcast(s.sessions, protocol.AnimatorState{
				Entity:  u.ID,
				Tick:    ws.Tick,
				Playing: a.Playing(),
				Frame:   uint16(a.CurrentFrame()),
			})
		}
	}

	s.sessions.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}
