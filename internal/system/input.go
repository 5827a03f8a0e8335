package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// SessionSource delivers freshly connected sessions. net.Server implements it.
type SessionSource interface {
	NewSessions() <-chan *net.Session
}

// InputSystem drains message queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	source     SessionSource
	registry   *packet.Registry
	store      *net.SessionStore
	maxPerTick int
	world      *world.State
	log        *zap.Logger
}

func NewInputSystem(
	source SessionSource,
	registry *packet.Registry,
	store *net.SessionStore,
	maxPerTick int,
	ws *world.State,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		source:     source,
		registry:   registry,
		store:      store,
		maxPerTick: maxPerTick,
		world:      ws,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	if s.source != nil {
	accept:
		for {
			select {
			case sess := <-s.source.NewSessions():
				s.store.Add(sess)
			default:
				break accept
			}
		}
	}

	s.store.ForEach(func(sess *net.Session) {
		// Messages that arrived before a disconnect are still applied.
		s.drain(sess)
		if sess.IsClosed() {
			s.handleDisconnect(sess)
		}
	})

	// Early flush: replies produced while handling input (Welcome, relayed
	// commands) reach the writers before the simulation phases run.
	s.store.ForEach(func(sess *net.Session) {
		sess.FlushOutput()
	})
}

// drain dispatches queued messages. maxPerTick <= 0 drains everything.
func (s *InputSystem) drain(sess *net.Session) {
	for i := 0; s.maxPerTick <= 0 || i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("message dispatch error",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect forgets the session and frees its player slot. The
// player's units stay in the world; there is no reconnection.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	if id, ok := s.world.Players.RemoveSession(sess.ID); ok {
		s.log.Info("player disconnected",
			zap.Uint64("session", sess.ID),
			zap.Stringer("player", id),
		)
	} else {
		s.log.Debug("session closed before joining", zap.Uint64("session", sess.ID))
	}
	s.store.Remove(sess.ID)
}
