package packet

import (
	"fmt"

	"go.uber.org/zap"
)

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateConnected SessionState = iota // transport up, no player assigned
	StateJoined                        // Welcome sent, player id assigned
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateJoined:
		return "Joined"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for channel handlers.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps channels to handlers with state-based access control.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]*handlerEntry),
		log:      log,
	}
}

// Register maps a channel to a handler, restricted to the given session states.
func (reg *Registry) Register(channel byte, states []SessionState, fn HandlerFunc) {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[channel] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Dispatch finds the handler for the channel in data[0], validates the
// session state, and calls the handler. Unknown channels are ignored.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) < HeaderLen {
		return fmt.Errorf("message shorter than header: %d bytes", len(data))
	}
	channel := data[0]

	entry, ok := reg.handlers[channel]
	if !ok {
		reg.log.Debug("no handler for channel", zap.Uint8("channel", channel), zap.String("state", state.String()))
		return nil
	}

	if !entry.allowedStates[state] {
		reg.log.Warn("channel not allowed in session state",
			zap.Uint8("channel", channel),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("channel %d not allowed in state %s", channel, state)
	}

	return reg.safeCall(entry.fn, sess, NewReader(data), channel)
}

// safeCall executes a handler with panic recovery so a single bad message
// cannot crash the game loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, channel byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.Uint8("channel", channel),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic on channel %d: %v", channel, rec)
		}
	}()
	fn(sess, r)
	return nil
}
