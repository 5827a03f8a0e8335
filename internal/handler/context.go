package handler

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/config"
	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/data"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/world"
)

// Deps holds shared dependencies injected into all message handlers.
type Deps struct {
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State
	Sessions *net.SessionStore
	Bus      *event.Bus
	Map      *data.Map
	Match    string // journal match id, echoed in Welcome

	rejected metric.Int64Counter
	stale    metric.Int64Counter
}

func (d *Deps) initMetrics() {
	m := otel.Meter("github.com/ChangeCaps/robots-or-smth/internal/handler")
	d.rejected, _ = m.Int64Counter("rts.commands.rejected",
		metric.WithDescription("Command operations dropped by the ownership check"))
	d.stale, _ = m.Int64Counter("rts.stale_references",
		metric.WithDescription("Messages naming an entity that is unknown or already despawned"))
}

// RegisterAll registers all message handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	deps.initMetrics()

	// A joined session may repeat Hello; the handler logs it.
	reg.Register(byte(protocol.ChannelHandshake),
		[]packet.SessionState{packet.StateConnected, packet.StateJoined},
		func(sess any, r *packet.Reader) {
			HandleHandshake(sess.(*net.Session), r, deps)
		},
	)

	// Accepted before the handshake too, so unauthorized senders are
	// counted rather than silently filtered by state.
	reg.Register(byte(protocol.ChannelCommand),
		[]packet.SessionState{packet.StateConnected, packet.StateJoined},
		func(sess any, r *packet.Reader) {
			HandleCommand(sess.(*net.Session), r, deps)
		},
	)
}
