package handler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/ChangeCaps/robots-or-smth/internal/core/event"
	"github.com/ChangeCaps/robots-or-smth/internal/net"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
)

// HandleCommand applies a command queue operation sent by a player to one of
// their own units, then relays it to every observer.
func HandleCommand(sess *net.Session, r *packet.Reader, deps *Deps) {
	msg, err := protocol.Read(r)
	if err != nil {
		deps.Log.Debug("malformed command", zap.Uint64("session", sess.ID), zap.Error(err))
		return
	}
	op, ok := msg.(protocol.CommandOp)
	if !ok {
		return
	}

	ws := deps.World
	pid, joined := ws.Players.PlayerOf(sess.ID)
	if !joined {
		reject(deps, sess, op, "no player assigned")
		return
	}

	e, ok := ws.Resolve(op.Entity)
	if !ok {
		deps.stale.Add(context.Background(), 1, metric.WithAttributes(attribute.String("source", "command")))
		deps.Log.Debug("command for unknown entity",
			zap.Uint64("session", sess.ID),
			zap.Stringer("entity", op.Entity),
		)
		return
	}

	owner, _ := ws.OwnerOf(e)
	if !ws.Players.Owns(sess.ID, owner) {
		reject(deps, sess, op, "not owner")
		return
	}

	q, ok := ws.Commands.Get(e)
	if !ok {
		return
	}
	q.Apply(op.Op)

	Broadcast(deps.Sessions, op)
	event.Emit(deps.Bus, event.CommandApplied{
		Tick:      ws.Tick,
		NetEntity: op.Entity,
		Op:        op.Op.Kind.String(),
		Player:    uint64(pid),
	})
}

func reject(deps *Deps, sess *net.Session, op protocol.CommandOp, reason string) {
	deps.rejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
	deps.Log.Warn("command rejected",
		zap.Uint64("session", sess.ID),
		zap.Stringer("entity", op.Entity),
		zap.String("reason", reason),
	)
	event.Emit(deps.Bus, event.CommandRejected{
		Tick:      deps.World.Tick,
		NetEntity: op.Entity,
		SessionID: sess.ID,
		Reason:    reason,
	})
}
