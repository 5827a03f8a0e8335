package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	coresys "github.com/ChangeCaps/robots-or-smth/internal/core/system"
	"github.com/ChangeCaps/robots-or-smth/internal/protocol"
	"github.com/ChangeCaps/robots-or-smth/internal/system"
)

// Conn is the session side the client loop needs.
type Conn interface {
	protocol.Sender
	Inbox() <-chan []byte
	FlushOutput()
	IsClosed() bool
	Done() <-chan struct{}
}

// ErrDisconnected is returned by Run when the server closes the session.
var ErrDisconnected = errors.New("disconnected")

// ReceiveSystem sends Hello until joined and applies every queued server
// message. Phase 0 (Input).
type ReceiveSystem struct {
	client *Client
	conn   Conn
	now    func() time.Time
	log    *zap.Logger
}

func NewReceiveSystem(c *Client, conn Conn, log *zap.Logger) *ReceiveSystem {
	return &ReceiveSystem{client: c, conn: conn, now: time.Now, log: log}
}

func (s *ReceiveSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ReceiveSystem) Update(_ time.Duration) {
	s.client.Settle()
	s.drain()
	if s.client.Handshake.Due(s.now()) {
		protocol.Send(s.conn, protocol.Hello{Name: s.client.Handshake.Name})
		s.conn.FlushOutput()
	}
}

func (s *ReceiveSystem) drain() {
	in := s.conn.Inbox()
	for {
		select {
		case data := <-in:
			if err := s.client.Handle(data); err != nil {
				if errors.Is(err, ErrStale) {
					s.log.Debug("skipped message", zap.Error(err))
				} else {
					s.log.Warn("bad message", zap.Error(err))
				}
			}
		default:
			return
		}
	}
}

// NewRunner builds the client tick pipeline.
func NewRunner(c *Client, conn Conn, checksumInterval int, log *zap.Logger) *coresys.Runner {
	r := coresys.NewRunner()
	r.Register(NewReceiveSystem(c, conn, log))
	r.Register(system.NewChecksumSystem(c.World, checksumInterval, log))
	r.Register(system.NewCleanupSystem(c.World))
	return r
}

// Run ticks runner at tickRate until ctx is cancelled or conn closes.
func Run(ctx context.Context, runner *coresys.Runner, conn Conn, tickRate time.Duration) error {
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-conn.Done():
			return ErrDisconnected
		case <-ticker.C:
			runner.Tick(tickRate)
		}
	}
}
