package net

import (
	"context"
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
	"go.uber.org/zap"
)

// handshakeStreamTimeout bounds how long a fresh connection may take to open
// its reliable stream.
const handshakeStreamTimeout = 10 * time.Second

// Server accepts QUIC connections and creates Sessions.
// New sessions are communicated to the game loop via a channel.
type Server struct {
	listener *quic.Listener
	nextID   atomic.Uint64
	newConns chan *Session
	opts     Options
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewServer(bindAddr string, tlsConf *tls.Config, opts Options, log *zap.Logger) (*Server, error) {
	ln, err := quic.ListenAddr(bindAddr, tlsConf, QUICConfig())
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		listener: ln,
		newConns: make(chan *Session, 64),
		opts:     opts,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	return s, nil
}

// AcceptLoop runs in its own goroutine. It accepts connections and hands
// each to a goroutine that waits for the client's reliable stream.
func (s *Server) AcceptLoop() {
	for {
		conn, err := s.listener.Accept(s.ctx)
		if err != nil {
			// Accept only fails once the listener is closed.
			if s.ctx.Err() == nil {
				s.log.Error("accept failed", zap.Error(err))
			}
			return
		}
		go s.establish(conn)
	}
}

func (s *Server) establish(conn quic.Connection) {
	ctx, cancel := context.WithTimeout(s.ctx, handshakeStreamTimeout)
	defer cancel()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		s.log.Debug("no reliable stream opened", zap.Stringer("addr", conn.RemoteAddr()), zap.Error(err))
		conn.CloseWithError(1, "no stream")
		return
	}

	id := s.nextID.Add(1)
	sess := NewSession(id, conn, stream, s.opts, s.log)
	sess.Start()

	s.log.Info("client connected", zap.Uint64("session", id), zap.String("addr", sess.Addr))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("connection queue full, rejecting client", zap.Uint64("session", id))
		sess.Close()
	}
}

// NewSessions returns the channel of newly connected sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// Shutdown stops accepting new connections.
func (s *Server) Shutdown() {
	s.cancel()
	s.listener.Close()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
