package net

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
)

const instrumentationName = "github.com/ChangeCaps/robots-or-smth/internal/net"

var (
	droppedDatagrams metric.Int64Counter
	rateLimited      metric.Int64Counter
)

func init() {
	m := otel.Meter(instrumentationName)
	droppedDatagrams, _ = m.Int64Counter("rts.net.datagrams.dropped",
		metric.WithDescription("Unreliable messages dropped because a queue was full or the send failed"))
	rateLimited, _ = m.Int64Counter("rts.net.rate_limited",
		metric.WithDescription("Inbound messages over the per-session rate limit"))
}

// Conn is the part of a QUIC connection a session needs. quic.Connection
// satisfies it.
type Conn interface {
	SendDatagram(b []byte) error
	ReceiveDatagram(ctx context.Context) ([]byte, error)
	CloseWithError(code quic.ApplicationErrorCode, msg string) error
	RemoteAddr() net.Addr
}

// Options sizes a session's queues and inbound rate limit.
type Options struct {
	InQueueSize       int
	OutQueueSize      int
	DatagramQueueSize int
	// MessagesPerSecond limits inbound messages; 0 disables the limit.
	MessagesPerSecond float64
	Burst             int
	WriteTimeout      time.Duration
}

// Session represents one connection. Reliable messages travel as frames on a
// single ordered stream; unreliable ones as datagrams. Network I/O runs in
// dedicated goroutines; game state is accessed only from the game loop.
type Session struct {
	ID     uint64
	conn   Conn
	stream io.ReadWriteCloser

	state atomic.Int32 // packet.SessionState stored as int32

	InQueue    chan []byte // game loop reads messages from here
	OutQueue   chan []byte // stream writer reads from here
	dgramQueue chan []byte // datagram writer reads from here

	Addr string
	Name string // display name from Hello, game loop only

	outReliable   [][]byte // buffered by the game loop, flushed once per tick
	outUnreliable [][]byte

	limiter      *rate.Limiter
	writeTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

// NewSession wraps an established connection. conn and stream are not
// touched until Start.
func NewSession(id uint64, conn Conn, stream io.ReadWriteCloser, opts Options, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:           id,
		conn:         conn,
		stream:       stream,
		InQueue:      make(chan []byte, max(opts.InQueueSize, 1)),
		OutQueue:     make(chan []byte, max(opts.OutQueueSize, 1)),
		dgramQueue:   make(chan []byte, max(opts.DatagramQueueSize, 1)),
		writeTimeout: opts.WriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
		closeCh:      make(chan struct{}),
		log:          log.With(zap.Uint64("session", id)),
	}
	if conn != nil {
		s.Addr = conn.RemoteAddr().String()
	}
	if opts.MessagesPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.MessagesPerSecond), max(opts.Burst, 1))
	}
	s.state.Store(int32(packet.StateConnected))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	s.state.Store(int32(st))
}

// Start launches the reader and writer goroutines.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
	go s.datagramReadLoop()
	go s.datagramWriteLoop()
}

// Send buffers a reliable message. Nothing is written until FlushOutput.
// Called only from the game loop goroutine.
func (s *Session) Send(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outReliable = append(s.outReliable, data)
}

// SendUnreliable buffers a datagram. Called only from the game loop goroutine.
func (s *Session) SendUnreliable(data []byte) {
	if s.closed.Load() {
		return
	}
	s.outUnreliable = append(s.outUnreliable, data)
}

// FlushOutput hands buffered messages to the writer goroutines. Called once
// per tick. A full reliable queue disconnects the session (backpressure); a
// full datagram queue drops the datagram, the next snapshot supersedes it.
func (s *Session) FlushOutput() {
	for _, data := range s.outReliable {
		select {
		case s.OutQueue <- data:
		default:
			s.log.Warn("output queue full, disconnecting slow session")
			s.Close()
			s.outReliable = s.outReliable[:0]
			s.outUnreliable = s.outUnreliable[:0]
			return
		}
	}
	s.outReliable = s.outReliable[:0]

	for _, data := range s.outUnreliable {
		select {
		case s.dgramQueue <- data:
		default:
			droppedDatagrams.Add(s.ctx, 1)
		}
	}
	s.outUnreliable = s.outUnreliable[:0]
}

// Close gracefully shuts down the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.SetState(packet.StateDisconnecting)
		s.cancel()
		close(s.closeCh)
		if s.stream != nil {
			s.stream.Close()
		}
		if s.conn != nil {
			s.conn.CloseWithError(0, "closed")
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// DatagramBacklog returns the number of datagrams waiting for the writer.
func (s *Session) DatagramBacklog() int { return len(s.dgramQueue) }

// Inbox exposes InQueue receive-only.
func (s *Session) Inbox() <-chan []byte { return s.InQueue }

// Done is closed when the session closes.
func (s *Session) Done() <-chan struct{} {
	return s.closeCh
}

func (s *Session) allow() bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	rateLimited.Add(s.ctx, 1)
	return false
}

// readLoop reads frames from the stream and pushes them onto InQueue.
// Reliable messages are never dropped, so a client that exceeds the rate
// limit on the stream is disconnected.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		payload, err := ReadFrame(s.stream)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("stream read error", zap.Error(err))
			}
			return
		}

		if !s.allow() {
			s.log.Warn("message rate exceeded, disconnecting")
			return
		}

		// Block until InQueue has space or the session closes; reliable
		// ordering must survive a slow game loop.
		select {
		case s.InQueue <- payload:
		case <-s.closeCh:
			return
		}
	}
}

// datagramReadLoop pushes received datagrams onto InQueue, dropping them
// when the queue is full or the sender is over its rate.
func (s *Session) datagramReadLoop() {
	if s.conn == nil {
		return
	}
	for {
		data, err := s.conn.ReceiveDatagram(s.ctx)
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("datagram read error", zap.Error(err))
			}
			return
		}
		if !s.allow() {
			continue
		}
		select {
		case s.InQueue <- data:
		default:
			droppedDatagrams.Add(s.ctx, 1)
		}
	}
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// writeLoop writes queued reliable messages to the stream.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case data := <-s.OutQueue:
			if s.writeTimeout > 0 {
				if d, ok := s.stream.(writeDeadliner); ok {
					d.SetWriteDeadline(time.Now().Add(s.writeTimeout))
				}
			}
			if err := WriteFrame(s.stream, data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("stream write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}

// datagramWriteLoop sends queued datagrams. A failed send loses only that
// datagram.
func (s *Session) datagramWriteLoop() {
	if s.conn == nil {
		return
	}
	for {
		select {
		case data := <-s.dgramQueue:
			if err := s.conn.SendDatagram(data); err != nil {
				droppedDatagrams.Add(s.ctx, 1)
				s.log.Debug("datagram send failed", zap.Int("len", len(data)), zap.Error(err))
			}
		case <-s.closeCh:
			return
		}
	}
}
