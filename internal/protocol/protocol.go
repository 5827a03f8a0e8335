// Package protocol defines the messages exchanged between server and
// clients and their wire encoding.
//
// Every message is [channel u8][kind u8][fields...], little-endian, strings
// NUL-terminated UTF-8. Reliable channels travel on the connection's ordered
// stream, unreliable ones as datagrams where the newest value wins.
package protocol

import (
	"errors"
	"fmt"

	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
)

// Channel identifies a logical message stream.
type Channel byte

const (
	ChannelHandshake Channel = 0 // reliable: Hello, Welcome
	ChannelAnimator  Channel = 1 // unreliable: AnimatorState
	ChannelSpawn     Channel = 2 // reliable: Spawn, Despawn
	ChannelCommand   Channel = 3 // reliable: CommandOp
	ChannelPosition  Channel = 4 // unreliable: Position
	ChannelUnitOp    Channel = 5 // reliable: UnitOp
)

// Reliable reports whether the channel needs ordered, retried delivery.
func (c Channel) Reliable() bool {
	return c != ChannelAnimator && c != ChannelPosition
}

func (c Channel) String() string {
	switch c {
	case ChannelHandshake:
		return "handshake"
	case ChannelAnimator:
		return "animator"
	case ChannelSpawn:
		return "spawn"
	case ChannelCommand:
		return "command"
	case ChannelPosition:
		return "position"
	case ChannelUnitOp:
		return "unit_op"
	}
	return fmt.Sprintf("channel(%d)", byte(c))
}

// Message kinds, unique within their channel.
const (
	KindHello         byte = 1
	KindWelcome       byte = 2
	KindAnimatorState byte = 1
	KindSpawn         byte = 1
	KindDespawn       byte = 2
	KindCommandOp     byte = 1
	KindPosition      byte = 1
	KindUnitOp        byte = 1
)

var (
	// ErrUnknownMessage is returned for a channel/kind pair with no decoder.
	ErrUnknownMessage = errors.New("protocol: unknown message")
	// ErrMalformed is returned when a message's fields do not decode.
	ErrMalformed = errors.New("protocol: malformed message")
)

// Message is any wire message.
type Message interface {
	Channel() Channel
	Kind() byte
	write(w *packet.Writer)
}

// Encode serializes m with its header.
func Encode(m Message) []byte {
	w := packet.NewMessageWriter(byte(m.Channel()), m.Kind())
	m.write(w)
	return w.Bytes()
}

type key struct {
	channel Channel
	kind    byte
}

type decodeFunc func(r *packet.Reader) (Message, error)

var decoders = map[key]decodeFunc{
	{ChannelHandshake, KindHello}:        readHello,
	{ChannelHandshake, KindWelcome}:      readWelcome,
	{ChannelAnimator, KindAnimatorState}: readAnimatorState,
	{ChannelSpawn, KindSpawn}:            readSpawn,
	{ChannelSpawn, KindDespawn}:          readDespawn,
	{ChannelCommand, KindCommandOp}:      readCommandOp,
	{ChannelPosition, KindPosition}:      readPosition,
	{ChannelUnitOp, KindUnitOp}:          readUnitOp,
}

// Read decodes the message held by r. Trailing bytes are an error.
func Read(r *packet.Reader) (Message, error) {
	dec, ok := decoders[key{Channel(r.Channel()), r.Kind()}]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d kind %d", ErrUnknownMessage, r.Channel(), r.Kind())
	}
	m, err := dec(r)
	if rerr := r.Err(); rerr != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, Channel(r.Channel()), rerr)
	}
	if err != nil {
		return nil, err
	}
	if n := r.Remaining(); n > 0 {
		return nil, fmt.Errorf("%w: %s: %d trailing bytes", ErrMalformed, Channel(r.Channel()), n)
	}
	return m, nil
}

// Decode decodes one serialized message.
func Decode(data []byte) (Message, error) {
	if len(data) < packet.HeaderLen {
		return nil, fmt.Errorf("%w: %d byte message", ErrMalformed, len(data))
	}
	return Read(packet.NewReader(data))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
}

// Sender is a connection that buffers reliable and unreliable messages.
type Sender interface {
	Send(data []byte)
	SendUnreliable(data []byte)
}

// Send encodes m and buffers it on the transport its channel calls for.
func Send(s Sender, m Message) {
	SendRaw(s, m.Channel(), Encode(m))
}

// SendRaw buffers an already encoded message, so a broadcast encodes once.
func SendRaw(s Sender, ch Channel, data []byte) {
	if ch.Reliable() {
		s.Send(data)
		return
	}
	s.SendUnreliable(data)
}
