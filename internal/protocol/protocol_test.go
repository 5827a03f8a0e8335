package protocol

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChangeCaps/robots-or-smth/internal/command"
	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/unit"
)

func TestEncodeDecode(t *testing.T) {
	msgs := []Message{
		Hello{Name: "ada"},
		Welcome{Player: 2, Map: "duel", Match: "0d6c1f0e-5c43-4b34-9a1e-3f1f7d3c9b11"},
		AnimatorState{Entity: 7, Tick: 99, Playing: "walk_up", Frame: 3},
		Spawn{Entity: 7, Descriptor: UnitSpawn{
			Position: mgl32.Vec3{1, -2, 0.5}, Owner: 1,
			Unit: "rk550", AnimationSet: "rk550", UnitAnimationSet: "rk550",
		}},
		Despawn{Entity: 7},
		Position{Entity: 7, Tick: 100, Position: mgl32.Vec3{3, 4, 0}},
		UnitOp{Entity: 7, Op: unit.SubtractHealth(10)},
		CommandOp{Entity: 7, Op: command.Clear()},
		CommandOp{Entity: 7, Op: command.Set(&command.Move{Target: command.PositionTarget(mgl32.Vec2{5, 6}), Precise: true})},
		CommandOp{Entity: 7, Op: command.Add(&command.Move{Target: command.UnitTarget(9)})},
		CommandOp{Entity: 7, Op: command.Set(command.AttackUnit(9, true))},
		CommandOp{Entity: 7, Op: command.Add(command.AttackMove(mgl32.Vec2{-1, 1}))},
	}
	for _, m := range msgs {
		data := Encode(m)
		assert.Equal(t, byte(m.Channel()), data[0])
		assert.Equal(t, m.Kind(), data[1])

		got, err := Decode(data)
		require.NoError(t, err, "%T", m)
		assert.Equal(t, m, got)
	}
}

func TestDecode_Malformed(t *testing.T) {
	pos := Encode(Position{Entity: 1, Tick: 1, Position: mgl32.Vec3{1, 2, 3}})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMalformed},
		{"unknown kind", []byte{byte(ChannelSpawn), 9}, ErrUnknownMessage},
		{"unknown channel", []byte{42, 1}, ErrUnknownMessage},
		{"truncated", pos[:len(pos)-2], ErrMalformed},
		{"trailing", append(append([]byte{}, pos...), 0), ErrMalformed},
		{"welcome player zero", Encode(Welcome{Map: "m"}), ErrMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecode_RejectsBadFields(t *testing.T) {
	nan := float32(math.NaN())

	w := packet.NewMessageWriter(byte(ChannelPosition), KindPosition)
	w.WriteQ(1)
	w.WriteQ(1)
	w.WriteF(nan)
	w.WriteF(0)
	w.WriteF(0)
	_, err := Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrMalformed, "NaN position")

	w = packet.NewMessageWriter(byte(ChannelCommand), KindCommandOp)
	w.WriteQ(1)
	w.WriteC(byte(command.OpSetCommand))
	w.WriteC(tagAttack)
	w.WriteC(0x80)
	_, err = Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrMalformed, "unknown attack flag")

	w = packet.NewMessageWriter(byte(ChannelCommand), KindCommandOp)
	w.WriteQ(1)
	w.WriteC(9)
	_, err = Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrMalformed, "unknown op kind")

	w = packet.NewMessageWriter(byte(ChannelUnitOp), KindUnitOp)
	w.WriteQ(1)
	w.WriteC(7)
	w.WriteF(1)
	_, err = Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrMalformed, "unknown unit op")

	w = packet.NewMessageWriter(byte(ChannelSpawn), KindSpawn)
	w.WriteQ(1)
	w.WriteC(5)
	_, err = Decode(w.Bytes())
	assert.ErrorIs(t, err, ErrMalformed, "unknown descriptor")
}

func TestChannel_Reliable(t *testing.T) {
	for _, c := range []Channel{ChannelHandshake, ChannelSpawn, ChannelCommand, ChannelUnitOp} {
		assert.True(t, c.Reliable(), c.String())
	}
	for _, c := range []Channel{ChannelAnimator, ChannelPosition} {
		assert.False(t, c.Reliable(), c.String())
	}
}

type recordingSender struct {
	reliable, unreliable [][]byte
}

func (s *recordingSender) Send(b []byte)           { s.reliable = append(s.reliable, b) }
func (s *recordingSender) SendUnreliable(b []byte) { s.unreliable = append(s.unreliable, b) }

func TestSend_RoutesByChannel(t *testing.T) {
	var s recordingSender
	Send(&s, Despawn{Entity: 3})
	Send(&s, Position{Entity: 3, Tick: 9})
	Send(&s, AnimatorState{Entity: 3, Tick: 9, Playing: "idle_down"})

	assert.Len(t, s.reliable, 1)
	assert.Len(t, s.unreliable, 2)
	assert.Equal(t, byte(ChannelSpawn), s.reliable[0][0])
}
