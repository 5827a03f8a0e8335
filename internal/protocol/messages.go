package protocol

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
	"github.com/ChangeCaps/robots-or-smth/internal/unit"
)

// Hello asks the server for a player slot. Clients repeat it every second
// until Welcome arrives.
type Hello struct {
	Name string
}

// Welcome assigns the connection its player id. Sent once per connection.
type Welcome struct {
	Player player.ID
	Map    string
	Match  string
}

// AnimatorState is the latest animation of a unit.
type AnimatorState struct {
	Entity  netentity.ID
	Tick    uint64
	Playing string
	Frame   uint16
}

// Spawn announces a new unit and the id the server assigned to it.
type Spawn struct {
	Entity     netentity.ID
	Descriptor SpawnDescriptor
}

// Despawn removes a unit.
type Despawn struct {
	Entity netentity.ID
}

// Position is the latest position of a unit. Tick orders snapshots so a
// late datagram never overwrites a newer one.
type Position struct {
	Entity   netentity.ID
	Tick     uint64
	Position mgl32.Vec3
}

// UnitOp is one applied health operation.
type UnitOp struct {
	Entity netentity.ID
	Op     unit.Operation
}

func (Hello) Channel() Channel         { return ChannelHandshake }
func (Welcome) Channel() Channel       { return ChannelHandshake }
func (AnimatorState) Channel() Channel { return ChannelAnimator }
func (Spawn) Channel() Channel         { return ChannelSpawn }
func (Despawn) Channel() Channel       { return ChannelSpawn }
func (Position) Channel() Channel      { return ChannelPosition }
func (UnitOp) Channel() Channel        { return ChannelUnitOp }

func (Hello) Kind() byte         { return KindHello }
func (Welcome) Kind() byte       { return KindWelcome }
func (AnimatorState) Kind() byte { return KindAnimatorState }
func (Spawn) Kind() byte         { return KindSpawn }
func (Despawn) Kind() byte       { return KindDespawn }
func (Position) Kind() byte      { return KindPosition }
func (UnitOp) Kind() byte        { return KindUnitOp }

func (m Hello) write(w *packet.Writer) { w.WriteS(m.Name) }

func readHello(r *packet.Reader) (Message, error) {
	return Hello{Name: r.ReadS()}, nil
}

func (m Welcome) write(w *packet.Writer) {
	w.WriteQ(uint64(m.Player))
	w.WriteS(m.Map)
	w.WriteS(m.Match)
}

func readWelcome(r *packet.Reader) (Message, error) {
	m := Welcome{Player: player.ID(r.ReadQ())}
	m.Map = r.ReadS()
	m.Match = r.ReadS()
	if m.Player == 0 {
		return nil, malformed("welcome with player 0")
	}
	return m, nil
}

func (m AnimatorState) write(w *packet.Writer) {
	w.WriteQ(uint64(m.Entity))
	w.WriteQ(m.Tick)
	w.WriteS(m.Playing)
	w.WriteH(m.Frame)
}

func readAnimatorState(r *packet.Reader) (Message, error) {
	m := AnimatorState{Entity: netentity.ID(r.ReadQ()), Tick: r.ReadQ()}
	m.Playing = r.ReadS()
	m.Frame = r.ReadH()
	return m, nil
}

func (m Despawn) write(w *packet.Writer) { w.WriteQ(uint64(m.Entity)) }

func readDespawn(r *packet.Reader) (Message, error) {
	return Despawn{Entity: netentity.ID(r.ReadQ())}, nil
}

func (m Position) write(w *packet.Writer) {
	w.WriteQ(uint64(m.Entity))
	w.WriteQ(m.Tick)
	writeVec3(w, m.Position)
}

func readPosition(r *packet.Reader) (Message, error) {
	m := Position{Entity: netentity.ID(r.ReadQ()), Tick: r.ReadQ()}
	p, err := readVec3(r)
	if err != nil {
		return nil, err
	}
	m.Position = p
	return m, nil
}

func (m UnitOp) write(w *packet.Writer) {
	w.WriteQ(uint64(m.Entity))
	w.WriteC(byte(m.Op.Kind))
	w.WriteF(m.Op.Amount)
}

func readUnitOp(r *packet.Reader) (Message, error) {
	m := UnitOp{Entity: netentity.ID(r.ReadQ())}
	m.Op.Kind = unit.OpKind(r.ReadC())
	m.Op.Amount = r.ReadF()
	switch m.Op.Kind {
	case unit.OpSetHealth, unit.OpSubtractHealth:
	default:
		return nil, malformed("unit op kind %d", m.Op.Kind)
	}
	if !finite(m.Op.Amount) {
		return nil, malformed("unit op amount %v", m.Op.Amount)
	}
	return m, nil
}

func writeVec2(w *packet.Writer, v mgl32.Vec2) {
	w.WriteF(v.X())
	w.WriteF(v.Y())
}

func writeVec3(w *packet.Writer, v mgl32.Vec3) {
	w.WriteF(v.X())
	w.WriteF(v.Y())
	w.WriteF(v.Z())
}

func readVec2(r *packet.Reader) (mgl32.Vec2, error) {
	v := mgl32.Vec2{r.ReadF(), r.ReadF()}
	if !finite(v[0]) || !finite(v[1]) {
		return v, malformed("non-finite vector %v", v)
	}
	return v, nil
}

func readVec3(r *packet.Reader) (mgl32.Vec3, error) {
	v := mgl32.Vec3{r.ReadF(), r.ReadF(), r.ReadF()}
	if !finite(v[0]) || !finite(v[1]) || !finite(v[2]) {
		return v, malformed("non-finite vector %v", v)
	}
	return v, nil
}

func finite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}
