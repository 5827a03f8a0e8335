package protocol

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/net/packet"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
)

// SpawnDescriptor describes something the server spawned. UnitSpawn is the
// only variant.
type SpawnDescriptor interface {
	isSpawnDescriptor()
	tag() byte
	write(w *packet.Writer)
}

const tagUnitSpawn byte = 1

// UnitSpawn places a unit owned by Owner. The names are asset handles.
type UnitSpawn struct {
	Position         mgl32.Vec3
	Owner            player.ID
	Unit             string
	AnimationSet     string
	UnitAnimationSet string
}

func (UnitSpawn) isSpawnDescriptor() {}
func (UnitSpawn) tag() byte          { return tagUnitSpawn }

func (s UnitSpawn) write(w *packet.Writer) {
	writeVec3(w, s.Position)
	w.WriteQ(uint64(s.Owner))
	w.WriteS(s.Unit)
	w.WriteS(s.AnimationSet)
	w.WriteS(s.UnitAnimationSet)
}

func readUnitSpawn(r *packet.Reader) (UnitSpawn, error) {
	p, err := readVec3(r)
	if err != nil {
		return UnitSpawn{}, err
	}
	s := UnitSpawn{Position: p, Owner: player.ID(r.ReadQ())}
	s.Unit = r.ReadS()
	s.AnimationSet = r.ReadS()
	s.UnitAnimationSet = r.ReadS()
	return s, nil
}

func (m Spawn) write(w *packet.Writer) {
	w.WriteQ(uint64(m.Entity))
	w.WriteC(m.Descriptor.tag())
	m.Descriptor.write(w)
}

func readSpawn(r *packet.Reader) (Message, error) {
	m := Spawn{Entity: readEntity(r)}
	switch tag := r.ReadC(); tag {
	case tagUnitSpawn:
		s, err := readUnitSpawn(r)
		if err != nil {
			return nil, err
		}
		m.Descriptor = s
	default:
		return nil, malformed("spawn descriptor tag %d", tag)
	}
	return m, nil
}
