package world

import (
	"encoding/binary"
	"encoding/hex"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Digest is a world checksum.
type Digest [blake2b.Size256]byte

func (d Digest) String() string { return hex.EncodeToString(d[:8]) }

// Checksum hashes every live unit's network id, position and health in
// network id order. Server and observers log it at the same ticks; equal
// digests mean the replicas converged.
func (s *State) Checksum() Digest {
	h, _ := blake2b.New256(nil)
	var buf [8 + 4*4]byte
	for _, u := range s.UnitsByID() {
		binary.LittleEndian.PutUint64(buf[0:], uint64(u.ID))
		if p, ok := s.Positions.Get(u.Entity); ok {
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(p.X()))
			binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(p.Y()))
			binary.LittleEndian.PutUint32(buf[16:], math.Float32bits(p.Z()))
		} else {
			clear(buf[8:20])
		}
		if inst, ok := s.Instances.Get(u.Entity); ok {
			binary.LittleEndian.PutUint32(buf[20:], math.Float32bits(inst.Health))
		} else {
			clear(buf[20:])
		}
		h.Write(buf[:])
	}
	var d Digest
	h.Sum(d[:0])
	return d
}
