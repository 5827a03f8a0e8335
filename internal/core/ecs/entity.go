package ecs

import "strconv"

// EntityID is a local, per-process handle: slot index in the low 32 bits,
// slot generation in the high 32. Units crossing the network are named by
// netentity.ID instead, which is never reused.
type EntityID uint64

func NewEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id.Index()), 10) + "v" + strconv.FormatUint(uint64(id.Generation()), 10)
}

// EntityPool recycles slots. A destroyed slot comes back with a bumped
// generation, so a handle kept across a despawn stops resolving. Slot 0 is
// never handed out.
type EntityPool struct {
	generations []uint32
	free        []uint32
	live        int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 1, 1024),
		free:        make([]uint32, 0, 256),
	}
}

func (p *EntityPool) Create() EntityID {
	p.live++
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := uint32(len(p.generations))
	p.generations = append(p.generations, 0)
	return NewEntityID(idx, 0)
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	return idx != 0 && int(idx) < len(p.generations) && p.generations[idx] == id.Generation()
}

// Destroy frees the slot. It reports false for a stale or unknown id.
func (p *EntityPool) Destroy(id EntityID) bool {
	if !p.Alive(id) {
		return false
	}
	idx := id.Index()
	p.generations[idx]++
	p.free = append(p.free, idx)
	p.live--
	return true
}

// Live returns the number of allocated entities.
func (p *EntityPool) Live() int { return p.live }
