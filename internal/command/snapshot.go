package command

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/ChangeCaps/robots-or-smth/internal/netentity"
	"github.com/ChangeCaps/robots-or-smth/internal/player"
)

// UnitView is the read-only part of a unit other units may target.
type UnitView struct {
	ID       netentity.ID
	Position mgl32.Vec3
	Owner    player.ID
}

// Pos2 returns the ground-plane position.
func (v UnitView) Pos2() mgl32.Vec2 { return v.Position.Vec2() }

// Snapshot is an immutable view of every unit, taken before a parallel
// stage so workers can scan other units without racing their updates.
type Snapshot struct {
	units []UnitView
	index map[netentity.ID]int
}

// NewSnapshot builds a snapshot. views is sorted by id in place.
func NewSnapshot(views []UnitView) *Snapshot {
	slices.SortFunc(views, func(a, b UnitView) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	s := &Snapshot{units: views, index: make(map[netentity.ID]int, len(views))}
	for i, v := range views {
		s.index[v.ID] = i
	}
	return s
}

// Get looks up a unit. A miss means the unit is gone or not yet known.
func (s *Snapshot) Get(id netentity.ID) (UnitView, bool) {
	i, ok := s.index[id]
	if !ok {
		return UnitView{}, false
	}
	return s.units[i], true
}

// Len returns the number of units.
func (s *Snapshot) Len() int { return len(s.units) }

// Units returns the views in id order. The slice must not be modified.
func (s *Snapshot) Units() []UnitView { return s.units }

// NearestOpposing returns the closest unit not owned by owner within
// maxDist of from. Ties go to the lowest id.
func (s *Snapshot) NearestOpposing(from mgl32.Vec2, owner player.ID, maxDist float32) (UnitView, bool) {
	var (
		best  UnitView
		found bool
		bestD = maxDist
	)
	for _, v := range s.units {
		if v.Owner == owner {
			continue
		}
		d := v.Pos2().Sub(from).Len()
		if d > maxDist {
			continue
		}
		if !found || d < bestD {
			best, bestD, found = v, d, true
		}
	}
	return best, found
}
