// Package collision pushes overlapping unit footprints apart.
//
// Every pair is tested every tick. Unit counts are small enough that a
// broad phase would cost more than it saves.
package collision

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Body is one circular footprint. Priority is the unit's movement priority
// while it is moving and zero otherwise.
type Body struct {
	Position *mgl32.Vec3
	Size     float32
	Priority float32
}

// Resolve separates every overlapping pair in slice order, mutating
// positions in place, and returns the number of pairs it corrected. Callers
// pass bodies in a stable order so every peer resolves identically.
//
// The correction along the separating axis is shared by priority: a body
// gets the other's share of the summed priorities, so a stationary body
// pushed by a moving one absorbs all of it and two equal bodies split it
// evenly. rng picks the axis for bodies at exactly the same spot.
func Resolve(bodies []Body, rng *rand.Rand) int {
	resolved := 0
	for i := range bodies {
		a := &bodies[i]
		for j := i + 1; j < len(bodies); j++ {
			b := &bodies[j]
			if separate(a, b, rng) {
				resolved++
			}
		}
	}
	return resolved
}

func separate(a, b *Body, rng *rand.Rand) bool {
	diff := b.Position.Vec2().Sub(a.Position.Vec2())
	dist := diff.Len()
	reach := a.Size + b.Size
	if dist >= reach {
		return false
	}
	overlap := reach - dist

	var axis mgl32.Vec2
	if dist == 0 {
		angle := rng.Float64() * 2 * math.Pi
		axis = mgl32.Vec2{float32(math.Cos(angle)), float32(math.Sin(angle))}
	} else {
		axis = diff.Mul(1 / dist)
	}

	wa, wb := weights(a.Priority, b.Priority)
	*a.Position = a.Position.Sub(axis.Mul(overlap * wa).Vec3(0))
	*b.Position = b.Position.Add(axis.Mul(overlap * wb).Vec3(0))
	return true
}

// weights returns the fraction of the correction applied to a and b.
func weights(pa, pb float32) (float32, float32) {
	sum := pa + pb
	if sum == 0 {
		return 0.5, 0.5
	}
	return pb / sum, pa / sum
}
