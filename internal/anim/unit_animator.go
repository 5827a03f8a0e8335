package anim

import "github.com/ChangeCaps/robots-or-smth/internal/data"

// Logical animation names requested by behaviours.
const (
	Idle   = "idle"
	Walk   = "walk"
	Attack = "attack"
)

// UnitAnimator holds the logical animation and facing of a unit; the unit
// animation set turns the pair into a concrete animation for the Animator.
type UnitAnimator struct {
	Set string // unit animation set handle

	current string
	facing  Direction
	reset   bool
	dirty   bool
}

// NewUnitAnimator starts in the idle animation facing Down.
func NewUnitAnimator(set string) *UnitAnimator {
	return &UnitAnimator{Set: set, current: Idle, facing: Down, reset: true, dirty: true}
}

// SetPlaying requests a logical animation. Switching to a different one
// restarts the clip; requesting the current one is a no-op.
func (u *UnitAnimator) SetPlaying(name string) {
	if u.current == name {
		return
	}
	u.current = name
	u.reset = true
	u.dirty = true
}

// Play requests a logical animation and always restarts it.
func (u *UnitAnimator) Play(name string) {
	u.current = name
	u.reset = true
	u.dirty = true
}

// Playing returns the logical animation name.
func (u *UnitAnimator) Playing() string { return u.current }

// Showing reports whether name is playing and its clip has already been
// handed to the animator, so the animator's frames belong to it.
func (u *UnitAnimator) Showing(name string) bool { return u.current == name && !u.reset }

// Face sets the facing. Turning keeps the clip's play time.
func (u *UnitAnimator) Face(d Direction) {
	if u.facing == d {
		return
	}
	u.facing = d
	u.dirty = true
}

// Facing returns the current facing.
func (u *UnitAnimator) Facing() Direction { return u.facing }

// Apply pushes a pending change to the animator. It returns false when the
// set has no entry for the logical animation; the request stays pending.
func (u *UnitAnimator) Apply(set *data.UnitAnimationSet, a *Animator) bool {
	if !u.dirty {
		return true
	}
	ua, ok := set.Get(u.current)
	if !ok {
		return false
	}
	name := ua.Directions()[u.facing]
	if u.reset {
		a.Play(name)
	} else {
		a.SetPlaying(name)
	}
	u.reset = false
	u.dirty = false
	return true
}
