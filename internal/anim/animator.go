// Package anim tracks which animation frame each unit is showing.
//
// The simulation reads frames, never sprites: attack damage fires when a
// frame begins, per-frame movement speed indexes the walk cycle, and the
// command lock window is a frame interval. Rendering lives elsewhere.
package anim

import "github.com/ChangeCaps/robots-or-smth/internal/data"

// Animator plays one concrete animation from an animation set.
type Animator struct {
	Set string // animation set handle

	playing     string
	playTime    float32
	frame       int
	restarted   bool
	justChanged bool
	dirty       bool
}

// New returns an animator about to start name from frame 0.
func New(set, name string) *Animator {
	return &Animator{Set: set, playing: name, restarted: true, dirty: true}
}

// Play switches to name and restarts it from frame 0, even if it is already
// playing.
func (a *Animator) Play(name string) {
	a.playing = name
	a.playTime = 0
	a.restarted = true
	a.dirty = true
}

// SetPlaying switches to name keeping the current play time, so a facing
// change does not restart the cycle.
func (a *Animator) SetPlaying(name string) {
	if a.playing == name {
		return
	}
	a.playing = name
	a.dirty = true
}

// Playing returns the concrete animation name.
func (a *Animator) Playing() string { return a.playing }

// CurrentFrame returns the frame computed by the last Tick.
func (a *Animator) CurrentFrame() int { return a.frame }

// FrameJustChanged reports whether the last Tick moved onto a new frame, or
// started a freshly played animation. It holds for exactly one tick per frame
// value reached.
func (a *Animator) FrameJustChanged() bool { return a.justChanged }

// Tick advances play time by dt seconds using clip and recomputes the
// current frame and the edge flag.
func (a *Animator) Tick(clip *data.Animation, dt float32) {
	a.playTime += dt
	frame := clip.FrameAt(a.playTime)
	a.justChanged = a.restarted || frame != a.frame
	a.restarted = false
	if a.justChanged {
		a.dirty = true
	}
	a.frame = frame
}

// Sync adopts a replicated animation state: clients do not run their own
// clock ahead of the server's view of the frame.
func (a *Animator) Sync(name string, frame int, clip *data.Animation) {
	if a.playing != name {
		a.playing = name
	}
	a.justChanged = frame != a.frame
	a.frame = frame
	if clip != nil {
		a.playTime = float32(frame) * clip.FrameLength
	}
	a.restarted = false
}

// TakeDirty reports whether the name or frame changed since the last call,
// and clears the flag. Replication sends a delta only when it is set.
func (a *Animator) TakeDirty() bool {
	d := a.dirty
	a.dirty = false
	return d
}
