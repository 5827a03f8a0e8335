package anim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction is one of the eight sprite facings, in clockwise order starting
// at Up. The order matches data.UnitAnimation.Directions.
type Direction uint8

const (
	Up Direction = iota
	UpRight
	Right
	DownRight
	Down
	DownLeft
	Left
	UpLeft
)

var directionNames = [...]string{"up", "up_right", "right", "down_right", "down", "down_left", "left", "up_left"}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "invalid"
}

// Sprites are drawn isometrically, so world east (angle 0) faces down-right
// on screen and every 45° sector turns one facing counter-clockwise.
var sectorFacing = [8]Direction{DownRight, Right, UpRight, Up, UpLeft, Left, DownLeft, Down}

// DirectionFromVec2 returns the facing for a world-space direction vector.
// The zero vector faces DownRight.
func DirectionFromVec2(v mgl32.Vec2) Direction {
	angle := math.Atan2(float64(v.Y()), float64(v.X()))
	sector := int(math.Round(angle/(math.Pi/4))) % 8
	if sector < 0 {
		sector += 8
	}
	return sectorFacing[sector]
}
