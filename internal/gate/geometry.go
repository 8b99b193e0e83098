package gate

import "github.com/transit-ticketing-service/internal/domain"

// Direction is the horizontal facing of a gate: the side travelers enter
// from.
type Direction int

const (
	North Direction = iota // -Z
	South                  // +Z
	West                   // -X
	East                   // +X
)

func (d Direction) String() string {
	switch d {
	case North:
		return "NORTH"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	case East:
		return "EAST"
	}
	return "UNKNOWN"
}

// Opposite returns the facing of the far side of the gate.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	}
	return West
}

type Vec3 struct {
	X, Y, Z float64
}

// AABB is an axis-aligned box, min corner inclusive.
type AABB struct {
	Min, Max Vec3
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// Detection volumes are thin slabs pressed against the gate faces: deep
// enough that a traveler touching the face registers, shallow enough
// that someone walking past the side does not.
const (
	volumeThickness = 0.1
	gateHeight      = 2.0
)

// faceVolume builds the slab on the given face of the gate block.
func faceVolume(pos domain.Position, face Direction) AABB {
	x, y, z := float64(pos.X), float64(pos.Y), float64(pos.Z)
	box := AABB{
		Min: Vec3{X: x, Y: y, Z: z},
		Max: Vec3{X: x + 1, Y: y + gateHeight, Z: z + 1},
	}
	switch face {
	case North:
		box.Max.Z = z
		box.Min.Z = z - volumeThickness
	case South:
		box.Min.Z = z + 1
		box.Max.Z = z + 1 + volumeThickness
	case West:
		box.Max.X = x
		box.Min.X = x - volumeThickness
	case East:
		box.Min.X = x + 1
		box.Max.X = x + 1 + volumeThickness
	}
	return box
}

// detectionVolumes returns the entry slab (on the facing side) and the
// exit slab (on the far side).
func detectionVolumes(pos domain.Position, facing Direction) (entry, exit AABB) {
	return faceVolume(pos, facing), faceVolume(pos, facing.Opposite())
}
