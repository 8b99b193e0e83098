package domain

import (
	"math"
	"strconv"
	"strings"
)

// World coordinate bounds accepted for station positions.
const (
	maxHorizontal = 30000000
	maxVertical   = 2048
)

// Position is a 3D integer coordinate. It is used only for the
// distance-fallback pricing estimate, never for routing.
type Position struct {
	X int `json:"x" db:"x"`
	Y int `json:"y" db:"y"`
	Z int `json:"z" db:"z"`
}

func (p Position) Valid() bool {
	return p.X >= -maxHorizontal && p.X <= maxHorizontal &&
		p.Y >= -maxVertical && p.Y <= maxVertical &&
		p.Z >= -maxHorizontal && p.Z <= maxHorizontal
}

// DistanceTo returns the euclidean distance between two positions.
func (p Position) DistanceTo(o Position) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ParseStationCode splits a "PREFIX-NN" code into its line prefix and
// ordinal. ok is false when the code carries no numeric suffix.
func ParseStationCode(code string) (prefix string, ordinal int, ok bool) {
	idx := strings.LastIndex(code, "-")
	if idx <= 0 || idx == len(code)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(code[idx+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return code[:idx], n, true
}

type Station struct {
	Code           string   `json:"code" db:"code" validate:"required"`
	Name           string   `json:"name" db:"name" validate:"required"`
	AltName        string   `json:"alt_name,omitempty" db:"alt_name"`
	Position       Position `json:"position"`
	SequenceNumber int      `json:"sequence_number" db:"sequence_number" validate:"min=0"`
}
