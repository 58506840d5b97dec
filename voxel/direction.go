package voxel

// Direction is one of the four cardinal directions in world space.
// Up is +Y, which is towards row 0 on the fine grid.
type Direction uint8

const (
	DirUp    Direction = iota // +Y
	DirDown                   // -Y
	DirLeft                   // -X
	DirRight                  // +X
)

// Directions lists every direction in edge-scan order.
var Directions = [4]Direction{DirUp, DirDown, DirLeft, DirRight}

// Opposite returns the direction facing back across a boundary.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	default:
		return DirLeft
	}
}

// Normal returns the grid step (row, col) pointing out of an edge facing d.
func (d Direction) Normal() (dr, dc int) {
	switch d {
	case DirUp:
		return -1, 0
	case DirDown:
		return 1, 0
	case DirLeft:
		return 0, -1
	default:
		return 0, 1
	}
}

// Flag returns the bit for d in a DirFlags mask.
func (d Direction) Flag() DirFlags {
	return 1 << d
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "+Y"
	case DirDown:
		return "-Y"
	case DirLeft:
		return "-X"
	case DirRight:
		return "+X"
	}
	return "?"
}

// DirFlags is a 4-bit mask of directions.
type DirFlags uint8

// Has reports whether d is set.
func (f DirFlags) Has(d Direction) bool {
	return f&d.Flag() != 0
}
