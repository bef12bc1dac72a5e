package voxel

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockSide is one of the six face directions of a block.
// The numeric order is stable and used to index per-side arrays and GPU buffers.
type BlockSide uint8

const (
	// SideFront faces negative x.
	SideFront BlockSide = iota
	// SideBack faces positive x.
	SideBack
	// SideBottom faces negative y.
	SideBottom
	// SideTop faces positive y.
	SideTop
	// SideLeft faces negative z.
	SideLeft
	// SideRight faces positive z.
	SideRight
)

// SideCount is the number of block sides.
const SideCount = 6

// visibilityCutoff is cos(45°): a side stays visible until the view direction points more than 45° into it.
var visibilityCutoff = 1 / math32.Sqrt2

// AllSides returns every block side in index order.
//
// Returns:
//   - []BlockSide: the six sides
func AllSides() []BlockSide {
	return []BlockSide{SideFront, SideBack, SideBottom, SideTop, SideLeft, SideRight}
}

// Offset returns the unit step from a cell to its neighbor across this side.
//
// Returns:
//   - x, y, z: the neighbor offset
func (s BlockSide) Offset() (x, y, z int) {
	switch s {
	case SideFront:
		return -1, 0, 0
	case SideBack:
		return 1, 0, 0
	case SideBottom:
		return 0, -1, 0
	case SideTop:
		return 0, 1, 0
	case SideLeft:
		return 0, 0, -1
	case SideRight:
		return 0, 0, 1
	}
	panic("voxel: Offset called on invalid BlockSide")
}

func (s BlockSide) String() string {
	switch s {
	case SideFront:
		return "Front"
	case SideBack:
		return "Back"
	case SideBottom:
		return "Bottom"
	case SideTop:
		return "Top"
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	}
	return "Unknown"
}

// VisibleSides returns the sides that can face a camera looking along view.
// A side is culled only when the view direction points more than 45 degrees into it.
//
// Parameters:
//   - view: the camera forward vector (normalized)
//
// Returns:
//   - []BlockSide: the potentially visible sides in index order
func VisibleSides(view mgl32.Vec3) []BlockSide {
	c := visibilityCutoff
	sides := make([]BlockSide, 0, SideCount)
	if view.X() > -c {
		sides = append(sides, SideFront)
	}
	if view.X() < c {
		sides = append(sides, SideBack)
	}
	if view.Y() > -c {
		sides = append(sides, SideBottom)
	}
	if view.Y() < c {
		sides = append(sides, SideTop)
	}
	if view.Z() > -c {
		sides = append(sides, SideLeft)
	}
	if view.Z() < c {
		sides = append(sides, SideRight)
	}
	return sides
}
