package meshing

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

// Point is an integer corner coordinate in chunk-local space, each axis in [0, 16].
type Point struct {
	X, Y, Z int32
}

// Face is an axis-aligned quad on one side of a run of blocks.
// Corners are named from the viewpoint of someone looking at the face from outside the block:
// lower-left, lower-right, upper-left and upper-right.
type Face struct {
	LL, LR, UL, UR Point
	Block          voxel.BlockType
	Side           voxel.BlockSide
}

// unitFace returns the face of the single cell (i, j, k) on the given side.
func unitFace(i, j, k int32, block voxel.BlockType, side voxel.BlockSide) Face {
	f := Face{Block: block, Side: side}
	switch side {
	case voxel.SideFront:
		f.LL, f.LR, f.UL, f.UR = Point{i, j, k}, Point{i, j, k + 1}, Point{i, j + 1, k}, Point{i, j + 1, k + 1}
	case voxel.SideBack:
		f.LL, f.LR, f.UL, f.UR = Point{i + 1, j, k + 1}, Point{i + 1, j, k}, Point{i + 1, j + 1, k + 1}, Point{i + 1, j + 1, k}
	case voxel.SideBottom:
		f.LL, f.LR, f.UL, f.UR = Point{i, j, k + 1}, Point{i, j, k}, Point{i + 1, j, k + 1}, Point{i + 1, j, k}
	case voxel.SideTop:
		f.LL, f.LR, f.UL, f.UR = Point{i, j + 1, k}, Point{i, j + 1, k + 1}, Point{i + 1, j + 1, k}, Point{i + 1, j + 1, k + 1}
	case voxel.SideLeft:
		f.LL, f.LR, f.UL, f.UR = Point{i + 1, j, k}, Point{i, j, k}, Point{i + 1, j + 1, k}, Point{i, j + 1, k}
	case voxel.SideRight:
		f.LL, f.LR, f.UL, f.UR = Point{i, j, k + 1}, Point{i + 1, j, k + 1}, Point{i, j + 1, k + 1}, Point{i + 1, j + 1, k + 1}
	default:
		panic("meshing: unitFace called with invalid side")
	}
	return f
}

func (f Face) compatible(o Face) bool {
	return f.Block == o.Block && f.Side == o.Side
}

// mergeUp joins o onto the upper edge of f.
func (f Face) mergeUp(o Face) (Face, bool) {
	if !f.compatible(o) || f.UL != o.LL || f.UR != o.LR {
		return f, false
	}
	f.UL, f.UR = o.UL, o.UR
	return f, true
}

// mergeRight joins o onto the right edge of f.
func (f Face) mergeRight(o Face) (Face, bool) {
	if !f.compatible(o) || f.LR != o.LL || f.UR != o.UL {
		return f, false
	}
	f.LR, f.UR = o.LR, o.UR
	return f, true
}

// mergeLeft joins o onto the left edge of f.
func (f Face) mergeLeft(o Face) (Face, bool) {
	if !f.compatible(o) || f.LL != o.LR || f.UL != o.UR {
		return f, false
	}
	f.LL, f.UL = o.LL, o.UL
	return f, true
}

// Width returns the extent of the face along its lower edge.
func (f Face) Width() int32 {
	return manhattan(f.LL, f.LR)
}

// Height returns the extent of the face along its left edge.
func (f Face) Height() int32 {
	return manhattan(f.LL, f.UL)
}

// Area returns the number of unit faces covered by f.
func (f Face) Area() int32 {
	return f.Width() * f.Height()
}

func manhattan(a, b Point) int32 {
	return abs32(a.X-b.X) + abs32(a.Y-b.Y) + abs32(a.Z-b.Z)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
