package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkDimension is the number of blocks along each axis of a chunk.
const ChunkDimension = 16

// ChunkPositionFromWorld returns the chunk containing a world-space point.
// Negative coordinates floor toward negative infinity so (-0.5, 0, 0) lies in chunk (-1, 0, 0).
//
// Parameters:
//   - p: the world-space point
//
// Returns:
//   - ChunkPosition: the containing chunk
func ChunkPositionFromWorld(p mgl32.Vec3) ChunkPosition {
	return ChunkPosition{
		X: int32(math32.Floor(p.X() / ChunkDimension)),
		Y: int32(math32.Floor(p.Y() / ChunkDimension)),
		Z: int32(math32.Floor(p.Z() / ChunkDimension)),
	}
}

// ChunkOrigin returns the world-space coordinate of a chunk's minimum corner.
//
// Parameters:
//   - p: the chunk position
//
// Returns:
//   - mgl32.Vec3: the world-space origin
func ChunkOrigin(p ChunkPosition) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(p.X * ChunkDimension),
		float32(p.Y * ChunkDimension),
		float32(p.Z * ChunkDimension),
	}
}
