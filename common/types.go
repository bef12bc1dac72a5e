// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"encoding/binary"
	"fmt"
)

// ChunkPosition is the integer coordinate of a chunk in chunk space.
// A chunk at (1, 0, 0) covers world x in [16, 32).
type ChunkPosition struct {
	X int32
	Y int32
	Z int32
}

// NewChunkPosition builds a ChunkPosition from three coordinates.
//
// Parameters:
//   - x, y, z: the chunk-space coordinates
//
// Returns:
//   - ChunkPosition: the position
func NewChunkPosition(x, y, z int32) ChunkPosition {
	return ChunkPosition{X: x, Y: y, Z: z}
}

// Add returns the component-wise sum of two positions.
func (p ChunkPosition) Add(o ChunkPosition) ChunkPosition {
	return ChunkPosition{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Bytes returns the 12-byte little-endian encoding of the position.
// Used as hash input for deterministic per-chunk seeds.
func (p ChunkPosition) Bytes() []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(p.X))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(p.Y))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(p.Z))
	return buf
}

func (p ChunkPosition) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// BlockPosition is an integer coordinate local to a chunk, each axis in [0, 16).
type BlockPosition struct {
	X int
	Y int
	Z int
}
