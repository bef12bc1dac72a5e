package voxel

import (
	"math/bits"

	"github.com/Carmen-Shannon/oxy-voxel/common"
)

const (
	// Dimension is the number of cells along each axis of a chunk.
	Dimension = common.ChunkDimension

	// PaddedDimension adds a one-cell empty shell on every face for branch-free neighbor checks.
	PaddedDimension = Dimension + 2

	// PaddedVolume is the number of bits in a chunk's solidity bitset.
	PaddedVolume = PaddedDimension * PaddedDimension * PaddedDimension

	paddedArea = PaddedDimension * PaddedDimension
	wordCount  = (PaddedVolume + 63) / 64
)

// Chunk is an immutable 16³ block of voxels.
//
// Solidity is kept in a padded bitset indexed by x + 18*y + 324*z (padded coordinates), and the
// types of solid cells are kept densely in bitset scan order, so the number of set bits preceding a
// cell's bit equals that cell's index into the dense array.
type Chunk struct {
	position common.ChunkPosition

	// solid is the padded solidity bitset.
	solid [wordCount]uint64

	// rank[w] is the number of set bits in solid[0:w].
	rank [wordCount]uint16

	// blocks holds the type of every solid cell in scan order.
	blocks []BlockType
}

// NewChunk builds a chunk by sampling cell for every local coordinate in scan order
// (x innermost, then y, then z). Cells returning BlockAir stay empty.
//
// Parameters:
//   - position: the chunk's position in chunk space
//   - cell: returns the block type of the local cell (x, y, z), each in [0, 16)
//
// Returns:
//   - *Chunk: the populated chunk
func NewChunk(position common.ChunkPosition, cell func(x, y, z int) BlockType) *Chunk {
	c := &Chunk{position: position}
	for z := range Dimension {
		for y := range Dimension {
			for x := range Dimension {
				t := cell(x, y, z)
				if !t.IsSolid() {
					continue
				}
				idx := paddedIndex(x+1, y+1, z+1)
				c.solid[idx>>6] |= 1 << (idx & 63)
				c.blocks = append(c.blocks, t)
			}
		}
	}

	var running uint16
	for w := range wordCount {
		c.rank[w] = running
		running += uint16(bits.OnesCount64(c.solid[w]))
	}

	return c
}

// NewEmptyChunk returns a chunk with every cell set to air.
func NewEmptyChunk(position common.ChunkPosition) *Chunk {
	return NewChunk(position, func(_, _, _ int) BlockType { return BlockAir })
}

func paddedIndex(px, py, pz int) int {
	return px + PaddedDimension*py + paddedArea*pz
}

// Position returns the chunk's position in chunk space.
func (c *Chunk) Position() common.ChunkPosition {
	return c.position
}

// SolidCount returns the number of non-air cells.
func (c *Chunk) SolidCount() int {
	return len(c.blocks)
}

// IsEmpty reports whether every cell is air.
func (c *Chunk) IsEmpty() bool {
	return len(c.blocks) == 0
}

// IsSolid reports whether the local cell is solid. Coordinates may reach one cell into the
// padding shell (-1 and 16), which is always empty.
//
// Parameters:
//   - x, y, z: local coordinates in [-1, 16]
//
// Returns:
//   - bool: true if the cell holds a non-air block
func (c *Chunk) IsSolid(x, y, z int) bool {
	idx := paddedIndex(x+1, y+1, z+1)
	return c.solid[idx>>6]&(1<<(idx&63)) != 0
}

// BlockAt returns the block type at a local cell, or BlockAir for empty or padding cells.
//
// Parameters:
//   - x, y, z: local coordinates in [-1, 16]
//
// Returns:
//   - BlockType: the cell's block type
func (c *Chunk) BlockAt(x, y, z int) BlockType {
	idx := paddedIndex(x+1, y+1, z+1)
	word := idx >> 6
	bit := uint64(1) << (idx & 63)
	if c.solid[word]&bit == 0 {
		return BlockAir
	}
	return c.blocks[c.denseIndex(word, bit-1)]
}

// denseIndex counts the set bits strictly preceding the bit selected by belowMask in word.
func (c *Chunk) denseIndex(word int, belowMask uint64) int {
	return int(c.rank[word]) + bits.OnesCount64(c.solid[word]&belowMask)
}

// ForEachSolid calls fn for every solid cell in scan order (x innermost, then y, then z).
//
// Parameters:
//   - fn: receives the local coordinates and block type of each solid cell
func (c *Chunk) ForEachSolid(fn func(x, y, z int, t BlockType)) {
	n := 0
	for w := range wordCount {
		word := c.solid[w]
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			word &= word - 1
			idx := w<<6 + tz
			pz := idx / paddedArea
			rem := idx % paddedArea
			py := rem / PaddedDimension
			px := rem % PaddedDimension
			fn(px-1, py-1, pz-1, c.blocks[n])
			n++
		}
	}
}
