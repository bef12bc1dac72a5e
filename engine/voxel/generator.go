package voxel

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/zeebo/xxh3"
)

// Generator produces the chunk for a chunk position. Generators must be deterministic and safe to
// call from multiple goroutines.
type Generator func(position common.ChunkPosition) *Chunk

const (
	terrainScale     = 0.02
	terrainThreshold = 0.2
	terrainOctaves   = 3
	randomSolidRatio = 0.1
)

var generatedTypes = [...]BlockType{BlockDirt, BlockGrass, BlockWood}

// EmptyGenerator yields chunks with every cell set to air.
func EmptyGenerator() Generator {
	return NewEmptyChunk
}

// SolidGenerator yields chunks completely filled with one block type.
//
// Parameters:
//   - t: the block type to fill with (must be solid)
//
// Returns:
//   - Generator: the generator
func SolidGenerator(t BlockType) Generator {
	if !t.IsSolid() {
		panic("voxel: SolidGenerator requires a solid block type")
	}
	return func(position common.ChunkPosition) *Chunk {
		return NewChunk(position, func(_, _, _ int) BlockType { return t })
	}
}

// CheckerboardGenerator yields chunks where every cell whose coordinate sum is even is solid.
// No two solid cells share a face, which makes it the worst case for meshing.
func CheckerboardGenerator(t BlockType) Generator {
	return func(position common.ChunkPosition) *Chunk {
		return NewChunk(position, func(x, y, z int) BlockType {
			if (x+y+z)%2 == 0 {
				return t
			}
			return BlockAir
		})
	}
}

// RandomGenerator yields chunks where roughly one cell in ten is a random solid block.
// The sequence is seeded from the chunk position so regenerating a chunk is stable.
//
// Parameters:
//   - seed: world seed mixed into every chunk's stream
//
// Returns:
//   - Generator: the generator
func RandomGenerator(seed uint64) Generator {
	return func(position common.ChunkPosition) *Chunk {
		chunkSeed := xxh3.HashSeed(position.Bytes(), seed)
		rng := rand.New(rand.NewPCG(chunkSeed, seed))
		return NewChunk(position, func(_, _, _ int) BlockType {
			if rng.Float64() >= randomSolidRatio {
				return BlockAir
			}
			return generatedTypes[rng.IntN(len(generatedTypes))]
		})
	}
}

// TerrainGenerator yields caves-and-islands terrain from 3D value noise sampled in world space.
// A cell is solid when the centered noise leaves the [-0.2, 0.2] band.
//
// Parameters:
//   - seed: world seed
//
// Returns:
//   - Generator: the generator
func TerrainGenerator(seed uint64) Generator {
	return func(position common.ChunkPosition) *Chunk {
		origin := common.ChunkOrigin(position)
		ox, oy, oz := int64(origin.X()), int64(origin.Y()), int64(origin.Z())
		return NewChunk(position, func(x, y, z int) BlockType {
			wx, wy, wz := ox+int64(x), oy+int64(y), oz+int64(z)
			n := octaveNoise3D(float64(wx)*terrainScale, float64(wy)*terrainScale, float64(wz)*terrainScale, seed, terrainOctaves, 0.5, 2.0)*2 - 1
			if n > -terrainThreshold && n < terrainThreshold {
				return BlockAir
			}
			return generatedTypes[hash3(wx, wy, wz, seed^0x5bd1e995)%uint64(len(generatedTypes))]
		})
	}
}
