package voxel

// BlockType identifies the material of a single voxel cell.
// The zero value is Air, which is never stored in a chunk's dense block array.
type BlockType uint8

const (
	// BlockAir is an empty cell.
	BlockAir BlockType = iota
	// BlockDirt is plain dirt, textured identically on every side.
	BlockDirt
	// BlockGrass has a grass top, dirt bottom and grass-edge sides.
	BlockGrass
	// BlockWood is a wooden plank block.
	BlockWood
	// BlockWhite is a flat white block, mostly used for debugging.
	BlockWhite
)

// Atlas slots of the block texture atlas.
const (
	atlasWood      uint32 = 0
	atlasDirt      uint32 = 1
	atlasGrassSide uint32 = 2
	atlasGrassTop  uint32 = 3
	atlasWhite     uint32 = 4
)

// IsSolid reports whether the block occupies its cell.
func (b BlockType) IsSolid() bool {
	return b != BlockAir
}

// TextureIndex returns the texture atlas slot used for the given side of this block type.
//
// Parameters:
//   - side: the face direction being textured
//
// Returns:
//   - uint32: the atlas slot index
func (b BlockType) TextureIndex(side BlockSide) uint32 {
	switch b {
	case BlockWood:
		return atlasWood
	case BlockDirt:
		return atlasDirt
	case BlockWhite:
		return atlasWhite
	case BlockGrass:
		switch side {
		case SideTop:
			return atlasGrassTop
		case SideBottom:
			return atlasDirt
		default:
			return atlasGrassSide
		}
	}
	return 0
}

func (b BlockType) String() string {
	switch b {
	case BlockAir:
		return "Air"
	case BlockDirt:
		return "Dirt"
	case BlockGrass:
		return "Grass"
	case BlockWood:
		return "Wood"
	case BlockWhite:
		return "White"
	}
	return "Unknown"
}
