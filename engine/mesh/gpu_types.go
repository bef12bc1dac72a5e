package mesh

import (
	_ "embed"
	"encoding/binary"
	"unsafe"
)

// GPUIndirectArgsSource is the canonical WGSL definition of the IndirectArgs struct.
// Matches GPUIndirectArgs layout exactly (20 bytes).
//
//go:embed assets/indirect_args.wgsl
var GPUIndirectArgsSource string

// GPUIndirectArgsSize is the byte size of one DrawIndexedIndirect record.
const GPUIndirectArgsSize = 20

// GPUIndirectArgs is the GPU-aligned DrawIndexedIndirect arguments of one bucket.
// Size: 20 bytes (5 × u32).
type GPUIndirectArgs struct {
	IndexCount    uint32 // offset 0: number of indices in the bucket
	InstanceCount uint32 // offset 4: 1 while the bucket is drawn, 0 once evicted
	FirstIndex    uint32 // offset 8: bucket slot * bucket index capacity
	BaseVertex    int32  // offset 12: bucket slot * bucket vertex capacity (signed)
	FirstInstance uint32 // offset 16: always 0
}

// Size returns the size of the GPUIndirectArgs struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUIndirectArgs) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUIndirectArgs struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload.
func (g *GPUIndirectArgs) Marshal() []byte {
	buf := make([]byte, GPUIndirectArgsSize)
	binary.LittleEndian.PutUint32(buf[0:4], g.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:8], g.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:12], g.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(g.BaseVertex))
	binary.LittleEndian.PutUint32(buf[16:20], g.FirstInstance)
	return buf
}

// GPUChunkPositionSource is the canonical WGSL definition of the ChunkPosition struct.
// Matches GPUChunkPosition layout exactly (16 bytes, vec3<i32> array stride).
//
//go:embed assets/chunk_position.wgsl
var GPUChunkPositionSource string

// GPUChunkPositionSize is the byte size of one chunk index table record.
const GPUChunkPositionSize = 16

// GPUChunkPosition is the GPU-aligned chunk coordinate stored at a chunk index slot.
// Size: 16 bytes (std430 array<vec3<i32>> stride).
type GPUChunkPosition struct {
	Position [3]int32 // offset 0: chunk coordinate (vec3<i32>)
	_pad     int32    // offset 12: padding to 16 bytes
}

// Size returns the size of the GPUChunkPosition struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUChunkPosition) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUChunkPosition struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUChunkPosition) Marshal() []byte {
	buf := make([]byte, GPUChunkPositionSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], 0) // _pad
	return buf
}
