package meshing

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VoxelVertex struct.
// Matches GPUVertex layout exactly (28 bytes).
//
//go:embed assets/voxel_vertex.wgsl
var GPUVertexSource string

// GPUVertexSize is the byte size of one marshaled vertex.
const GPUVertexSize = 28

// GPUVertex is the GPU-aligned representation of a mesh vertex.
// Size: 28 bytes (vertex buffer layout, no std430 padding).
type GPUVertex struct {
	Position     [3]int32   // offset  0: chunk-local corner (vec3<i32>)
	TextureIndex uint32     // offset 12: texture atlas slot (u32)
	TexCoords    [2]float32 // offset 16: repeat-scaled texture offset (vec2<f32>)
	ChunkIndex   uint32     // offset 24: chunk index table slot (u32)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (28)
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// MarshalTo writes the vertex into buf, which must hold at least GPUVertexSize bytes.
func (g *GPUVertex) MarshalTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.TextureIndex)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.TexCoords[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.TexCoords[1]))
	binary.LittleEndian.PutUint32(buf[24:28], g.ChunkIndex)
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	g.MarshalTo(buf)
	return buf
}

// MarshalVertices packs vertices back to back for a vertex buffer upload.
//
// Parameters:
//   - vertices: the vertices to pack
//
// Returns:
//   - []byte: len(vertices)*GPUVertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexSize)
	for i := range vertices {
		g := GPUVertex(vertices[i])
		g.MarshalTo(buf[i*GPUVertexSize:])
	}
	return buf
}

// MarshalIndices packs uint32 indices little-endian for an index buffer upload.
//
// Parameters:
//   - indices: the indices to pack
//
// Returns:
//   - []byte: len(indices)*4 bytes
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}
