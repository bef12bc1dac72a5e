package renderer

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/meshing"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraSource is the canonical WGSL definition of the Camera uniform.
// Matches GPUCamera layout exactly (80 bytes).
//
//go:embed assets/camera.wgsl
var GPUCameraSource string

//go:embed assets/voxel.wgsl
var voxelShaderBody string

// VoxelShaderSource returns the complete voxel shader: the shared struct definitions followed by
// the entry points.
//
// Returns:
//   - string: WGSL source with vs_main and fs_main entry points
func VoxelShaderSource() string {
	return meshing.GPUVertexSource + "\n" +
		mesh.GPUChunkPositionSource + "\n" +
		GPUCameraSource + "\n" +
		voxelShaderBody
}

// GPUCameraSize is the byte size of the camera uniform.
const GPUCameraSize = 80

// GPUCamera is the GPU-aligned camera uniform.
// Size: 80 bytes (mat4x4<f32> + i32, padded to 16-byte alignment).
type GPUCamera struct {
	ViewProj       [16]float32 // offset 0: column-major view-projection matrix
	ChunkDimension int32       // offset 64: voxels per chunk edge
	_pad           [3]int32    // offset 68: padding to 80 bytes
}

// NewGPUCamera builds the camera uniform from a view-projection matrix.
//
// Parameters:
//   - viewProj: the view-projection matrix
//   - chunkDimension: voxels per chunk edge
//
// Returns:
//   - GPUCamera: the uniform
func NewGPUCamera(viewProj mgl32.Mat4, chunkDimension int) GPUCamera {
	return GPUCamera{ViewProj: viewProj, ChunkDimension: int32(chunkDimension)}
}

// Size returns the size of the GPUCamera struct in bytes.
//
// Returns:
//   - int: The size of the struct in bytes.
func (g *GPUCamera) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCamera struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUCamera) Marshal() []byte {
	buf := make([]byte, GPUCameraSize)
	for i, v := range g.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[64:68], uint32(g.ChunkDimension))
	// 68..80 padding stays zero
	return buf
}
