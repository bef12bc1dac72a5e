package renderer

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/meshing"
	"github.com/cogentcore/webgpu/wgpu"
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1). This is the default.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing.
	MSAA4x MSAASampleCount = 4
)

// TargetFormat is the color format of the offscreen render target.
const TargetFormat = wgpu.TextureFormatRGBA8Unorm

// CameraBufferName is the registry name of the camera uniform buffer.
const CameraBufferName = "camera_buffer"

// voxelVertexLayout describes meshing.GPUVertex: sint32x3 position, uint32 texture index,
// float32x2 tex coords, uint32 chunk index.
var voxelVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: meshing.GPUVertexSize,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatSint32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatUint32, Offset: 12, ShaderLocation: 1},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2},
		{Format: wgpu.VertexFormatUint32, Offset: 24, ShaderLocation: 3},
	},
}

// voxelBindGroupLayout binds the camera uniform and the chunk position lookup table.
var voxelBindGroupLayout = wgpu.BindGroupLayoutDescriptor{
	Label: "Voxel Bind Group Layout",
	Entries: []wgpu.BindGroupLayoutEntry{
		{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		},
		{
			Binding:    1,
			Visibility: wgpu.ShaderStageVertex,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
		},
	},
}
