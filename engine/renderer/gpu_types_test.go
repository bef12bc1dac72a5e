package renderer

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGPUCameraMarshal(t *testing.T) {
	cam := NewGPUCamera(mgl32.Translate3D(1, 2, 3), 16)
	if cam.Size() != GPUCameraSize {
		t.Fatalf("Size = %d, want %d", cam.Size(), GPUCameraSize)
	}

	buf := cam.Marshal()
	if len(buf) != GPUCameraSize {
		t.Fatalf("len = %d", len(buf))
	}
	// column-major: translation lives in elements 12..14
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[13*4:])); got != 2 {
		t.Fatalf("translation y = %v, want 2", got)
	}
	if got := int32(binary.LittleEndian.Uint32(buf[64:68])); got != 16 {
		t.Fatalf("chunk dimension = %d, want 16", got)
	}
}

func TestVoxelShaderSourceIncludesStructs(t *testing.T) {
	src := VoxelShaderSource()
	for _, want := range []string{"struct VoxelVertex", "struct ChunkPosition", "struct Camera", "fn vs_main", "fn fs_main"} {
		if !strings.Contains(src, want) {
			t.Fatalf("shader source missing %q", want)
		}
	}
}

func TestVertexLayoutMatchesGPUVertex(t *testing.T) {
	if voxelVertexLayout.ArrayStride != 28 {
		t.Fatalf("stride = %d", voxelVertexLayout.ArrayStride)
	}
	last := voxelVertexLayout.Attributes[len(voxelVertexLayout.Attributes)-1]
	if last.Offset+4 != voxelVertexLayout.ArrayStride {
		t.Fatalf("last attribute ends at %d", last.Offset+4)
	}
}
