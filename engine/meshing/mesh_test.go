package meshing

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

func TestGenerateMeshEmptyChunk(t *testing.T) {
	m := GenerateMesh(voxel.NewEmptyChunk(common.ChunkPosition{}), voxel.AllSides())
	if !m.IsEmpty() {
		t.Fatalf("empty chunk produced geometry: %v", m.VertexCounts())
	}
	for s := range m.Sides {
		if m.Sides[s].Vertices != nil || m.Sides[s].Indices != nil {
			t.Fatalf("side %d allocated slices for an empty chunk", s)
		}
	}
}

func TestGenerateMeshIndexLayout(t *testing.T) {
	m := GenerateMesh(voxel.CheckerboardGenerator(voxel.BlockGrass)(common.ChunkPosition{}), voxel.AllSides())
	for s, sm := range m.Sides {
		if len(sm.Indices) != len(sm.Vertices)*3/2 {
			t.Fatalf("side %d: %d indices for %d vertices", s, len(sm.Indices), len(sm.Vertices))
		}
		for n := 0; n < len(sm.Vertices)/VerticesPerFace; n++ {
			base := uint32(n * VerticesPerFace)
			want := []uint32{base, base + 1, base + 3, base, base + 3, base + 2}
			for i, w := range want {
				if got := sm.Indices[n*IndicesPerFace+i]; got != w {
					t.Fatalf("side %d face %d index %d = %d, want %d", s, n, i, got, w)
				}
			}
		}
	}
}

func TestGenerateMeshTexCoordsAndTextures(t *testing.T) {
	m := GenerateMesh(voxel.SolidGenerator(voxel.BlockGrass)(common.ChunkPosition{}), voxel.AllSides())
	for _, side := range voxel.AllSides() {
		sm := m.Sides[side]
		if len(sm.Vertices) != VerticesPerFace {
			t.Fatalf("%v: %d vertices, want 4", side, len(sm.Vertices))
		}
		wantUV := [][2]float32{{0, 16}, {16, 16}, {0, 0}, {16, 0}}
		for i, v := range sm.Vertices {
			if v.TexCoords != wantUV[i] {
				t.Fatalf("%v vertex %d uv = %v, want %v", side, i, v.TexCoords, wantUV[i])
			}
			if v.TextureIndex != voxel.BlockGrass.TextureIndex(side) {
				t.Fatalf("%v vertex %d texture = %d", side, i, v.TextureIndex)
			}
		}
	}
}

func TestMeshSetChunkIndex(t *testing.T) {
	m := GenerateMesh(voxel.RandomGenerator(1)(common.ChunkPosition{}), voxel.AllSides())
	m.SetChunkIndex(42)
	for s := range m.Sides {
		for _, v := range m.Sides[s].Vertices {
			if v.ChunkIndex != 42 {
				t.Fatalf("side %d vertex chunk index = %d, want 42", s, v.ChunkIndex)
			}
		}
	}
	if m.FaceCount() == 0 {
		t.Fatalf("random chunk produced no faces")
	}
}

func TestMarshalVertices(t *testing.T) {
	v := Vertex{Position: [3]int32{-1, 2, 16}, TextureIndex: 3, TexCoords: [2]float32{4, 5}, ChunkIndex: 9}
	buf := MarshalVertices([]Vertex{v, v})
	if len(buf) != 2*GPUVertexSize {
		t.Fatalf("marshaled %d bytes, want %d", len(buf), 2*GPUVertexSize)
	}
	g := GPUVertex(v)
	if g.Size() != GPUVertexSize {
		t.Fatalf("GPUVertex size = %d, want %d", g.Size(), GPUVertexSize)
	}
	second := buf[GPUVertexSize:]
	if int32(binary.LittleEndian.Uint32(second[0:4])) != -1 {
		t.Fatalf("position x not preserved")
	}
	if math.Float32frombits(binary.LittleEndian.Uint32(second[20:24])) != 5 {
		t.Fatalf("tex coord v not preserved")
	}
	if binary.LittleEndian.Uint32(second[24:28]) != 9 {
		t.Fatalf("chunk index not preserved")
	}
	if idx := MarshalIndices([]uint32{7, 8}); binary.LittleEndian.Uint32(idx[4:]) != 8 {
		t.Fatalf("index not preserved")
	}
}
