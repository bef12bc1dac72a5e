package meshing

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

const (
	// VerticesPerFace is the number of vertices emitted for each merged face.
	VerticesPerFace = 4

	// IndicesPerFace is the number of indices emitted for each merged face (two triangles).
	IndicesPerFace = 6

	maxTexCoord = 255
)

// faceIndexPattern lists the triangle indices of one face relative to its first vertex (ll, lr, ul, ur).
var faceIndexPattern = [IndicesPerFace]uint32{0, 1, 3, 0, 3, 2}

// Vertex is a single chunk-local mesh vertex.
// World placement is recovered on the GPU through ChunkIndex, so positions never leave chunk space.
type Vertex struct {
	Position     [3]int32
	TextureIndex uint32
	TexCoords    [2]float32
	ChunkIndex   uint32
}

// SideMesh is the vertex and index data of one side of a chunk.
// Indices are relative to the start of Vertices.
type SideMesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// Mesh holds the per-side geometry of one chunk.
type Mesh struct {
	Sides [voxel.SideCount]SideMesh
}

// GenerateMesh runs greedy meshing over the requested sides of a chunk and emits GPU-ready
// vertex and index arrays. Unrequested sides stay empty.
//
// Parameters:
//   - chunk: the chunk to mesh
//   - sides: the sides to mesh
//
// Returns:
//   - *Mesh: the generated mesh
func GenerateMesh(chunk *voxel.Chunk, sides []voxel.BlockSide) *Mesh {
	faces := GreedyFaces(chunk, sides)
	m := &Mesh{}
	for s := range faces {
		if len(faces[s]) == 0 {
			continue
		}
		m.Sides[s] = emitSide(faces[s])
	}
	return m
}

func emitSide(faces []Face) SideMesh {
	sm := SideMesh{
		Vertices: make([]Vertex, 0, len(faces)*VerticesPerFace),
		Indices:  make([]uint32, 0, len(faces)*IndicesPerFace),
	}
	for n, f := range faces {
		base := uint32(n * VerticesPerFace)
		u, v := texSpan(f)
		tex := f.Block.TextureIndex(f.Side)
		sm.Vertices = append(sm.Vertices,
			newVertex(f.LL, tex, 0, v),
			newVertex(f.LR, tex, u, v),
			newVertex(f.UL, tex, 0, 0),
			newVertex(f.UR, tex, u, 0),
		)
		for _, idx := range faceIndexPattern {
			sm.Indices = append(sm.Indices, base+idx)
		}
	}
	return sm
}

func newVertex(p Point, tex uint32, u, v uint8) Vertex {
	return Vertex{
		Position:     [3]int32{p.X, p.Y, p.Z},
		TextureIndex: tex,
		TexCoords:    [2]float32{float32(u), float32(v)},
	}
}

// texSpan returns how many times the texture repeats across a face horizontally and vertically.
func texSpan(f Face) (u, v uint8) {
	var du, dv int32
	switch f.Side {
	case voxel.SideFront:
		du, dv = f.LR.Z-f.LL.Z, f.UL.Y-f.LL.Y
	case voxel.SideBack:
		du, dv = f.LL.Z-f.LR.Z, f.UL.Y-f.LL.Y
	case voxel.SideLeft:
		du, dv = f.LL.X-f.LR.X, f.UL.Y-f.LL.Y
	case voxel.SideRight:
		du, dv = f.LR.X-f.LL.X, f.UL.Y-f.LL.Y
	case voxel.SideTop:
		du, dv = f.LR.Z-f.LL.Z, f.UL.X-f.LL.X
	case voxel.SideBottom:
		du, dv = f.LL.Z-f.LR.Z, f.UL.X-f.LL.X
	}
	return clampTex(du), clampTex(dv)
}

func clampTex(n int32) uint8 {
	return uint8(min(max(n, 0), maxTexCoord))
}

// SetChunkIndex stamps a chunk index slot into every vertex of the mesh.
//
// Parameters:
//   - slot: the chunk index table slot assigned to the mesh's chunk
func (m *Mesh) SetChunkIndex(slot uint32) {
	for s := range m.Sides {
		verts := m.Sides[s].Vertices
		for i := range verts {
			verts[i].ChunkIndex = slot
		}
	}
}

// VertexCounts returns the number of vertices on each side.
func (m *Mesh) VertexCounts() [voxel.SideCount]int {
	var counts [voxel.SideCount]int
	for s := range m.Sides {
		counts[s] = len(m.Sides[s].Vertices)
	}
	return counts
}

// IsEmpty reports whether no side holds any geometry.
func (m *Mesh) IsEmpty() bool {
	for s := range m.Sides {
		if len(m.Sides[s].Vertices) > 0 {
			return false
		}
	}
	return true
}

// FaceCount returns the total number of quads across all sides.
func (m *Mesh) FaceCount() int {
	total := 0
	for s := range m.Sides {
		total += len(m.Sides[s].Vertices) / VerticesPerFace
	}
	return total
}
