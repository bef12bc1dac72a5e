package meshing

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

// sideRules describes how faces of one side are grouped and merged while scanning a chunk.
//
// A layer is the plane a face lies in. Within a layer, faces are scanned slice by slice; faces of
// one slice are merged into strips (in-layer), and strips of consecutive slices are merged into
// rectangles (cross-layer) using each strip's start coordinate to pair them.
type sideRules struct {
	layer      func(x, y, z int) int
	slice      func(x, y, z int) int
	inLayer    func(prev, next Face) (Face, bool)
	crossLayer func(before, current Face) (Face, bool)
	start      func(f Face) int32
}

func layerX(x, _, _ int) int { return x }
func layerY(_, y, _ int) int { return y }
func layerZ(_, _, z int) int { return z }

var rules = [voxel.SideCount]sideRules{
	voxel.SideFront: {
		layer: layerX, slice: layerZ,
		inLayer: Face.mergeUp, crossLayer: Face.mergeRight,
		start: func(f Face) int32 { return f.LL.Y },
	},
	voxel.SideBack: {
		layer: layerX, slice: layerZ,
		inLayer: Face.mergeUp, crossLayer: Face.mergeLeft,
		start: func(f Face) int32 { return f.LL.Y },
	},
	voxel.SideBottom: {
		layer: layerY, slice: layerZ,
		inLayer: Face.mergeUp, crossLayer: Face.mergeLeft,
		start: func(f Face) int32 { return f.LL.X },
	},
	voxel.SideTop: {
		layer: layerY, slice: layerZ,
		inLayer: Face.mergeUp, crossLayer: Face.mergeRight,
		start: func(f Face) int32 { return f.LL.X },
	},
	voxel.SideLeft: {
		layer: layerZ, slice: layerY,
		inLayer: Face.mergeLeft, crossLayer: Face.mergeUp,
		start: func(f Face) int32 { return f.LR.X },
	},
	voxel.SideRight: {
		layer: layerZ, slice: layerY,
		inLayer: Face.mergeRight, crossLayer: Face.mergeUp,
		start: func(f Face) int32 { return f.LL.X },
	},
}

type layerState struct {
	before       []Face
	beforeSlice  int
	current      []Face
	currentSlice int
}

type sideMerger struct {
	rules  *sideRules
	layers [voxel.Dimension]layerState
	out    []Face
}

func newSideMerger(side voxel.BlockSide) *sideMerger {
	return &sideMerger{rules: &rules[side]}
}

func (m *sideMerger) add(x, y, z int, f Face) {
	l := &m.layers[m.rules.layer(x, y, z)]
	slice := m.rules.slice(x, y, z)

	if len(l.current) > 0 && slice == l.currentSlice {
		last := &l.current[len(l.current)-1]
		if merged, ok := m.rules.inLayer(*last, f); ok {
			*last = merged
			return
		}
		l.current = append(l.current, f)
		return
	}

	m.advance(l)
	if len(l.before) > 0 && slice != l.beforeSlice+1 {
		m.out = append(m.out, l.before...)
		l.before = nil
	}
	l.current = []Face{f}
	l.currentSlice = slice
}

// advance folds the layer's finished slice into the strips carried from earlier slices.
func (m *sideMerger) advance(l *layerState) {
	if len(l.current) == 0 {
		return
	}
	if len(l.before) > 0 && l.beforeSlice == l.currentSlice-1 {
		l.before = m.crossMerge(l.before, l.current)
	} else {
		m.out = append(m.out, l.before...)
		l.before = l.current
	}
	l.beforeSlice = l.currentSlice
	l.current = nil
}

// crossMerge pairs strips of two consecutive slices by start coordinate. Strips from before that
// cannot grow any further are emitted; the returned slice carries the (possibly grown) current strips.
func (m *sideMerger) crossMerge(before, current []Face) []Face {
	i, j := 0, 0
	for i < len(before) && j < len(current) {
		bs, cs := m.rules.start(before[i]), m.rules.start(current[j])
		switch {
		case bs == cs:
			if merged, ok := m.rules.crossLayer(before[i], current[j]); ok {
				current[j] = merged
			} else {
				m.out = append(m.out, before[i])
			}
			i++
			j++
		case bs < cs:
			m.out = append(m.out, before[i])
			i++
		default:
			j++
		}
	}
	m.out = append(m.out, before[i:]...)
	return current
}

func (m *sideMerger) finish() []Face {
	for i := range m.layers {
		l := &m.layers[i]
		m.advance(l)
		m.out = append(m.out, l.before...)
		l.before = nil
	}
	return m.out
}

// GreedyFaces extracts the visible faces of a chunk for the requested sides and merges them into
// maximal rectangles in a single streaming pass. Sides not requested are left nil.
//
// Parameters:
//   - chunk: the chunk to mesh
//   - sides: the sides to extract
//
// Returns:
//   - [voxel.SideCount][]Face: the merged faces indexed by side
func GreedyFaces(chunk *voxel.Chunk, sides []voxel.BlockSide) [voxel.SideCount][]Face {
	var faces [voxel.SideCount][]Face
	if chunk == nil || chunk.IsEmpty() {
		return faces
	}

	var mergers [voxel.SideCount]*sideMerger
	requested := make([]voxel.BlockSide, 0, voxel.SideCount)
	for _, s := range sides {
		if mergers[s] == nil {
			mergers[s] = newSideMerger(s)
			requested = append(requested, s)
		}
	}
	if len(requested) == 0 {
		return faces
	}

	chunk.ForEachSolid(func(x, y, z int, t voxel.BlockType) {
		for _, s := range requested {
			dx, dy, dz := s.Offset()
			if chunk.IsSolid(x+dx, y+dy, z+dz) {
				continue
			}
			mergers[s].add(x, y, z, unitFace(int32(x), int32(y), int32(z), t, s))
		}
	})

	for _, s := range requested {
		faces[s] = mergers[s].finish()
	}
	return faces
}
