package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/meshing"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

const (
	// DefaultBucketsPerBuffer is the number of buckets in one backing buffer, and therefore the number
	// of indirect draw records issued per side and buffer.
	DefaultBucketsPerBuffer = 2048

	// BucketVertexCapacity is the maximum number of vertices in one bucket.
	BucketVertexCapacity = 1024

	// BucketIndexCapacity is the maximum number of indices in one bucket (1.5 per vertex).
	BucketIndexCapacity = BucketVertexCapacity * 3 / 2

	// BucketVertexBytes is the byte size of one bucket's vertex region.
	BucketVertexBytes = BucketVertexCapacity * meshing.GPUVertexSize

	// BucketIndexBytes is the byte size of one bucket's index region.
	BucketIndexBytes = BucketIndexCapacity * 4
)

// Bucket is a fixed-capacity region of one side's vertex, index and indirect buffers.
type Bucket struct {
	// BufferNumber selects which of the side's backing buffers the bucket lives in.
	BufferNumber int

	// Slot is the bucket's index within its buffer and the index of its indirect draw record.
	Slot uint32

	// VertexOffset is the byte offset of the bucket's vertex region.
	VertexOffset uint64

	// IndexOffset is the byte offset of the bucket's index region.
	IndexOffset uint64

	// Side is the block side whose buffers the bucket belongs to.
	Side voxel.BlockSide
}

// IndirectOffset returns the byte offset of the bucket's indirect draw record.
func (b Bucket) IndirectOffset() uint64 {
	return uint64(b.Slot) * GPUIndirectArgsSize
}

// FirstIndex returns the first index of the bucket's region in the index buffer.
func (b Bucket) FirstIndex() uint32 {
	return b.Slot * BucketIndexCapacity
}

// BaseVertex returns the first vertex of the bucket's region in the vertex buffer.
func (b Bucket) BaseVertex() int32 {
	return int32(b.Slot) * BucketVertexCapacity
}

// Allocation is one bucket's share of a side mesh. Indices are rebased to the bucket's first vertex.
type Allocation struct {
	Bucket   Bucket
	Vertices []meshing.Vertex
	Indices  []uint32
}

// BucketAllocator hands out buckets from an independent FIFO free queue per side and tracks which
// chunk owns which buckets. It is not safe for concurrent use.
type BucketAllocator interface {
	// CanAllocate reports whether every side has enough free buckets for the given vertex counts.
	//
	// Parameters:
	//   - vertexCounts: the number of vertices to place on each side
	//
	// Returns:
	//   - bool: true if the whole footprint fits
	CanAllocate(vertexCounts [voxel.SideCount]int) bool

	// Allocate splits one side mesh across as many buckets as it needs and records them as owned by
	// position. Capacity must have been confirmed with CanAllocate; running out of buckets, or an index
	// count that is not exactly 1.5 times the vertex count, panics.
	//
	// Parameters:
	//   - position: the owning chunk
	//   - vertices: the side's vertices
	//   - indices: the side's indices, relative to vertices
	//   - side: the side being allocated
	//
	// Returns:
	//   - []Allocation: one entry per bucket used
	Allocate(position common.ChunkPosition, vertices []meshing.Vertex, indices []uint32, side voxel.BlockSide) []Allocation

	// Deallocate returns every bucket owned by the given chunks to the back of its side's free queue.
	//
	// Parameters:
	//   - positions: the chunks to release
	//
	// Returns:
	//   - []Bucket: the released buckets
	Deallocate(positions []common.ChunkPosition) []Bucket

	// IsChunkAllocated reports whether a chunk owns any bucket.
	IsChunkAllocated(position common.ChunkPosition) bool

	// OwnedBuckets returns a copy of the buckets owned by a chunk.
	OwnedBuckets(position common.ChunkPosition) []Bucket

	// FreeBuckets returns the number of free buckets on a side.
	FreeBuckets(side voxel.BlockSide) int

	// Capacity returns the total number of buckets per side.
	Capacity() int
}

type bucketAllocator struct {
	buffersPerSide   int
	bucketsPerBuffer int
	free             [voxel.SideCount][]Bucket
	owned            map[common.ChunkPosition][]Bucket
}

var _ BucketAllocator = &bucketAllocator{}

// NewBucketAllocator creates an allocator with every bucket free.
//
// Parameters:
//   - buffersPerSide: the number of backing buffers per side
//   - bucketsPerBuffer: the number of buckets in each backing buffer
//
// Returns:
//   - BucketAllocator: the allocator
func NewBucketAllocator(buffersPerSide, bucketsPerBuffer int) BucketAllocator {
	if buffersPerSide <= 0 || bucketsPerBuffer <= 0 {
		panic("mesh: NewBucketAllocator requires positive buffer and bucket counts")
	}
	a := &bucketAllocator{
		buffersPerSide:   buffersPerSide,
		bucketsPerBuffer: bucketsPerBuffer,
		owned:            make(map[common.ChunkPosition][]Bucket),
	}
	for _, side := range voxel.AllSides() {
		q := make([]Bucket, 0, buffersPerSide*bucketsPerBuffer)
		for n := range buffersPerSide {
			for slot := range bucketsPerBuffer {
				q = append(q, Bucket{
					BufferNumber: n,
					Slot:         uint32(slot),
					VertexOffset: uint64(slot) * BucketVertexBytes,
					IndexOffset:  uint64(slot) * BucketIndexBytes,
					Side:         side,
				})
			}
		}
		a.free[side] = q
	}
	return a
}

func (a *bucketAllocator) CanAllocate(vertexCounts [voxel.SideCount]int) bool {
	for side, n := range vertexCounts {
		if common.CeilDiv(n, BucketVertexCapacity) > len(a.free[side]) {
			return false
		}
	}
	return true
}

func (a *bucketAllocator) Allocate(position common.ChunkPosition, vertices []meshing.Vertex, indices []uint32, side voxel.BlockSide) []Allocation {
	if 2*len(indices) != 3*len(vertices) {
		panic(fmt.Sprintf("mesh: Allocate got %d indices for %d vertices, want exactly 1.5 per vertex", len(indices), len(vertices)))
	}

	allocations := make([]Allocation, 0, common.CeilDiv(len(vertices), BucketVertexCapacity))
	for vStart, iStart := 0, 0; vStart < len(vertices); vStart, iStart = vStart+BucketVertexCapacity, iStart+BucketIndexCapacity {
		if len(a.free[side]) == 0 {
			panic(fmt.Sprintf("mesh: Allocate ran out of %v buckets for chunk %v", side, position))
		}
		bucket := a.free[side][0]
		a.free[side] = a.free[side][1:]

		vEnd := min(vStart+BucketVertexCapacity, len(vertices))
		iEnd := min(iStart+BucketIndexCapacity, len(indices))

		local := make([]uint32, iEnd-iStart)
		for i, idx := range indices[iStart:iEnd] {
			if idx < uint32(vStart) || idx >= uint32(vEnd) {
				panic(fmt.Sprintf("mesh: Allocate index %d escapes bucket vertex range [%d, %d)", idx, vStart, vEnd))
			}
			local[i] = idx - uint32(vStart)
		}

		allocations = append(allocations, Allocation{
			Bucket:   bucket,
			Vertices: vertices[vStart:vEnd],
			Indices:  local,
		})
		a.owned[position] = append(a.owned[position], bucket)
	}
	return allocations
}

func (a *bucketAllocator) Deallocate(positions []common.ChunkPosition) []Bucket {
	var freed []Bucket
	for _, p := range positions {
		buckets, ok := a.owned[p]
		if !ok {
			continue
		}
		for _, b := range buckets {
			a.free[b.Side] = append(a.free[b.Side], b)
		}
		freed = append(freed, buckets...)
		delete(a.owned, p)
	}
	return freed
}

func (a *bucketAllocator) IsChunkAllocated(position common.ChunkPosition) bool {
	_, ok := a.owned[position]
	return ok
}

func (a *bucketAllocator) OwnedBuckets(position common.ChunkPosition) []Bucket {
	return append([]Bucket(nil), a.owned[position]...)
}

func (a *bucketAllocator) FreeBuckets(side voxel.BlockSide) int {
	return len(a.free[side])
}

func (a *bucketAllocator) Capacity() int {
	return a.buffersPerSide * a.bucketsPerBuffer
}
