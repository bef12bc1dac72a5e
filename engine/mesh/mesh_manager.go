package mesh

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/meshing"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/elliotchance/orderedmap/v2"
)

const (
	// DefaultBuffersPerSide is the number of backing buffers allocated per side.
	DefaultBuffersPerSide = 1

	// DefaultLRUCapacity bounds the number of chunks tracked by the recency cache.
	DefaultLRUCapacity = 10000

	// DefaultRenderDistance sizes the chunk index table when no explicit capacity is given.
	DefaultRenderDistance = 2
)

// VertexBufferName returns the registry name of a side's vertex buffer.
func VertexBufferName(side voxel.BlockSide, n int) string {
	return fmt.Sprintf("Vertex Buffer %s %d", side, n)
}

// IndexBufferName returns the registry name of a side's index buffer.
func IndexBufferName(side voxel.BlockSide, n int) string {
	return fmt.Sprintf("Index Buffer %s %d", side, n)
}

// IndirectBufferName returns the registry name of a side's indirect draw buffer.
func IndirectBufferName(side voxel.BlockSide, n int) string {
	return fmt.Sprintf("Indirect Buffer %s %d", side, n)
}

// SideDrawCall describes one multi-draw-indexed-indirect call over a side's backing buffer.
type SideDrawCall struct {
	Side           voxel.BlockSide
	VertexBuffer   string
	IndexBuffer    string
	IndirectBuffer string

	// Count is the number of indirect records to draw. Records of free buckets have zero instances.
	Count uint32
}

// Stats is a snapshot of the mesh manager's residency.
type Stats struct {
	MeshedChunks   int
	AllocatedSlots int
	FreeBuckets    [voxel.SideCount]int
	BucketCapacity int
	Evictions      uint64
}

// MeshManager keeps chunk meshes resident in a fixed pool of GPU buckets, evicting the least recently
// meshed chunks when the pool or the chunk index table runs out. Every mutation is returned as buffer
// writes for the caller to apply. It is owned by the main thread and is not safe for concurrent use.
type MeshManager interface {
	// Init creates every vertex, index, indirect and lookup buffer in the registry and clears all
	// indirect records.
	//
	// Returns:
	//   - error: error if a buffer could not be created or written
	Init() error

	// GenerateMeshForChunk meshes the requested sides of a chunk and prepares the result for upload.
	//
	// Parameters:
	//   - chunk: the chunk to mesh
	//   - sides: the sides to mesh
	//
	// Returns:
	//   - []buffer.BufferWrite: the writes for evictions, the lookup slot and the new geometry
	GenerateMeshForChunk(chunk *voxel.Chunk, sides []voxel.BlockSide) []buffer.BufferWrite

	// PrepareMeshForWrite makes room for a mesh by evicting least recently meshed chunks, then
	// allocates buckets and emits vertex, index and indirect writes for every non-empty side.
	// A chunk that is already resident is unloaded first. Empty meshes are recorded as meshed
	// without taking a slot or emitting any write.
	//
	// Parameters:
	//   - position: the chunk the mesh belongs to
	//   - m: the mesh; its vertices are stamped with the assigned chunk index slot
	//
	// Returns:
	//   - []buffer.BufferWrite: the writes to apply, in order
	PrepareMeshForWrite(position common.ChunkPosition, m *meshing.Mesh) []buffer.BufferWrite

	// UnloadChunkPositions frees the buckets and slots of the given chunks and returns the indirect
	// writes that stop their buckets from being drawn.
	//
	// Parameters:
	//   - positions: the chunks to unload
	//
	// Returns:
	//   - []buffer.BufferWrite: the indirect record writes
	UnloadChunkPositions(positions []common.ChunkPosition) []buffer.BufferWrite

	// IsChunkMeshed reports whether a chunk is resident, and marks it most recently used if so.
	IsChunkMeshed(position common.ChunkPosition) bool

	// IndirectCommandCount returns the number of indirect records per backing buffer.
	IndirectCommandCount() uint32

	// DrawCalls returns one draw call per backing buffer of every requested side.
	//
	// Parameters:
	//   - sides: the sides to draw, usually voxel.VisibleSides of the camera
	//
	// Returns:
	//   - []SideDrawCall: the draw calls
	DrawCalls(sides []voxel.BlockSide) []SideDrawCall

	// Stats returns a residency snapshot.
	Stats() Stats
}

type meshManager struct {
	registry buffer.BufferRegistry

	buffersPerSide   int
	bucketsPerBuffer int
	indexCapacity    int
	lruCapacity      int

	allocator  BucketAllocator
	indexTable ChunkIndexTable

	// recency orders resident chunks from least (front) to most (back) recently meshed.
	recency *orderedmap.OrderedMap[common.ChunkPosition, struct{}]

	evictions uint64
}

var _ MeshManager = &meshManager{}

// NewMeshManager creates a MeshManager. WithRegistry is required.
//
// Parameters:
//   - options: functional options for mesh manager configuration
//
// Returns:
//   - MeshManager: the newly created mesh manager
func NewMeshManager(options ...MeshManagerBuilderOption) MeshManager {
	m := &meshManager{
		buffersPerSide:   DefaultBuffersPerSide,
		bucketsPerBuffer: DefaultBucketsPerBuffer,
		indexCapacity:    ChunkIndexCapacityForRenderDistance(DefaultRenderDistance),
		lruCapacity:      DefaultLRUCapacity,
		recency:          orderedmap.NewOrderedMap[common.ChunkPosition, struct{}](),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.registry == nil {
		panic("mesh: NewMeshManager requires a buffer registry (use WithRegistry)")
	}

	m.allocator = NewBucketAllocator(m.buffersPerSide, m.bucketsPerBuffer)
	m.indexTable = NewChunkIndexTable(m.indexCapacity)
	return m
}

func (m *meshManager) Init() error {
	for _, side := range voxel.AllSides() {
		for n := range m.buffersPerSide {
			if err := m.registry.Create(VertexBufferName(side, n), uint64(m.bucketsPerBuffer)*BucketVertexBytes, wgpu.BufferUsageVertex); err != nil {
				return err
			}
			if err := m.registry.Create(IndexBufferName(side, n), uint64(m.bucketsPerBuffer)*BucketIndexBytes, wgpu.BufferUsageIndex); err != nil {
				return err
			}
			if err := m.registry.Create(IndirectBufferName(side, n), uint64(m.bucketsPerBuffer)*GPUIndirectArgsSize, wgpu.BufferUsageIndirect); err != nil {
				return err
			}

			records := make([]byte, 0, m.bucketsPerBuffer*GPUIndirectArgsSize)
			for slot := range m.bucketsPerBuffer {
				b := Bucket{Slot: uint32(slot)}
				args := GPUIndirectArgs{FirstIndex: b.FirstIndex(), BaseVertex: b.BaseVertex()}
				records = append(records, args.Marshal()...)
			}
			if err := m.registry.Write(IndirectBufferName(side, n), 0, records); err != nil {
				return err
			}
		}
	}

	if err := m.registry.Create(ChunkIndexBufferName, m.indexTable.BufferSize(), wgpu.BufferUsageStorage); err != nil {
		return err
	}

	log.Printf("[MeshManager] initialized %d buckets per side across %d buffer(s), %d chunk slots, %.2f MB allocated",
		m.allocator.Capacity(), m.buffersPerSide, m.indexTable.Capacity(), float64(m.registry.TotalAllocated())/1024/1024)
	return nil
}

func (m *meshManager) GenerateMeshForChunk(chunk *voxel.Chunk, sides []voxel.BlockSide) []buffer.BufferWrite {
	return m.PrepareMeshForWrite(chunk.Position(), meshing.GenerateMesh(chunk, sides))
}

func (m *meshManager) PrepareMeshForWrite(position common.ChunkPosition, msh *meshing.Mesh) []buffer.BufferWrite {
	var writes []buffer.BufferWrite
	if m.isResident(position) {
		writes = append(writes, m.UnloadChunkPositions([]common.ChunkPosition{position})...)
	}

	counts := msh.VertexCounts()
	needSlot := !msh.IsEmpty()
	for !m.allocator.CanAllocate(counts) || (needSlot && !m.indexTable.CanAllocate()) {
		victim := m.recency.Front()
		if victim == nil {
			panic(fmt.Sprintf("mesh: PrepareMeshForWrite cannot fit chunk %v (vertex counts %v) even with every chunk evicted", position, counts))
		}
		writes = append(writes, m.evict(victim.Key)...)
	}

	writes = append(writes, m.touch(position)...)
	if !needSlot {
		return writes
	}

	writes = append(writes, m.indexTable.Load([]common.ChunkPosition{position})...)
	slot, _ := m.indexTable.SlotFor(position)
	msh.SetChunkIndex(slot)

	for _, side := range voxel.AllSides() {
		sm := msh.Sides[side]
		if len(sm.Vertices) == 0 {
			continue
		}
		for _, a := range m.allocator.Allocate(position, sm.Vertices, sm.Indices, side) {
			args := GPUIndirectArgs{
				IndexCount:    uint32(len(a.Indices)),
				InstanceCount: 1,
				FirstIndex:    a.Bucket.FirstIndex(),
				BaseVertex:    a.Bucket.BaseVertex(),
				FirstInstance: 0,
			}
			writes = append(writes,
				buffer.BufferWrite{
					Buffer: VertexBufferName(side, a.Bucket.BufferNumber),
					Offset: a.Bucket.VertexOffset,
					Data:   meshing.MarshalVertices(a.Vertices),
				},
				buffer.BufferWrite{
					Buffer: IndexBufferName(side, a.Bucket.BufferNumber),
					Offset: a.Bucket.IndexOffset,
					Data:   meshing.MarshalIndices(a.Indices),
				},
				buffer.BufferWrite{
					Buffer: IndirectBufferName(side, a.Bucket.BufferNumber),
					Offset: a.Bucket.IndirectOffset(),
					Data:   args.Marshal(),
				},
			)
		}
	}
	return writes
}

// touch marks a chunk most recently meshed. Overflowing the recency cache evicts its oldest chunk so
// no resident chunk is ever forgotten while still holding buckets.
func (m *meshManager) touch(position common.ChunkPosition) []buffer.BufferWrite {
	m.recency.Delete(position)
	m.recency.Set(position, struct{}{})

	var writes []buffer.BufferWrite
	for m.recency.Len() > m.lruCapacity {
		writes = append(writes, m.evict(m.recency.Front().Key)...)
	}
	return writes
}

func (m *meshManager) evict(position common.ChunkPosition) []buffer.BufferWrite {
	m.evictions++
	return m.UnloadChunkPositions([]common.ChunkPosition{position})
}

func (m *meshManager) isResident(position common.ChunkPosition) bool {
	if _, ok := m.recency.Get(position); ok {
		return true
	}
	return m.allocator.IsChunkAllocated(position)
}

func (m *meshManager) UnloadChunkPositions(positions []common.ChunkPosition) []buffer.BufferWrite {
	var writes []buffer.BufferWrite
	for _, b := range m.allocator.Deallocate(positions) {
		args := GPUIndirectArgs{
			IndexCount:    0,
			InstanceCount: 0,
			FirstIndex:    b.FirstIndex(),
			BaseVertex:    b.BaseVertex(),
			FirstInstance: 0,
		}
		writes = append(writes, buffer.BufferWrite{
			Buffer: IndirectBufferName(b.Side, b.BufferNumber),
			Offset: b.IndirectOffset(),
			Data:   args.Marshal(),
		})
	}
	m.indexTable.Unload(positions)
	for _, p := range positions {
		m.recency.Delete(p)
	}
	return writes
}

func (m *meshManager) IsChunkMeshed(position common.ChunkPosition) bool {
	if _, ok := m.recency.Get(position); !ok {
		return false
	}
	m.recency.Delete(position)
	m.recency.Set(position, struct{}{})
	return true
}

func (m *meshManager) IndirectCommandCount() uint32 {
	return uint32(m.bucketsPerBuffer)
}

func (m *meshManager) DrawCalls(sides []voxel.BlockSide) []SideDrawCall {
	calls := make([]SideDrawCall, 0, len(sides)*m.buffersPerSide)
	for _, side := range sides {
		for n := range m.buffersPerSide {
			calls = append(calls, SideDrawCall{
				Side:           side,
				VertexBuffer:   VertexBufferName(side, n),
				IndexBuffer:    IndexBufferName(side, n),
				IndirectBuffer: IndirectBufferName(side, n),
				Count:          m.IndirectCommandCount(),
			})
		}
	}
	return calls
}

func (m *meshManager) Stats() Stats {
	s := Stats{
		MeshedChunks:   m.recency.Len(),
		AllocatedSlots: m.indexTable.Len(),
		BucketCapacity: m.allocator.Capacity(),
		Evictions:      m.evictions,
	}
	for _, side := range voxel.AllSides() {
		s.FreeBuckets[side] = m.allocator.FreeBuckets(side)
	}
	return s
}
