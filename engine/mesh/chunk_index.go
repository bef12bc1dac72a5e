package mesh

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
)

// ChunkIndexBufferName is the registry name of the chunk position lookup buffer.
const ChunkIndexBufferName = "chunk_index_buffer"

// ChunkIndexCapacityForRenderDistance returns the slot count needed to hold every chunk within a
// render distance twice over, leaving room for chunks that linger until evicted.
//
// Parameters:
//   - renderDistance: the render distance in chunks
//
// Returns:
//   - int: the slot count
func ChunkIndexCapacityForRenderDistance(renderDistance int) int {
	side := 2*renderDistance + 1
	return side * side * side * 2
}

// ChunkIndexTable assigns small integer slots to loaded chunks. Vertices carry the slot, and the GPU
// looks the chunk's coordinate up in the lookup buffer to place them in the world.
type ChunkIndexTable interface {
	// Load assigns a slot to every position that does not already hold one and returns the writes that
	// store the positions' coordinates in the lookup buffer. Running out of slots panics; callers must
	// check CanAllocate and evict first.
	//
	// Parameters:
	//   - positions: the chunks to load
	//
	// Returns:
	//   - []buffer.BufferWrite: lookup buffer writes for newly assigned slots
	Load(positions []common.ChunkPosition) []buffer.BufferWrite

	// Unload frees the slots of the given chunks. Unknown positions are ignored.
	Unload(positions []common.ChunkPosition)

	// CanAllocate reports whether at least one slot is free.
	CanAllocate() bool

	// SlotFor returns the slot held by a chunk.
	SlotFor(position common.ChunkPosition) (uint32, bool)

	// Len returns the number of slots in use.
	Len() int

	// Capacity returns the total number of slots.
	Capacity() int

	// BufferSize returns the byte size of the lookup buffer.
	BufferSize() uint64
}

type chunkIndexTable struct {
	capacity int
	free     []uint32
	slots    map[common.ChunkPosition]uint32
}

var _ ChunkIndexTable = &chunkIndexTable{}

// NewChunkIndexTable creates a table with capacity free slots, issued in ascending order.
//
// Parameters:
//   - capacity: the number of slots
//
// Returns:
//   - ChunkIndexTable: the table
func NewChunkIndexTable(capacity int) ChunkIndexTable {
	if capacity <= 0 {
		panic("mesh: NewChunkIndexTable requires a positive capacity")
	}
	t := &chunkIndexTable{
		capacity: capacity,
		free:     make([]uint32, capacity),
		slots:    make(map[common.ChunkPosition]uint32, capacity),
	}
	for i := range t.free {
		t.free[i] = uint32(i)
	}
	return t
}

func (t *chunkIndexTable) Load(positions []common.ChunkPosition) []buffer.BufferWrite {
	writes := make([]buffer.BufferWrite, 0, len(positions))
	for _, p := range positions {
		if _, ok := t.slots[p]; ok {
			continue
		}
		if len(t.free) == 0 {
			panic(fmt.Sprintf("mesh: ChunkIndexTable.Load has no free slot for chunk %v", p))
		}
		slot := t.free[0]
		t.free = t.free[1:]
		t.slots[p] = slot

		record := GPUChunkPosition{Position: [3]int32{p.X, p.Y, p.Z}}
		writes = append(writes, buffer.BufferWrite{
			Buffer: ChunkIndexBufferName,
			Offset: uint64(slot) * GPUChunkPositionSize,
			Data:   record.Marshal(),
		})
	}
	return writes
}

func (t *chunkIndexTable) Unload(positions []common.ChunkPosition) {
	for _, p := range positions {
		slot, ok := t.slots[p]
		if !ok {
			continue
		}
		delete(t.slots, p)
		t.free = append(t.free, slot)
	}
}

func (t *chunkIndexTable) CanAllocate() bool {
	return len(t.free) > 0
}

func (t *chunkIndexTable) SlotFor(position common.ChunkPosition) (uint32, bool) {
	slot, ok := t.slots[position]
	return slot, ok
}

func (t *chunkIndexTable) Len() int {
	return len(t.slots)
}

func (t *chunkIndexTable) Capacity() int {
	return t.capacity
}

func (t *chunkIndexTable) BufferSize() uint64 {
	return uint64(t.capacity) * GPUChunkPositionSize
}
