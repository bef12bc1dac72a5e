package mesh

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/meshing"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

func newTestManager(t *testing.T, options ...MeshManagerBuilderOption) (MeshManager, buffer.MemoryBufferRegistry) {
	t.Helper()
	reg := buffer.NewMemoryBufferRegistry()
	m := NewMeshManager(append([]MeshManagerBuilderOption{WithRegistry(reg)}, options...)...)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, reg
}

func apply(t *testing.T, reg buffer.BufferRegistry, writes []buffer.BufferWrite) {
	t.Helper()
	if err := buffer.ApplyWrites(reg, writes); err != nil {
		t.Fatalf("ApplyWrites: %v", err)
	}
}

func indirectRecord(t *testing.T, reg buffer.MemoryBufferRegistry, side voxel.BlockSide, slot int) GPUIndirectArgs {
	t.Helper()
	data, ok := reg.Contents(IndirectBufferName(side, 0))
	if !ok {
		t.Fatalf("missing indirect buffer for %v", side)
	}
	rec := data[slot*GPUIndirectArgsSize:]
	return GPUIndirectArgs{
		IndexCount:    binary.LittleEndian.Uint32(rec[0:4]),
		InstanceCount: binary.LittleEndian.Uint32(rec[4:8]),
		FirstIndex:    binary.LittleEndian.Uint32(rec[8:12]),
		BaseVertex:    int32(binary.LittleEndian.Uint32(rec[12:16])),
		FirstInstance: binary.LittleEndian.Uint32(rec[16:20]),
	}
}

func TestMeshManagerInitCreatesBuffers(t *testing.T) {
	_, reg := newTestManager(t, WithBucketsPerBuffer(4), WithBuffersPerSide(2), WithChunkIndexCapacity(8))

	// 3 buffers per side and backing buffer, plus the lookup buffer.
	if got := len(reg.Names()); got != voxel.SideCount*2*3+1 {
		t.Fatalf("buffers = %d, want %d", got, voxel.SideCount*2*3+1)
	}
	if size, _ := reg.Size(VertexBufferName(voxel.SideTop, 1)); size != 4*BucketVertexBytes {
		t.Fatalf("vertex buffer size = %d", size)
	}
	if size, _ := reg.Size(ChunkIndexBufferName); size != 8*GPUChunkPositionSize {
		t.Fatalf("lookup buffer size = %d", size)
	}

	rec := indirectRecord(t, reg, voxel.SideBack, 3)
	if rec.InstanceCount != 0 || rec.FirstIndex != 3*BucketIndexCapacity || rec.BaseVertex != 3*BucketVertexCapacity {
		t.Fatalf("initial record = %+v", rec)
	}
}

func TestMeshManagerWritesBuckets(t *testing.T) {
	m, reg := newTestManager(t, WithBucketsPerBuffer(3))
	pos := common.NewChunkPosition(1, 1, 1)

	writes := m.PrepareMeshForWrite(pos, syntheticMesh(512))
	// one lookup write, then 3 writes per bucket, 2 buckets per side
	if want := 1 + voxel.SideCount*2*3; len(writes) != want {
		t.Fatalf("writes = %d, want %d", len(writes), want)
	}
	if writes[0].Buffer != ChunkIndexBufferName {
		t.Fatalf("first write targets %q", writes[0].Buffer)
	}
	apply(t, reg, writes)

	if !m.IsChunkMeshed(pos) {
		t.Fatal("chunk not meshed")
	}
	for _, side := range voxel.AllSides() {
		for slot := range 2 {
			rec := indirectRecord(t, reg, side, slot)
			if rec.IndexCount != BucketIndexCapacity || rec.InstanceCount != 1 {
				t.Fatalf("%v slot %d record = %+v", side, slot, rec)
			}
		}
		if rec := indirectRecord(t, reg, side, 2); rec.InstanceCount != 0 {
			t.Fatalf("%v unused slot record = %+v", side, rec)
		}
	}
}

func TestMeshManagerEvictsLeastRecentlyMeshed(t *testing.T) {
	m, reg := newTestManager(t, WithBucketsPerBuffer(3))
	a := common.NewChunkPosition(0, 0, 0)
	b := common.NewChunkPosition(1, 0, 0)

	apply(t, reg, m.PrepareMeshForWrite(a, syntheticMesh(512)))
	writes := m.PrepareMeshForWrite(b, syntheticMesh(512))
	apply(t, reg, writes)

	if m.IsChunkMeshed(a) {
		t.Fatal("a still meshed after b evicted it")
	}
	if !m.IsChunkMeshed(b) {
		t.Fatal("b not meshed")
	}

	// a's two buckets per side are zeroed, then b takes the untouched bucket and one of a's.
	for _, w := range writes[:2*voxel.SideCount] {
		if binary.LittleEndian.Uint32(w.Data[4:8]) != 0 {
			t.Fatalf("eviction write %s@%d keeps a nonzero instance count", w.Buffer, w.Offset)
		}
	}

	stats := m.Stats()
	if stats.MeshedChunks != 1 || stats.AllocatedSlots != 1 || stats.Evictions != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, side := range voxel.AllSides() {
		if stats.FreeBuckets[side] != 1 {
			t.Fatalf("%v free = %d, want 1", side, stats.FreeBuckets[side])
		}
	}
}

func TestMeshManagerRecencyProtectsTouchedChunk(t *testing.T) {
	m, reg := newTestManager(t, WithBucketsPerBuffer(2))
	a := common.NewChunkPosition(0, 0, 0)
	b := common.NewChunkPosition(1, 0, 0)
	c := common.NewChunkPosition(2, 0, 0)

	apply(t, reg, m.PrepareMeshForWrite(a, syntheticMesh(1)))
	apply(t, reg, m.PrepareMeshForWrite(b, syntheticMesh(1)))
	m.IsChunkMeshed(a)
	apply(t, reg, m.PrepareMeshForWrite(c, syntheticMesh(1)))

	if !m.IsChunkMeshed(a) || m.IsChunkMeshed(b) || !m.IsChunkMeshed(c) {
		t.Fatal("expected b evicted and a kept after touching a")
	}
}

func TestMeshManagerEmptyMeshWritesNothing(t *testing.T) {
	m, _ := newTestManager(t)
	empty := voxel.NewEmptyChunk(common.NewChunkPosition(0, 0, 0))

	writes := m.GenerateMeshForChunk(empty, voxel.AllSides())
	if len(writes) != 0 {
		t.Fatalf("empty chunk produced %d writes", len(writes))
	}
	if !m.IsChunkMeshed(empty.Position()) {
		t.Fatal("empty chunk not recorded as meshed")
	}
	if m.Stats().AllocatedSlots != 0 {
		t.Fatal("empty chunk took a lookup slot")
	}
}

func TestMeshManagerRemeshReplacesBuckets(t *testing.T) {
	m, reg := newTestManager(t, WithBucketsPerBuffer(2))
	pos := common.NewChunkPosition(0, 0, 0)

	apply(t, reg, m.PrepareMeshForWrite(pos, syntheticMesh(1)))
	apply(t, reg, m.PrepareMeshForWrite(pos, syntheticMesh(1)))

	stats := m.Stats()
	if stats.MeshedChunks != 1 || stats.AllocatedSlots != 1 || stats.Evictions != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, side := range voxel.AllSides() {
		if stats.FreeBuckets[side] != 1 {
			t.Fatalf("%v free = %d, want 1", side, stats.FreeBuckets[side])
		}
	}
}

func TestMeshManagerStampsChunkIndex(t *testing.T) {
	m, _ := newTestManager(t)
	chunk := voxel.NewChunk(common.NewChunkPosition(3, 0, -2), func(x, y, z int) voxel.BlockType {
		if y == 0 {
			return voxel.BlockGrass
		}
		return voxel.BlockAir
	})
	msh := meshing.GenerateMesh(chunk, voxel.AllSides())
	m.PrepareMeshForWrite(chunk.Position(), msh)

	slot, _ := m.(*meshManager).indexTable.SlotFor(chunk.Position())
	for _, side := range voxel.AllSides() {
		for _, v := range msh.Sides[side].Vertices {
			if v.ChunkIndex != slot {
				t.Fatalf("vertex chunk index = %d, want %d", v.ChunkIndex, slot)
			}
		}
	}
}

func TestMeshManagerLRUCapacityEvicts(t *testing.T) {
	m, _ := newTestManager(t, WithLRUCapacity(2))
	for x := range 3 {
		m.PrepareMeshForWrite(common.NewChunkPosition(int32(x), 0, 0), syntheticMesh(1))
	}
	if m.IsChunkMeshed(common.NewChunkPosition(0, 0, 0)) {
		t.Fatal("oldest chunk survived cache overflow")
	}
	if m.Stats().AllocatedSlots != 2 {
		t.Fatalf("slots = %d, want 2", m.Stats().AllocatedSlots)
	}
}

func TestMeshManagerDrawCalls(t *testing.T) {
	m, _ := newTestManager(t, WithBucketsPerBuffer(5), WithBuffersPerSide(2))
	calls := m.DrawCalls([]voxel.BlockSide{voxel.SideTop, voxel.SideLeft})
	if len(calls) != 4 {
		t.Fatalf("draw calls = %d, want 4", len(calls))
	}
	if calls[1].Side != voxel.SideTop || calls[1].IndirectBuffer != IndirectBufferName(voxel.SideTop, 1) || calls[1].Count != 5 {
		t.Fatalf("call = %+v", calls[1])
	}
}

func TestNewMeshManagerRequiresRegistry(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic without a registry")
		}
	}()
	NewMeshManager()
}
