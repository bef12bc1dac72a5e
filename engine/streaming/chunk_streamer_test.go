package streaming

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/task"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

type pipeline struct {
	registry buffer.MemoryBufferRegistry
	meshes   mesh.MeshManager
	tasks    task.TaskManager
	world    voxel.World
}

func newPipeline(t *testing.T, generator voxel.Generator) *pipeline {
	t.Helper()
	p := &pipeline{
		registry: buffer.NewMemoryBufferRegistry(),
		tasks:    task.NewTaskManager(task.WithChannels(2), task.WithPanicFlushTimeout(0)),
		world:    voxel.NewWorld(voxel.WithGenerator(generator)),
	}
	p.meshes = mesh.NewMeshManager(mesh.WithRegistry(p.registry), mesh.WithBucketsPerBuffer(128))
	if err := p.meshes.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(p.tasks.Stop)
	return p
}

// drain runs scheduler cycles until no task is queued or in flight.
func (p *pipeline) drain(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if err := p.tasks.ProcessCompleted(p.registry); err != nil {
			t.Fatalf("ProcessCompleted: %v", err)
		}
		p.tasks.ProcessQueued()
		if p.tasks.QueuedTasks() == 0 && p.tasks.InFlight() == 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("pipeline did not drain: %d queued, %d in flight", p.tasks.QueuedTasks(), p.tasks.InFlight())
}

func TestNeighborhoodPositions(t *testing.T) {
	center := common.NewChunkPosition(5, -3, 0)
	positions := NeighborhoodPositions(center, 2)
	if len(positions) != 64 {
		t.Fatalf("positions = %d, want 64", len(positions))
	}
	if positions[0] != center {
		t.Fatalf("first position = %v, want center %v", positions[0], center)
	}

	seen := make(map[common.ChunkPosition]bool)
	for i, p := range positions {
		if seen[p] {
			t.Fatalf("duplicate position %v", p)
		}
		seen[p] = true
		d := p.Add(common.NewChunkPosition(-center.X, -center.Y, -center.Z))
		if d.X < -2 || d.X >= 2 || d.Y < -2 || d.Y >= 2 || d.Z < -2 || d.Z >= 2 {
			t.Fatalf("position %v outside [-2, 2)", p)
		}
		if i > 0 && manhattan(positions[i-1], center) > manhattan(p, center) {
			t.Fatalf("positions not ordered by distance at %d", i)
		}
	}
}

func TestStreamerMeshesNeighborhood(t *testing.T) {
	p := newPipeline(t, voxel.SolidGenerator(voxel.BlockDirt))
	s := NewChunkStreamer(p.tasks, p.world, p.meshes)

	if !s.Update(mgl32.Vec3{1, 1, 1}) {
		t.Fatal("first Update published nothing")
	}
	p.drain(t)

	if p.world.Len() != 64 {
		t.Fatalf("world holds %d chunks, want 64", p.world.Len())
	}
	stats := p.meshes.Stats()
	if stats.MeshedChunks != 64 || stats.AllocatedSlots != 64 {
		t.Fatalf("stats = %+v", stats)
	}
	for _, pos := range NeighborhoodPositions(common.NewChunkPosition(0, 0, 0), 2) {
		if !p.meshes.IsChunkMeshed(pos) {
			t.Fatalf("chunk %v not meshed", pos)
		}
	}

	for _, side := range voxel.AllSides() {
		if stats, _ := p.registry.Stats(mesh.VertexBufferName(side, 0)); stats.Writes != 64 {
			t.Fatalf("%v vertex writes = %d, want 64", side, stats.Writes)
		}
	}
}

func TestStreamerOnlyPublishesOnChunkChange(t *testing.T) {
	p := newPipeline(t, voxel.EmptyGenerator())
	s := NewChunkStreamer(p.tasks, p.world, p.meshes, WithRenderDistance(1))

	if !s.Update(mgl32.Vec3{0, 0, 0}) {
		t.Fatal("first Update published nothing")
	}
	p.drain(t)
	if s.Update(mgl32.Vec3{15.5, 3, 3}) {
		t.Fatal("Update within the same chunk published tasks")
	}
	if !s.Update(mgl32.Vec3{16.5, 0, 0}) {
		t.Fatal("Update into a new chunk published nothing")
	}
	if c, _ := s.CurrentChunk(); c != common.NewChunkPosition(1, 0, 0) {
		t.Fatalf("current chunk = %v", c)
	}
	p.drain(t)

	// Radius 1 covers [-1, 1) per axis: 8 chunks around each center, 4 of them shared.
	if p.world.Len() != 12 {
		t.Fatalf("world holds %d chunks, want 12", p.world.Len())
	}
	if p.registry.TotalUsed() != initialUsed(t, p) {
		t.Fatal("empty chunks wrote geometry")
	}
}

// initialUsed is the byte count Init writes: the cleared indirect records of every side.
func initialUsed(t *testing.T, p *pipeline) uint64 {
	t.Helper()
	var used uint64
	for _, side := range voxel.AllSides() {
		stats, ok := p.registry.Stats(mesh.IndirectBufferName(side, 0))
		if !ok {
			t.Fatalf("missing indirect buffer for %v", side)
		}
		used += stats.Used
	}
	return used
}

func TestGenerationResultSkipsMeshedChunks(t *testing.T) {
	p := newPipeline(t, voxel.SolidGenerator(voxel.BlockWood))
	pos := common.NewChunkPosition(0, 0, 0)
	chunk := p.world.GenerateChunkAt(pos)
	p.meshes.GenerateMeshForChunk(chunk, voxel.AllSides())

	tasks, writes := NewChunkGenerationTask(p.world, p.meshes, pos).Process().HandleResult()
	if len(tasks) != 0 || len(writes) != 0 {
		t.Fatalf("got %d tasks and %d writes for a meshed chunk", len(tasks), len(writes))
	}

	other := common.NewChunkPosition(1, 0, 0)
	tasks, _ = NewChunkGenerationTask(p.world, p.meshes, other).Process().HandleResult()
	if len(tasks) != 1 {
		t.Fatalf("got %d follow-up tasks, want 1", len(tasks))
	}
	_, writes = tasks[0].Process().HandleResult()
	// lookup slot plus 3 writes for one bucket on each of the six sides
	if len(writes) != 1+3*voxel.SideCount {
		t.Fatalf("mesh writes = %d, want %d", len(writes), 1+3*voxel.SideCount)
	}
}
