package streaming

import (
	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/task"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

// ChunkGenerationTask produces the voxel data of one chunk on a worker, reusing the stored chunk
// when the world already holds it.
type ChunkGenerationTask struct {
	world    voxel.World
	meshes   mesh.MeshManager
	position common.ChunkPosition
}

var _ task.Task = &ChunkGenerationTask{}

// NewChunkGenerationTask creates a generation task. meshes is only touched from HandleResult.
//
// Parameters:
//   - world: the world the chunk is generated into
//   - meshes: the mesh manager that receives the chunk's mesh
//   - position: the chunk to generate
//
// Returns:
//   - *ChunkGenerationTask: the task
func NewChunkGenerationTask(world voxel.World, meshes mesh.MeshManager, position common.ChunkPosition) *ChunkGenerationTask {
	return &ChunkGenerationTask{world: world, meshes: meshes, position: position}
}

// Process generates or fetches the chunk.
func (t *ChunkGenerationTask) Process() task.TaskResult {
	return &chunkGenerationResult{
		meshes: t.meshes,
		chunk:  t.world.GenerateChunkAt(t.position),
	}
}

type chunkGenerationResult struct {
	meshes mesh.MeshManager
	chunk  *voxel.Chunk
}

// HandleResult chains a mesh task for every side unless the chunk is already resident.
func (r *chunkGenerationResult) HandleResult() ([]task.Task, []buffer.BufferWrite) {
	if r.meshes.IsChunkMeshed(r.chunk.Position()) {
		return nil, nil
	}
	return []task.Task{NewChunkMeshTask(r.meshes, r.chunk, voxel.AllSides())}, nil
}
