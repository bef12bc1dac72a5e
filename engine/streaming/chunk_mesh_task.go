package streaming

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/meshing"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/task"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

// ChunkMeshTask greedy-meshes a chunk on a worker. Bucket allocation and the resulting buffer
// writes happen afterwards on the main thread.
type ChunkMeshTask struct {
	meshes mesh.MeshManager
	chunk  *voxel.Chunk
	sides  []voxel.BlockSide
}

var _ task.Task = &ChunkMeshTask{}

// NewChunkMeshTask creates a mesh task for the given sides of a chunk.
//
// Parameters:
//   - meshes: the mesh manager that receives the mesh
//   - chunk: the chunk to mesh
//   - sides: the sides to mesh
//
// Returns:
//   - *ChunkMeshTask: the task
func NewChunkMeshTask(meshes mesh.MeshManager, chunk *voxel.Chunk, sides []voxel.BlockSide) *ChunkMeshTask {
	return &ChunkMeshTask{meshes: meshes, chunk: chunk, sides: sides}
}

// Process builds the chunk's mesh.
func (t *ChunkMeshTask) Process() task.TaskResult {
	return &chunkMeshResult{
		task: t,
		mesh: meshing.GenerateMesh(t.chunk, t.sides),
	}
}

type chunkMeshResult struct {
	task *ChunkMeshTask
	mesh *meshing.Mesh
}

// HandleResult hands the mesh to the mesh manager and returns its writes. Chunks meshed by an
// earlier result in the meantime are skipped.
func (r *chunkMeshResult) HandleResult() ([]task.Task, []buffer.BufferWrite) {
	position := r.task.chunk.Position()
	if r.task.meshes.IsChunkMeshed(position) {
		return nil, nil
	}
	return nil, r.task.meshes.PrepareMeshForWrite(position, r.mesh)
}
