package streaming

import (
	"log"
	"slices"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/task"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultRenderDistance is the default streaming radius in chunks.
const DefaultRenderDistance = 2

// ChunkStreamer publishes generation tasks for the chunks around the camera whenever the camera
// enters a new chunk. It must be used from the main thread.
type ChunkStreamer interface {
	// Update converts the camera position into a chunk position and, on the first call or when it
	// changed, publishes a generation task for every chunk in [-R, R) around it, nearest first.
	//
	// Parameters:
	//   - camera: the camera's world position
	//
	// Returns:
	//   - bool: true if tasks were published
	Update(camera mgl32.Vec3) bool

	// CurrentChunk returns the chunk the camera was last seen in.
	CurrentChunk() (common.ChunkPosition, bool)

	// RenderDistance returns the streaming radius in chunks.
	RenderDistance() int
}

type chunkStreamer struct {
	tasks  task.TaskManager
	world  voxel.World
	meshes mesh.MeshManager

	renderDistance int
	current        common.ChunkPosition
	started        bool
}

var _ ChunkStreamer = &chunkStreamer{}

// NewChunkStreamer creates a ChunkStreamer.
//
// Parameters:
//   - tasks: the task manager generation tasks are published to
//   - world: the world chunks are generated into
//   - meshes: the mesh manager chunk meshes end up in
//   - options: functional options for streamer configuration
//
// Returns:
//   - ChunkStreamer: the newly created streamer
func NewChunkStreamer(tasks task.TaskManager, world voxel.World, meshes mesh.MeshManager, options ...ChunkStreamerBuilderOption) ChunkStreamer {
	s := &chunkStreamer{
		tasks:          tasks,
		world:          world,
		meshes:         meshes,
		renderDistance: DefaultRenderDistance,
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

func (s *chunkStreamer) Update(camera mgl32.Vec3) bool {
	center := common.ChunkPositionFromWorld(camera)
	if s.started && center == s.current {
		return false
	}
	s.current = center
	s.started = true

	positions := NeighborhoodPositions(center, s.renderDistance)
	dispatched := 0
	for _, p := range positions {
		if s.tasks.Publish(NewChunkGenerationTask(s.world, s.meshes, p)) {
			dispatched++
		}
	}
	log.Printf("[ChunkStreamer] entered chunk %v: published %d generation tasks (%d dispatched)", center, len(positions), dispatched)
	return true
}

func (s *chunkStreamer) CurrentChunk() (common.ChunkPosition, bool) {
	return s.current, s.started
}

func (s *chunkStreamer) RenderDistance() int {
	return s.renderDistance
}

// NeighborhoodPositions returns every chunk position center+(x,y,z) with x, y and z in
// [-r, r), ordered by Manhattan distance from center.
//
// Parameters:
//   - center: the center chunk
//   - r: the radius in chunks
//
// Returns:
//   - []common.ChunkPosition: the positions, (2r)^3 of them
func NeighborhoodPositions(center common.ChunkPosition, r int) []common.ChunkPosition {
	rr := int32(r)
	positions := make([]common.ChunkPosition, 0, 8*r*r*r)
	for x := -rr; x < rr; x++ {
		for y := -rr; y < rr; y++ {
			for z := -rr; z < rr; z++ {
				positions = append(positions, center.Add(common.NewChunkPosition(x, y, z)))
			}
		}
	}
	slices.SortStableFunc(positions, func(a, b common.ChunkPosition) int {
		return manhattan(a, center) - manhattan(b, center)
	})
	return positions
}

func manhattan(a, b common.ChunkPosition) int {
	abs := func(v int32) int {
		if v < 0 {
			return int(-v)
		}
		return int(v)
	}
	return abs(a.X-b.X) + abs(a.Y-b.Y) + abs(a.Z-b.Z)
}
