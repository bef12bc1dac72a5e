package voxel

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-voxel/common"
)

// World stores the generated chunks of an unbounded voxel world.
// It is safe for concurrent use; chunks handed out are immutable and may be read from any goroutine.
type World interface {
	// ChunkAt returns the chunk stored at a position.
	//
	// Parameters:
	//   - position: the chunk position
	//
	// Returns:
	//   - *Chunk: the chunk, or nil if none is stored
	//   - bool: true if a chunk was found
	ChunkAt(position common.ChunkPosition) (*Chunk, bool)

	// AddChunkAt stores a chunk, replacing any previous chunk at the same position.
	//
	// Parameters:
	//   - position: the chunk position
	//   - chunk: the chunk to store
	AddChunkAt(position common.ChunkPosition, chunk *Chunk)

	// GenerateChunkAt returns the stored chunk at a position, running the world's generator
	// and storing the result when none exists yet.
	//
	// Parameters:
	//   - position: the chunk position
	//
	// Returns:
	//   - *Chunk: the stored or freshly generated chunk
	GenerateChunkAt(position common.ChunkPosition) *Chunk

	// RemoveChunkAt drops the chunk at a position, if any.
	RemoveChunkAt(position common.ChunkPosition)

	// Len returns the number of stored chunks.
	Len() int
}

type world struct {
	mu        sync.RWMutex
	chunks    map[common.ChunkPosition]*Chunk
	generator Generator
}

var _ World = &world{}

// NewWorld creates an empty World. Without options, chunks are generated from TerrainGenerator(0).
//
// Parameters:
//   - options: functional options for world configuration
//
// Returns:
//   - World: the newly created world
func NewWorld(options ...WorldBuilderOption) World {
	w := &world{
		chunks:    make(map[common.ChunkPosition]*Chunk),
		generator: TerrainGenerator(0),
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

func (w *world) ChunkAt(position common.ChunkPosition) (*Chunk, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[position]
	return c, ok
}

func (w *world) AddChunkAt(position common.ChunkPosition, chunk *Chunk) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunks[position] = chunk
}

func (w *world) GenerateChunkAt(position common.ChunkPosition) *Chunk {
	if c, ok := w.ChunkAt(position); ok {
		return c
	}

	// Generate outside the lock; a racing generator for the same position loses to whoever stores first.
	generated := w.generator(position)

	w.mu.Lock()
	defer w.mu.Unlock()
	if c, ok := w.chunks[position]; ok {
		return c
	}
	w.chunks[position] = generated
	return generated
}

func (w *world) RemoveChunkAt(position common.ChunkPosition) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.chunks, position)
}

func (w *world) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}
