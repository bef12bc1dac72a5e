package mesh

import (
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
)

// MeshManagerBuilderOption is a functional option for configuring a MeshManager.
type MeshManagerBuilderOption func(*meshManager)

// WithRegistry sets the buffer registry the mesh manager creates its buffers in.
//
// Parameters:
//   - r: the buffer registry
//
// Returns:
//   - MeshManagerBuilderOption: option function to apply
func WithRegistry(r buffer.BufferRegistry) MeshManagerBuilderOption {
	return func(m *meshManager) {
		m.registry = r
	}
}

// WithBuffersPerSide sets the number of backing buffers per side.
// Values <= 0 are ignored.
//
// Parameters:
//   - n: buffers per side (default 1)
//
// Returns:
//   - MeshManagerBuilderOption: option function to apply
func WithBuffersPerSide(n int) MeshManagerBuilderOption {
	return func(m *meshManager) {
		if n > 0 {
			m.buffersPerSide = n
		}
	}
}

// WithBucketsPerBuffer sets the number of buckets in each backing buffer, which is also the indirect
// command count per draw. Values <= 0 are ignored.
//
// Parameters:
//   - n: buckets per buffer (default 2048)
//
// Returns:
//   - MeshManagerBuilderOption: option function to apply
func WithBucketsPerBuffer(n int) MeshManagerBuilderOption {
	return func(m *meshManager) {
		if n > 0 {
			m.bucketsPerBuffer = n
		}
	}
}

// WithChunkIndexCapacity sets the number of chunk index slots. Values <= 0 are ignored.
//
// Parameters:
//   - n: slot count
//
// Returns:
//   - MeshManagerBuilderOption: option function to apply
func WithChunkIndexCapacity(n int) MeshManagerBuilderOption {
	return func(m *meshManager) {
		if n > 0 {
			m.indexCapacity = n
		}
	}
}

// WithRenderDistance sizes the chunk index table for a render distance.
// A later WithChunkIndexCapacity overrides it.
//
// Parameters:
//   - r: render distance in chunks
//
// Returns:
//   - MeshManagerBuilderOption: option function to apply
func WithRenderDistance(r int) MeshManagerBuilderOption {
	return func(m *meshManager) {
		if r >= 0 {
			m.indexCapacity = ChunkIndexCapacityForRenderDistance(r)
		}
	}
}

// WithLRUCapacity bounds the number of chunks the recency cache tracks. Values <= 0 are ignored.
//
// Parameters:
//   - n: cache capacity (default 10000)
//
// Returns:
//   - MeshManagerBuilderOption: option function to apply
func WithLRUCapacity(n int) MeshManagerBuilderOption {
	return func(m *meshManager) {
		if n > 0 {
			m.lruCapacity = n
		}
	}
}
