package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Second / time.Duration(fps)
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Second / time.Duration(fps)
	}
}

// WithRegistry sets the buffer registry mesh data is written to.
//
// Parameters:
//   - r: the registry
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRegistry(r buffer.BufferRegistry) EngineBuilderOption {
	return func(e *engine) {
		e.registry = r
	}
}

// WithRenderer draws every frame through r. Its GPU registry is used unless WithRegistry is also given.
//
// Parameters:
//   - r: the renderer; the caller releases it after Run returns
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithRenderDistance sets the streaming radius in chunks, which also sizes the chunk index table.
//
// Parameters:
//   - r: the radius (default 2)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderDistance(r int) EngineBuilderOption {
	return func(e *engine) {
		if r >= 0 {
			e.renderDistance = r
		}
	}
}

// WithWorkers sets the number of task worker channels.
//
// Parameters:
//   - n: the channel count (default 4)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkers(n int) EngineBuilderOption {
	return func(e *engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithGenerator sets the world's chunk generator.
//
// Parameters:
//   - g: the generator (default voxel.TerrainGenerator(0))
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGenerator(g voxel.Generator) EngineBuilderOption {
	return func(e *engine) {
		e.generator = g
	}
}

// WithMeshManagerOptions passes options through to the mesh manager, applied after the engine's own.
//
// Parameters:
//   - options: mesh manager options such as mesh.WithBucketsPerBuffer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMeshManagerOptions(options ...mesh.MeshManagerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.meshOptions = append(e.meshOptions, options...)
	}
}

// WithSentryDSN enables panic reporting to Sentry.
//
// Parameters:
//   - dsn: the Sentry DSN
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSentryDSN(dsn string) EngineBuilderOption {
	return func(e *engine) {
		e.sentryDSN = dsn
	}
}
