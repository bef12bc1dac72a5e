package renderer

import "github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithTargetSize sets the offscreen render target size in pixels.
//
// Parameters:
//   - width: target width (default 1280, 0 keeps the default)
//   - height: target height (default 720, 0 keeps the default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the size option to a renderer
func WithTargetSize(width, height int) RendererBuilderOption {
	return func(r *renderer) {
		r.width, r.height = width, height
	}
}

// WithMSAA sets the multisample anti-aliasing sample count. MSAA is off by default.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.sampleCount = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD such as lavapipe.
//
// Parameters:
//   - force: true to force the software fallback adapter
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithRegistryOptions passes options through to the renderer's GPU buffer registry.
//
// Parameters:
//   - options: registry options such as buffer.WithMaxBufferSize
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithRegistryOptions(options ...buffer.RegistryBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.registryOptions = append(r.registryOptions, options...)
	}
}

// WithTimestampPeriod sets the length of one GPU timestamp tick, used to convert resolved
// timestamp queries into frame times.
//
// Parameters:
//   - ns: nanoseconds per tick (default 1)
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithTimestampPeriod(ns float64) RendererBuilderOption {
	return func(r *renderer) {
		r.timestampPeriod = ns
	}
}
