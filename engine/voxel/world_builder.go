package voxel

// WorldBuilderOption is a functional option for configuring a World.
type WorldBuilderOption func(*world)

// WithGenerator sets the generator used by GenerateChunkAt.
//
// Parameters:
//   - g: the chunk generator (nil keeps the default)
//
// Returns:
//   - WorldBuilderOption: option function to apply
func WithGenerator(g Generator) WorldBuilderOption {
	return func(w *world) {
		if g != nil {
			w.generator = g
		}
	}
}
