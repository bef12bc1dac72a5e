package streaming

// ChunkStreamerBuilderOption is a functional option for configuring a ChunkStreamer.
type ChunkStreamerBuilderOption func(*chunkStreamer)

// WithRenderDistance sets the streaming radius in chunks. Negative values are ignored.
//
// Parameters:
//   - r: the radius (default 2)
//
// Returns:
//   - ChunkStreamerBuilderOption: option function to apply
func WithRenderDistance(r int) ChunkStreamerBuilderOption {
	return func(s *chunkStreamer) {
		if r >= 0 {
			s.renderDistance = r
		}
	}
}
