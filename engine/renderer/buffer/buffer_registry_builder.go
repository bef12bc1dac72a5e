package buffer

// RegistryBuilderOption is a functional option for configuring a BufferRegistry.
type RegistryBuilderOption func(*registryConfig)

type registryConfig struct {
	// maxBufferSize caps Create; 0 means unlimited.
	maxBufferSize uint64

	// labelPrefix is prepended to GPU debug labels.
	labelPrefix string
}

func newRegistryConfig(options []RegistryBuilderOption) registryConfig {
	cfg := registryConfig{}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}

// WithMaxBufferSize rejects buffers larger than size bytes, typically the device's maxBufferSize limit.
//
// Parameters:
//   - size: the maximum buffer size in bytes (0 = unlimited)
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithMaxBufferSize(size uint64) RegistryBuilderOption {
	return func(c *registryConfig) {
		c.maxBufferSize = size
	}
}

// WithLabelPrefix prepends prefix to the debug label of every GPU buffer.
//
// Parameters:
//   - prefix: the label prefix
//
// Returns:
//   - RegistryBuilderOption: option function to apply
func WithLabelPrefix(prefix string) RegistryBuilderOption {
	return func(c *registryConfig) {
		c.labelPrefix = prefix
	}
}
