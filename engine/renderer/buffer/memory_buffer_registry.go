package buffer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// MemoryBufferRegistry is a BufferRegistry backed by host memory. It mirrors the GPU registry's
// bookkeeping and error behavior and is used for headless runs and tests.
type MemoryBufferRegistry interface {
	BufferRegistry

	// Contents returns a copy of a buffer's bytes.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - []byte: a copy of the contents
	//   - bool: false if the name is not registered
	Contents(name string) ([]byte, bool)

	// Usage returns the usage flags a buffer was created with.
	Usage(name string) (wgpu.BufferUsage, bool)
}

type memoryBuffer struct {
	data  []byte
	usage wgpu.BufferUsage
	stats BufferStats
}

type pendingMemoryMap struct {
	name     string
	callback MapCallback
}

type memoryBufferRegistry struct {
	mu      sync.Mutex
	cfg     registryConfig
	buffers map[string]*memoryBuffer
	pending []pendingMemoryMap
}

var _ MemoryBufferRegistry = &memoryBufferRegistry{}

// NewMemoryBufferRegistry creates an empty host-memory registry.
//
// Parameters:
//   - options: functional options for registry configuration
//
// Returns:
//   - MemoryBufferRegistry: the registry
func NewMemoryBufferRegistry(options ...RegistryBuilderOption) MemoryBufferRegistry {
	return &memoryBufferRegistry{
		cfg:     newRegistryConfig(options),
		buffers: make(map[string]*memoryBuffer),
	}
}

func (r *memoryBufferRegistry) Create(name string, size uint64, usage wgpu.BufferUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buffers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBuffer, name)
	}
	if r.cfg.maxBufferSize > 0 && size > r.cfg.maxBufferSize {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrTooLarge, name, size, r.cfg.maxBufferSize)
	}
	r.buffers[name] = &memoryBuffer{
		data:  make([]byte, size),
		usage: usage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		stats: BufferStats{Allocated: size},
	}
	return nil
}

func (r *memoryBufferRegistry) Write(name string, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buffers[name]
	if !ok {
		return unknown(name)
	}
	if err := checkWrite(name, uint64(len(b.data)), offset, len(data)); err != nil {
		return err
	}
	copy(b.data[offset:], data)
	b.stats.Used = max(b.stats.Used, offset+uint64(len(data)))
	b.stats.Writes++
	return nil
}

// Binding returns an entry without a GPU buffer handle; only Binding, Offset and Size are meaningful.
func (r *memoryBufferRegistry) Binding(name string, binding uint32) (wgpu.BindGroupEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buffers[name]; !ok {
		return wgpu.BindGroupEntry{}, unknown(name)
	}
	return wgpu.BindGroupEntry{
		Binding: binding,
		Offset:  0,
		Size:    wgpu.WholeSize,
	}, nil
}

func (r *memoryBufferRegistry) MapAsync(name string, mode wgpu.MapMode, callback MapCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buffers[name]; !ok {
		return unknown(name)
	}
	if mode&wgpu.MapModeRead == 0 {
		return fmt.Errorf("%w: %q only read mapping is supported", ErrMapFailed, name)
	}
	r.pending = append(r.pending, pendingMemoryMap{name: name, callback: callback})
	return nil
}

func (r *memoryBufferRegistry) Poll() {
	r.mu.Lock()
	pending := r.pending
	r.pending = nil
	results := make([][]byte, len(pending))
	for i, p := range pending {
		if b, ok := r.buffers[p.name]; ok {
			results[i] = slices.Clone(b.data)
		}
	}
	r.mu.Unlock()

	for i, p := range pending {
		if results[i] == nil {
			p.callback(nil, fmt.Errorf("%w: %q released before readback", ErrMapFailed, p.name))
			continue
		}
		p.callback(results[i], nil)
	}
}

func (r *memoryBufferRegistry) Size(name string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return 0, false
	}
	return uint64(len(b.data)), true
}

func (r *memoryBufferRegistry) Stats(name string) (BufferStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return BufferStats{}, false
	}
	return b.stats, true
}

func (r *memoryBufferRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.buffers))
	for name := range r.buffers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *memoryBufferRegistry) TotalAllocated() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total uint64
	for _, b := range r.buffers {
		total += b.stats.Allocated
	}
	return total
}

func (r *memoryBufferRegistry) TotalUsed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total uint64
	for _, b := range r.buffers {
		total += b.stats.Used
	}
	return total
}

func (r *memoryBufferRegistry) Contents(name string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(b.data), true
}

func (r *memoryBufferRegistry) Usage(name string) (wgpu.BufferUsage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return 0, false
	}
	return b.usage, true
}

func (r *memoryBufferRegistry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffers = make(map[string]*memoryBuffer)
	r.pending = nil
}
