package buffer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// WGPUBufferRegistry is a BufferRegistry backed by WebGPU buffers on a single device and queue.
type WGPUBufferRegistry interface {
	BufferRegistry

	// Buffer returns the underlying GPU buffer for binding into render passes.
	//
	// Parameters:
	//   - name: the buffer name
	//
	// Returns:
	//   - *wgpu.Buffer: the GPU buffer
	//   - bool: false if the name is not registered
	Buffer(name string) (*wgpu.Buffer, bool)
}

type wgpuBuffer struct {
	buffer *wgpu.Buffer
	usage  wgpu.BufferUsage
	stats  BufferStats
}

// pendingReadback is a staging copy waiting for its map callback.
type pendingReadback struct {
	name     string
	staging  *wgpu.Buffer
	size     uint64
	callback MapCallback

	done   bool
	status wgpu.BufferMapAsyncStatus
}

type wgpuBufferRegistry struct {
	mu      sync.Mutex
	cfg     registryConfig
	device  *wgpu.Device
	queue   *wgpu.Queue
	buffers map[string]*wgpuBuffer
	pending []*pendingReadback
}

var _ WGPUBufferRegistry = &wgpuBufferRegistry{}

// NewWGPUBufferRegistry creates a registry that allocates buffers on device and writes them
// through the device's queue.
//
// Parameters:
//   - device: the WebGPU device
//   - options: functional options for registry configuration
//
// Returns:
//   - WGPUBufferRegistry: the registry
func NewWGPUBufferRegistry(device *wgpu.Device, options ...RegistryBuilderOption) WGPUBufferRegistry {
	if device == nil {
		panic("buffer: NewWGPUBufferRegistry requires a device")
	}
	return &wgpuBufferRegistry{
		cfg:     newRegistryConfig(options),
		device:  device,
		queue:   device.GetQueue(),
		buffers: make(map[string]*wgpuBuffer),
	}
}

func (r *wgpuBufferRegistry) Create(name string, size uint64, usage wgpu.BufferUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.buffers[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBuffer, name)
	}
	if r.cfg.maxBufferSize > 0 && size > r.cfg.maxBufferSize {
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrTooLarge, name, size, r.cfg.maxBufferSize)
	}

	usage |= wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	buf, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            r.cfg.labelPrefix + name,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("buffer: create %q: %w", name, err)
	}

	r.buffers[name] = &wgpuBuffer{
		buffer: buf,
		usage:  usage,
		stats:  BufferStats{Allocated: size},
	}
	return nil
}

func (r *wgpuBufferRegistry) Write(name string, offset uint64, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buffers[name]
	if !ok {
		return unknown(name)
	}
	if err := checkWrite(name, b.stats.Allocated, offset, len(data)); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := r.queue.WriteBuffer(b.buffer, offset, data); err != nil {
		return fmt.Errorf("buffer: write %q: %w", name, err)
	}
	b.stats.Used = max(b.stats.Used, offset+uint64(len(data)))
	b.stats.Writes++
	return nil
}

func (r *wgpuBufferRegistry) Binding(name string, binding uint32) (wgpu.BindGroupEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buffers[name]
	if !ok {
		return wgpu.BindGroupEntry{}, unknown(name)
	}
	return wgpu.BindGroupEntry{
		Binding: binding,
		Buffer:  b.buffer,
		Offset:  0,
		Size:    wgpu.WholeSize,
	}, nil
}

// MapAsync copies the buffer into a fresh MapRead staging buffer and maps the copy, so any buffer
// can be read back regardless of its own usage flags.
func (r *wgpuBufferRegistry) MapAsync(name string, mode wgpu.MapMode, callback MapCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buffers[name]
	if !ok {
		return unknown(name)
	}
	if mode&wgpu.MapModeRead == 0 {
		return fmt.Errorf("%w: %q only read mapping is supported", ErrMapFailed, name)
	}

	size := b.stats.Allocated
	staging, err := r.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            r.cfg.labelPrefix + name + " Readback",
		Size:             size,
		Usage:            wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("buffer: readback staging for %q: %w", name, err)
	}

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		staging.Release()
		return fmt.Errorf("buffer: readback encoder for %q: %w", name, err)
	}
	defer encoder.Release()

	if err := encoder.CopyBufferToBuffer(b.buffer, 0, staging, 0, size); err != nil {
		staging.Release()
		return fmt.Errorf("buffer: readback copy for %q: %w", name, err)
	}
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		staging.Release()
		return fmt.Errorf("buffer: readback finish for %q: %w", name, err)
	}
	r.queue.Submit(commandBuffer)
	commandBuffer.Release()

	p := &pendingReadback{name: name, staging: staging, size: size, callback: callback}
	if err := staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		p.status = status
		p.done = true
	}); err != nil {
		staging.Release()
		return fmt.Errorf("buffer: map %q: %w", name, err)
	}
	r.pending = append(r.pending, p)
	return nil
}

func (r *wgpuBufferRegistry) Poll() {
	r.mu.Lock()
	r.device.Poll(false, nil)

	var ready []*pendingReadback
	r.pending = slices.DeleteFunc(r.pending, func(p *pendingReadback) bool {
		if p.done {
			ready = append(ready, p)
		}
		return p.done
	})
	r.mu.Unlock()

	for _, p := range ready {
		if p.status != wgpu.BufferMapAsyncStatusSuccess {
			p.staging.Release()
			p.callback(nil, fmt.Errorf("%w: %q status %v", ErrMapFailed, p.name, p.status))
			continue
		}
		data := slices.Clone(p.staging.GetMappedRange(0, uint(p.size)))
		p.staging.Unmap()
		p.staging.Release()
		p.callback(data, nil)
	}
}

func (r *wgpuBufferRegistry) Buffer(name string) (*wgpu.Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return nil, false
	}
	return b.buffer, true
}

func (r *wgpuBufferRegistry) Size(name string) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return 0, false
	}
	return b.stats.Allocated, true
}

func (r *wgpuBufferRegistry) Stats(name string) (BufferStats, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[name]
	if !ok {
		return BufferStats{}, false
	}
	return b.stats, true
}

func (r *wgpuBufferRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.buffers))
	for name := range r.buffers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (r *wgpuBufferRegistry) TotalAllocated() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total uint64
	for _, b := range r.buffers {
		total += b.stats.Allocated
	}
	return total
}

func (r *wgpuBufferRegistry) TotalUsed() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total uint64
	for _, b := range r.buffers {
		total += b.stats.Used
	}
	return total
}

func (r *wgpuBufferRegistry) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pending {
		p.staging.Release()
	}
	r.pending = nil
	for name, b := range r.buffers {
		b.buffer.Release()
		delete(r.buffers, name)
	}
}
