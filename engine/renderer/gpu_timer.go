package renderer

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// TimestampBufferName is the registry name of the buffer timestamp queries resolve into.
const TimestampBufferName = "timestamp_query_buffer"

const (
	// timestampCount is the number of timestamps per frame: before and after the voxel pass.
	timestampCount = 2

	// TimestampBufferSize is the byte size of one frame's resolved timestamps.
	TimestampBufferSize = timestampCount * 8
)

// DecodeTimestamps converts a resolved begin/end timestamp pair into a duration.
//
// Parameters:
//   - data: at least TimestampBufferSize bytes of little-endian uint64 timestamps
//   - period: nanoseconds per timestamp tick
//
// Returns:
//   - time.Duration: the elapsed GPU time
//   - bool: false if data is short or the end timestamp precedes the begin timestamp
func DecodeTimestamps(data []byte, period float64) (time.Duration, bool) {
	if len(data) < TimestampBufferSize {
		return 0, false
	}
	begin := binary.LittleEndian.Uint64(data[0:8])
	end := binary.LittleEndian.Uint64(data[8:16])
	if end < begin {
		return 0, false
	}
	return time.Duration(float64(end-begin) * period), true
}

// gpuTimer reads back the resolved timestamps of one frame at a time. While a readback is in
// flight no new timestamps are resolved, so the buffer is never written while mapped.
type gpuTimer struct {
	registry buffer.BufferRegistry
	period   float64

	mapping   atomic.Bool
	frameTime atomic.Int64
	samples   atomic.Uint64
}

// newGPUTimer creates the timestamp resolve buffer in registry.
func newGPUTimer(registry buffer.BufferRegistry, period float64) (*gpuTimer, error) {
	if err := registry.Create(TimestampBufferName, TimestampBufferSize, wgpu.BufferUsageQueryResolve); err != nil {
		return nil, fmt.Errorf("renderer: timestamp buffer: %w", err)
	}
	return &gpuTimer{registry: registry, period: period}, nil
}

// ready reports whether this frame may write and resolve timestamps.
func (t *gpuTimer) ready() bool {
	return !t.mapping.Load()
}

// requestReadback maps the resolve buffer; the result lands on the registry's next Poll.
func (t *gpuTimer) requestReadback() error {
	if !t.mapping.CompareAndSwap(false, true) {
		return nil
	}
	if err := t.registry.MapAsync(TimestampBufferName, wgpu.MapModeRead, t.onMapped); err != nil {
		t.mapping.Store(false)
		return err
	}
	return nil
}

func (t *gpuTimer) onMapped(data []byte, err error) {
	defer t.mapping.Store(false)
	if err != nil {
		log.Printf("[Renderer] timestamp readback: %v", err)
		return
	}
	if d, ok := DecodeTimestamps(data, t.period); ok {
		t.frameTime.Store(int64(d))
		t.samples.Add(1)
	}
}

// lastFrameTime returns the last measured GPU frame time and whether any frame was measured.
func (t *gpuTimer) lastFrameTime() (time.Duration, bool) {
	return time.Duration(t.frameTime.Load()), t.samples.Load() > 0
}
