package buffer

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrUnknownBuffer is returned when a name has no registered buffer.
	ErrUnknownBuffer = errors.New("buffer: unknown buffer")

	// ErrDuplicateBuffer is returned when creating a buffer under a name already in use.
	ErrDuplicateBuffer = errors.New("buffer: buffer already exists")

	// ErrOutOfBounds is returned when a write does not fit inside its buffer.
	ErrOutOfBounds = errors.New("buffer: write out of bounds")

	// ErrTooLarge is returned when a buffer exceeds the registry's maximum size.
	ErrTooLarge = errors.New("buffer: buffer exceeds maximum size")

	// ErrMapFailed is returned through a MapCallback when a readback could not be mapped.
	ErrMapFailed = errors.New("buffer: map failed")
)

// MapCallback receives a copy of a buffer's contents once an asynchronous map completes.
// data is nil when err is non-nil.
type MapCallback func(data []byte, err error)

// BufferStats tracks usage analytics for a single buffer.
type BufferStats struct {
	// Allocated is the buffer size in bytes.
	Allocated uint64

	// Used is the highest byte offset ever written (offset + length).
	Used uint64

	// Writes counts successful writes.
	Writes uint64
}

// BufferRegistry owns GPU buffers keyed by name. Callers never hold raw buffer memory; they
// address buffers by name and byte offset.
type BufferRegistry interface {
	Writer

	// Create allocates a buffer of the given size. CopyDst and CopySrc usage are always added so the
	// buffer can be written and read back.
	//
	// Parameters:
	//   - name: unique buffer name
	//   - size: size in bytes
	//   - usage: GPU usage flags
	//
	// Returns:
	//   - error: ErrDuplicateBuffer, ErrTooLarge, or a backend error
	Create(name string, size uint64, usage wgpu.BufferUsage) error

	// Binding returns a bind group entry covering the entire buffer.
	//
	// Parameters:
	//   - name: the buffer name
	//   - binding: the binding slot in the bind group layout
	//
	// Returns:
	//   - wgpu.BindGroupEntry: the entry
	//   - error: ErrUnknownBuffer if the name is not registered
	Binding(name string, binding uint32) (wgpu.BindGroupEntry, error)

	// MapAsync requests an asynchronous readback of a buffer. The callback fires from a later Poll,
	// never from within MapAsync.
	//
	// Parameters:
	//   - name: the buffer name
	//   - mode: the map mode (only reads are supported)
	//   - callback: receives a copy of the buffer contents
	//
	// Returns:
	//   - error: ErrUnknownBuffer or a backend error if the request could not be issued
	MapAsync(name string, mode wgpu.MapMode, callback MapCallback) error

	// Poll advances pending readbacks without blocking and fires callbacks of completed ones.
	// Intended to be called once per frame.
	Poll()

	// Size returns the size of a buffer in bytes.
	Size(name string) (uint64, bool)

	// Stats returns the usage analytics of a buffer.
	Stats(name string) (BufferStats, bool)

	// Names returns the names of every registered buffer, sorted.
	Names() []string

	// TotalAllocated returns the sum of all buffer sizes in bytes.
	TotalAllocated() uint64

	// TotalUsed returns the sum of every buffer's used bytes.
	TotalUsed() uint64

	// Release frees every buffer. The registry must not be used afterwards.
	Release()
}

func checkWrite(name string, size, offset uint64, n int) error {
	if offset+uint64(n) > size {
		return fmt.Errorf("%w: %q write of %d bytes at offset %d exceeds size %d", ErrOutOfBounds, name, n, offset, size)
	}
	return nil
}

func unknown(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownBuffer, name)
}
