package buffer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestMemoryRegistryWriteAndStats(t *testing.T) {
	r := NewMemoryBufferRegistry()
	if err := r.Create("a", 16, wgpu.BufferUsageVertex); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Write("a", 4, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := r.Write("a", 0, []byte{9}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, _ := r.Contents("a")
	want := []byte{9, 0, 0, 0, 1, 2, 3, 4, 0, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(got, want) {
		t.Fatalf("contents = %v, want %v", got, want)
	}

	stats, ok := r.Stats("a")
	if !ok || stats.Allocated != 16 || stats.Used != 8 || stats.Writes != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if r.TotalAllocated() != 16 || r.TotalUsed() != 8 {
		t.Fatalf("totals = %d/%d, want 16/8", r.TotalAllocated(), r.TotalUsed())
	}

	usage, _ := r.Usage("a")
	if usage&wgpu.BufferUsageCopyDst == 0 || usage&wgpu.BufferUsageVertex == 0 {
		t.Fatalf("usage %v missing requested or copy flags", usage)
	}
}

func TestMemoryRegistryErrors(t *testing.T) {
	r := NewMemoryBufferRegistry(WithMaxBufferSize(32))
	if err := r.Create("a", 8, wgpu.BufferUsageStorage); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Create("a", 8, wgpu.BufferUsageStorage); !errors.Is(err, ErrDuplicateBuffer) {
		t.Fatalf("duplicate Create error = %v", err)
	}
	if err := r.Create("big", 64, wgpu.BufferUsageStorage); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("oversized Create error = %v", err)
	}
	if err := r.Write("a", 4, make([]byte, 8)); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("out of bounds Write error = %v", err)
	}
	if err := r.Write("missing", 0, []byte{1}); !errors.Is(err, ErrUnknownBuffer) {
		t.Fatalf("unknown Write error = %v", err)
	}
	if _, err := r.Binding("missing", 0); !errors.Is(err, ErrUnknownBuffer) {
		t.Fatalf("unknown Binding error = %v", err)
	}
}

func TestApplyWritesJoinsErrors(t *testing.T) {
	r := NewMemoryBufferRegistry()
	_ = r.Create("a", 4, wgpu.BufferUsageStorage)

	err := ApplyWrites(r, []BufferWrite{
		{Buffer: "missing", Offset: 0, Data: []byte{1}},
		{Buffer: "a", Offset: 0, Data: []byte{5, 6, 7, 8}},
		{Buffer: "a", Offset: 2, Data: []byte{1, 1, 1}},
	})
	if !errors.Is(err, ErrUnknownBuffer) || !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("ApplyWrites error = %v, want unknown and out-of-bounds", err)
	}
	got, _ := r.Contents("a")
	if !bytes.Equal(got, []byte{5, 6, 7, 8}) {
		t.Fatalf("valid write not applied: %v", got)
	}
}

func TestMemoryRegistryMapAsyncFiresOnPoll(t *testing.T) {
	r := NewMemoryBufferRegistry()
	_ = r.Create("a", 4, wgpu.BufferUsageStorage)
	_ = r.Write("a", 0, []byte{1, 2, 3, 4})

	var got []byte
	fired := false
	if err := r.MapAsync("a", wgpu.MapModeRead, func(data []byte, err error) {
		if err != nil {
			t.Errorf("callback error: %v", err)
		}
		fired = true
		got = data
	}); err != nil {
		t.Fatalf("MapAsync: %v", err)
	}
	if fired {
		t.Fatalf("callback fired before Poll")
	}

	r.Poll()
	if !fired || !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("after Poll fired=%v data=%v", fired, got)
	}

	fired = false
	r.Poll()
	if fired {
		t.Fatalf("callback fired twice")
	}
}

func TestMemoryRegistryNamesAndRelease(t *testing.T) {
	r := NewMemoryBufferRegistry()
	_ = r.Create("b", 4, wgpu.BufferUsageStorage)
	_ = r.Create("a", 4, wgpu.BufferUsageStorage)
	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("Names = %v", names)
	}
	r.Release()
	if len(r.Names()) != 0 || r.TotalAllocated() != 0 {
		t.Fatalf("registry not empty after Release")
	}
}
