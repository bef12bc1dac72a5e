package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestEngineStreamsAndMeshesAroundCamera(t *testing.T) {
	registry := buffer.NewMemoryBufferRegistry()
	e := NewEngine(
		WithRegistry(registry),
		WithGenerator(voxel.SolidGenerator(voxel.BlockDirt)),
		WithRenderDistance(1),
		WithWorkers(2),
		WithTickRate(240),
		WithRenderFrameLimit(120),
		WithMeshManagerOptions(mesh.WithBucketsPerBuffer(32)),
	)

	var frames atomic.Int32
	var lastCallCount atomic.Int32
	e.SetRenderCallback(func(_ float32, calls []mesh.SideDrawCall) {
		frames.Add(1)
		lastCallCount.Store(int32(len(calls)))
	})

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	e.SetCamera(mgl32.Vec3{8, 8, 8}, mgl32.Vec3{0, 0, -1})

	// Radius 1 covers the 2x2x2 block of chunks [-1, 1) around the camera chunk.
	waitFor(t, 5*time.Second, func() bool {
		return e.Snapshot().MeshedChunks == 8
	})
	waitFor(t, time.Second, func() bool { return frames.Load() > 0 })

	e.Quit()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}

	if got := e.World().Len(); got != 8 {
		t.Errorf("world chunks = %d, want 8", got)
	}
	snap := e.Snapshot()
	if snap.AllocatedSlots != 8 {
		t.Errorf("allocated slots = %d, want 8", snap.AllocatedSlots)
	}
	if snap.GPUUsed == 0 || snap.GPUUsed > snap.GPUAllocated {
		t.Errorf("GPU used = %d of %d", snap.GPUUsed, snap.GPUAllocated)
	}
	// Looking down -Z culls the Left side, leaving five.
	if got := lastCallCount.Load(); got != int32(len(voxel.VisibleSides(mgl32.Vec3{0, 0, -1}))) {
		t.Errorf("draw calls = %d, want one per visible side", got)
	}
	if e.Registry() != registry {
		t.Error("engine did not keep the supplied registry")
	}
}

func TestEngineQuitIsIdempotent(t *testing.T) {
	e := NewEngine(
		WithGenerator(voxel.EmptyGenerator()),
		WithRenderDistance(0),
		WithRenderFrameLimit(60),
		WithMeshManagerOptions(mesh.WithBucketsPerBuffer(8)),
	)
	var ticks atomic.Int32
	e.SetTickCallback(func(float32) { ticks.Add(1) })

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	waitFor(t, time.Second, func() bool { return ticks.Load() > 0 })
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
}

func TestSetCameraNormalizesForward(t *testing.T) {
	e := NewEngine()
	e.SetCamera(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 10})
	pos, fwd := e.Camera()
	if pos != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("position = %v", pos)
	}
	if fwd != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("forward = %v, want unit +Z", fwd)
	}

	e.SetCamera(pos, mgl32.Vec3{})
	if _, fwd = e.Camera(); fwd != (mgl32.Vec3{0, 0, 1}) {
		t.Errorf("zero forward replaced direction: %v", fwd)
	}
}

func TestSnapshotCarriesGPUFrameTime(t *testing.T) {
	e := NewEngine()
	if got := e.Snapshot().GPUFrameTime; got != 0 {
		t.Fatalf("GPU frame time before any frame = %v", got)
	}
	e.(*engine).gpuFrameTime.Store(int64(3 * time.Millisecond))
	if got := e.Snapshot().GPUFrameTime; got != 3*time.Millisecond {
		t.Fatalf("GPU frame time = %v, want 3ms", got)
	}
}
