package profiler

import (
	"log"
	"runtime"
	"time"
)

// Snapshot is the engine state reported alongside frame and memory statistics.
type Snapshot struct {
	MeshedChunks   int
	AllocatedSlots int
	Evictions      uint64
	GPUAllocated   uint64
	GPUUsed        uint64
	QueuedTasks    int
	InFlightTasks  int
	GPUFrameTime   time.Duration // 0 when frames are not timed
}

// Report is one logged interval.
type Report struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
	GPUFrameMs  float64
	Snapshot    Snapshot
}

// Profiler tracks frame rate, memory and residency statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	snapshot   func() Snapshot
	lastReport Report
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options for profiler configuration
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed: FPS, heap usage, allocation
// rate, GC count/pause times, total memory, and the snapshot if one is configured.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap. TotalAlloc: cumulative, tracks churn. Sys: process footprint.
	r := Report{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	if r.GCCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		r.LastPauseUs = p.memStats.PauseNs[(r.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if r.GCCount-startIdx > 256 {
			startIdx = r.GCCount - 256
		}
		for i := startIdx; i < r.GCCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		r.FPS, r.HeapMB, r.AllocRateMB, r.GCCount, r.LastPauseUs, r.MaxPauseUs, r.SysMB)

	if p.snapshot != nil {
		r.Snapshot = p.snapshot()
		s := r.Snapshot
		r.GPUFrameMs = float64(s.GPUFrameTime) / float64(time.Millisecond)
		if r.GPUFrameMs > 0 {
			log.Printf("[Profiler] GPU frame: %.3f ms", r.GPUFrameMs)
		}
		log.Printf("[Profiler] Chunks: %d meshed, %d slots, %d evicted | GPU: %.2f/%.2f MB | Tasks: %d queued, %d in flight",
			s.MeshedChunks, s.AllocatedSlots, s.Evictions,
			float64(s.GPUUsed)/1024/1024, float64(s.GPUAllocated)/1024/1024,
			s.QueuedTasks, s.InFlightTasks)
	}

	p.lastReport = r
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// LastReport returns the most recently logged interval.
func (p *Profiler) LastReport() Report {
	return p.lastReport
}
