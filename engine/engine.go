package engine

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/profiler"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/streaming"
	"github.com/Carmen-Shannon/oxy-voxel/engine/task"
	"github.com/Carmen-Shannon/oxy-voxel/engine/voxel"
	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl32"
)

// engine implements the Engine interface.
// Coordinates the tick and render goroutines.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32, calls []mesh.SideDrawCall)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	registry  buffer.BufferRegistry
	renderer  renderer.Renderer
	generator voxel.Generator

	world    voxel.World
	meshes   mesh.MeshManager
	tasks    task.TaskManager
	streamer streaming.ChunkStreamer

	renderDistance int
	workers        int
	meshOptions    []mesh.MeshManagerBuilderOption
	sentryDSN      string
	initialized    bool

	cameraMu       sync.Mutex
	cameraPosition mgl32.Vec3
	cameraForward  mgl32.Vec3
	projection     mgl32.Mat4

	// snapshot is published by the tick goroutine, the only owner of the mesh and task managers.
	snapshot     atomic.Pointer[profiler.Snapshot]
	gpuFrameTime atomic.Int64
}

// Engine streams, meshes and draws a voxel world around a camera.
// The tick goroutine owns chunk streaming, task results and GPU buffer writes; the render
// goroutine draws the visible sides once per frame.
type Engine interface {
	// Init creates the world, mesh buffers, task channels and streamer. Run calls it if needed.
	//
	// Returns:
	//   - error: error if error reporting or the mesh buffers could not be set up
	Init() error

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick after streaming and task
	// results are processed.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame with the frame's draw calls.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds and the visible sides' draw calls
	SetRenderCallback(callback func(deltaTime float32, calls []mesh.SideDrawCall))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// SetCamera moves the camera. Streaming follows the position; side culling follows forward.
	//
	// Parameters:
	//   - position: the camera's world position
	//   - forward: the camera's view direction
	SetCamera(position, forward mgl32.Vec3)

	// Camera returns the camera's position and view direction.
	Camera() (position, forward mgl32.Vec3)

	// World returns the voxel world.
	World() voxel.World

	// Registry returns the buffer registry mesh data is written to.
	Registry() buffer.BufferRegistry

	// Snapshot returns the residency and scheduling state published by the last tick, plus the
	// last GPU frame time when a timing renderer is attached.
	Snapshot() profiler.Snapshot

	// Run initializes the engine if needed and blocks until Quit is called.
	//
	// Returns:
	//   - error: the Init error, if any
	Run() error

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Without WithRegistry or WithRenderer mesh data goes to a host-memory registry.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
		renderDistance:  streaming.DefaultRenderDistance,
		workers:         4,
		cameraForward:   mgl32.Vec3{0, 0, -1},
		projection:      mgl32.Perspective(mgl32.DegToRad(70), 16.0/9.0, 0.1, 1000),
	}

	for _, opt := range options {
		opt(e)
	}

	e.snapshot.Store(&profiler.Snapshot{})
	e.profiler = profiler.NewProfiler(profiler.WithSnapshot(e.Snapshot))
	return e
}

func (e *engine) Init() error {
	if e.initialized {
		return nil
	}

	if e.sentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: e.sentryDSN}); err != nil {
			return fmt.Errorf("engine: sentry init: %w", err)
		}
	}

	if e.registry == nil {
		if e.renderer != nil {
			e.registry = e.renderer.Registry()
		} else {
			e.registry = buffer.NewMemoryBufferRegistry()
		}
	}

	e.world = voxel.NewWorld(voxel.WithGenerator(e.generator))
	meshOptions := append([]mesh.MeshManagerBuilderOption{
		mesh.WithRegistry(e.registry),
		mesh.WithRenderDistance(e.renderDistance),
	}, e.meshOptions...)
	e.meshes = mesh.NewMeshManager(meshOptions...)
	if err := e.meshes.Init(); err != nil {
		return err
	}

	e.tasks = task.NewTaskManager(task.WithChannels(e.workers))
	e.streamer = streaming.NewChunkStreamer(e.tasks, e.world, e.meshes, streaming.WithRenderDistance(e.renderDistance))
	e.initialized = true
	return nil
}

func (e *engine) Run() error {
	if err := e.Init(); err != nil {
		return err
	}
	e.running.Store(true)
	e.handle()
	e.wg.Wait()

	e.tasks.Stop()
	if e.sentryDSN != "" {
		sentry.Flush(time.Second * 2)
	}
	log.Printf("[Engine] stopped")
	return nil
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// recoverGoroutine reports a panic in an engine goroutine and shuts the engine down.
func (e *engine) recoverGoroutine(name string) {
	if r := recover(); r != nil {
		log.Printf("[Engine] %s goroutine recovered from panic: %v", name, r)
		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("goroutine", name)
		})
		hub.Recover(r)
		hub.Flush(time.Second * 5)
		e.signalQuit()
	}
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Each tick streams chunks around the camera, handles finished task results, applies their
// buffer writes and dispatches queued tasks. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverGoroutine("engine")

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.tick()

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) tick() {
	position, _ := e.Camera()
	e.streamer.Update(position)

	if err := e.tasks.ProcessCompleted(e.registry); err != nil {
		log.Printf("[Engine] applying task writes: %v", err)
	}
	e.tasks.ProcessQueued()

	stats := e.meshes.Stats()
	e.snapshot.Store(&profiler.Snapshot{
		MeshedChunks:   stats.MeshedChunks,
		AllocatedSlots: stats.AllocatedSlots,
		Evictions:      stats.Evictions,
		GPUAllocated:   e.registry.TotalAllocated(),
		GPUUsed:        e.registry.TotalUsed(),
		QueuedTasks:    e.tasks.QueuedTasks(),
		InFlightTasks:  e.tasks.InFlight(),
	})
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Polls pending buffer readbacks, culls sides against the camera direction and draws the rest.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer e.recoverGoroutine("render")

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.registry.Poll()
			if e.renderer != nil && e.renderer.Registry() != e.registry {
				e.renderer.Registry().Poll()
			}

			position, forward := e.Camera()
			calls := e.meshes.DrawCalls(voxel.VisibleSides(forward))

			if e.renderer != nil {
				view := mgl32.LookAtV(position, position.Add(forward), mgl32.Vec3{0, 1, 0})
				if err := e.renderer.SetViewProjection(e.projection.Mul4(view)); err != nil {
					log.Printf("[Engine] camera upload: %v", err)
				}
				if err := e.renderer.RenderFrame(calls); err != nil {
					log.Printf("[Engine] render frame: %v", err)
				}
				e.gpuFrameTime.Store(int64(e.renderer.FrameStats().GPUFrameTime))
			}

			if e.renderCallback != nil {
				e.renderCallback(dt, calls)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32, calls []mesh.SideDrawCall)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}

func (e *engine) SetCamera(position, forward mgl32.Vec3) {
	e.cameraMu.Lock()
	defer e.cameraMu.Unlock()
	e.cameraPosition = position
	if forward.Len() > 0 {
		e.cameraForward = forward.Normalize()
	}
}

func (e *engine) Camera() (mgl32.Vec3, mgl32.Vec3) {
	e.cameraMu.Lock()
	defer e.cameraMu.Unlock()
	return e.cameraPosition, e.cameraForward
}

func (e *engine) World() voxel.World {
	return e.world
}

func (e *engine) Registry() buffer.BufferRegistry {
	return e.registry
}

func (e *engine) Snapshot() profiler.Snapshot {
	s := *e.snapshot.Load()
	s.GPUFrameTime = time.Duration(e.gpuFrameTime.Load())
	return s
}
