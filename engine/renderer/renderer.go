package renderer

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine/mesh"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameStats summarizes the most recent frame.
type FrameStats struct {
	DrawCalls        int
	IndirectCommands int

	// GPUTimingEnabled is false when the adapter has no timestamp query support.
	GPUTimingEnabled bool
	// GPUFrameTime is the voxel pass duration of the most recently read back frame, 0 until the
	// first readback completes on a registry Poll.
	GPUFrameTime time.Duration
}

// Renderer draws resident chunk meshes into an offscreen target with one series of indexed
// indirect draws per visible side and backing buffer.
type Renderer interface {
	// Device returns the GPU device.
	Device() *wgpu.Device

	// Registry returns the GPU buffer registry mesh buffers are created in.
	Registry() buffer.WGPUBufferRegistry

	// Resize recreates the offscreen render target.
	//
	// Parameters:
	//   - width: target width in pixels
	//   - height: target height in pixels
	//
	// Returns:
	//   - error: error if the textures could not be created
	Resize(width, height int) error

	// SetViewProjection uploads the camera's view-projection matrix.
	//
	// Parameters:
	//   - viewProj: the view-projection matrix
	//
	// Returns:
	//   - error: error if the camera buffer could not be written
	SetViewProjection(viewProj mgl32.Mat4) error

	// RenderFrame records and submits one frame. Every call draws each indirect record of its
	// backing buffer; records of free buckets have zero instances and draw nothing.
	//
	// Parameters:
	//   - calls: the draw calls, usually mesh.MeshManager.DrawCalls of the visible sides
	//
	// Returns:
	//   - error: error if a buffer is missing or the frame could not be encoded
	RenderFrame(calls []mesh.SideDrawCall) error

	// FrameStats returns the statistics of the last submitted frame.
	FrameStats() FrameStats

	// Release frees every GPU resource.
	Release()
}

type renderer struct {
	backend  *wgpuRendererBackend
	registry buffer.WGPUBufferRegistry

	bindGroup *wgpu.BindGroup
	stats     FrameStats
	timer     *gpuTimer

	forceFallbackAdapter bool
	sampleCount          MSAASampleCount
	width, height        int
	timestampPeriod      float64
	registryOptions      []buffer.RegistryBuilderOption
}

var _ Renderer = &renderer{}

// NewRenderer acquires a headless GPU device and builds the voxel pipeline and render target.
// When the adapter supports timestamp queries every frame's voxel pass is timed; otherwise frames
// render untimed.
//
// Parameters:
//   - options: functional options for renderer configuration
//
// Returns:
//   - Renderer: the newly created renderer
//   - error: error if no adapter or device is available or the pipeline fails to build
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		sampleCount: MSAAOff,
	}

	for _, opt := range options {
		opt(r)
	}
	r.width = common.Coalesce(r.width, 1280)
	r.height = common.Coalesce(r.height, 720)
	r.timestampPeriod = common.Coalesce(r.timestampPeriod, 1.0)

	backend, err := newWGPURendererBackend(r.forceFallbackAdapter, r.sampleCount)
	if err != nil {
		return nil, err
	}
	r.backend = backend
	r.registry = buffer.NewWGPUBufferRegistry(backend.device, r.registryOptions...)

	if err := r.Resize(r.width, r.height); err != nil {
		r.Release()
		return nil, err
	}
	if err := r.registry.Create(CameraBufferName, GPUCameraSize, wgpu.BufferUsageUniform); err != nil {
		r.Release()
		return nil, err
	}
	if err := r.SetViewProjection(mgl32.Ident4()); err != nil {
		r.Release()
		return nil, err
	}

	if backend.querySet != nil {
		timer, err := newGPUTimer(r.registry, r.timestampPeriod)
		if err != nil {
			r.Release()
			return nil, err
		}
		r.timer = timer
	} else {
		log.Printf("[Renderer] timestamp queries unsupported, GPU frame time disabled")
	}

	log.Printf("[Renderer] headless target %dx%d, %dx MSAA", r.width, r.height, r.sampleCount)
	return r, nil
}

func (r *renderer) Device() *wgpu.Device {
	return r.backend.device
}

func (r *renderer) Registry() buffer.WGPUBufferRegistry {
	return r.registry
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("renderer: invalid target size %dx%d", width, height)
	}
	r.width, r.height = width, height
	return r.backend.configureTarget(width, height)
}

func (r *renderer) SetViewProjection(viewProj mgl32.Mat4) error {
	cam := NewGPUCamera(viewProj, common.ChunkDimension)
	return r.registry.Write(CameraBufferName, 0, cam.Marshal())
}

// ensureBindGroup builds the bind group once the chunk index buffer exists.
func (r *renderer) ensureBindGroup() error {
	if r.bindGroup != nil {
		return nil
	}
	cameraEntry, err := r.registry.Binding(CameraBufferName, 0)
	if err != nil {
		return err
	}
	chunkEntry, err := r.registry.Binding(mesh.ChunkIndexBufferName, 1)
	if err != nil {
		return fmt.Errorf("renderer: mesh buffers not initialized: %w", err)
	}
	r.bindGroup, err = r.backend.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Voxel Bind Group",
		Layout:  r.backend.bindGroupLayout,
		Entries: []wgpu.BindGroupEntry{cameraEntry, chunkEntry},
	})
	return err
}

func (r *renderer) RenderFrame(calls []mesh.SideDrawCall) error {
	if err := r.ensureBindGroup(); err != nil {
		return err
	}

	b := r.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	timed := r.timer != nil && r.timer.ready()
	if timed {
		if err := encoder.WriteTimestamp(b.querySet, 0); err != nil {
			return err
		}
	}

	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, r.bindGroup, nil)

	stats := FrameStats{}
	var errs []error
	for _, c := range calls {
		vb, vok := r.registry.Buffer(c.VertexBuffer)
		ib, iok := r.registry.Buffer(c.IndexBuffer)
		indirect, dok := r.registry.Buffer(c.IndirectBuffer)
		if !vok || !iok || !dok {
			errs = append(errs, fmt.Errorf("%w: draw call for %v", buffer.ErrUnknownBuffer, c.Side))
			continue
		}

		pass.SetVertexBuffer(0, vb, 0, wgpu.WholeSize)
		pass.SetIndexBuffer(ib, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		for i := range c.Count {
			pass.DrawIndexedIndirect(indirect, uint64(i)*mesh.GPUIndirectArgsSize)
		}
		stats.DrawCalls++
		stats.IndirectCommands += int(c.Count)
	}
	pass.End()

	if timed {
		resolve, _ := r.registry.Buffer(TimestampBufferName)
		if err := encoder.WriteTimestamp(b.querySet, 1); err != nil {
			return err
		}
		if err := encoder.ResolveQuerySet(b.querySet, 0, timestampCount, resolve, 0); err != nil {
			return err
		}
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commandBuffer.Release()
	b.queue.Submit(commandBuffer)

	if timed {
		if err := r.timer.requestReadback(); err != nil {
			errs = append(errs, err)
		}
	}
	if r.timer != nil {
		stats.GPUTimingEnabled = true
		stats.GPUFrameTime, _ = r.timer.lastFrameTime()
	}

	r.stats = stats
	return errors.Join(errs...)
}

func (r *renderer) FrameStats() FrameStats {
	return r.stats
}

func (r *renderer) Release() {
	if r.bindGroup != nil {
		r.bindGroup.Release()
		r.bindGroup = nil
	}
	if r.registry != nil {
		r.registry.Release()
	}
	if r.backend != nil {
		r.backend.release()
	}
}
