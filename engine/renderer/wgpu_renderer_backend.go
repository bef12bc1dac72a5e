package renderer

import (
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuRendererBackend owns the device, the offscreen render target and the voxel pipeline.
type wgpuRendererBackend struct {
	mu sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	width, height int
	sampleCount   MSAASampleCount

	colorTexture     *wgpu.Texture
	colorView        *wgpu.TextureView
	msaaTextureView  *wgpu.TextureView
	depthTextureView *wgpu.TextureView

	renderPassDescriptor *wgpu.RenderPassDescriptor
	bindGroupLayout      *wgpu.BindGroupLayout
	pipeline             *wgpu.RenderPipeline

	// querySet holds the frame's begin/end timestamps; nil without timestamp query support.
	querySet *wgpu.QuerySet
}

func newWGPURendererBackend(forceFallbackAdapter bool, sampleCount MSAASampleCount) (*wgpuRendererBackend, error) {
	runtime.LockOSThread()
	b := &wgpuRendererBackend{
		instance:    wgpu.CreateInstance(nil),
		sampleCount: sampleCount,
	}

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	b.adapter = a

	var features []wgpu.FeatureName
	if a.HasFeature(wgpu.FeatureNameTimestampQuery) {
		features = append(features, wgpu.FeatureNameTimestampQuery)
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Voxel Device",
		RequiredFeatures: features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	if err := b.createPipeline(); err != nil {
		return nil, err
	}
	if len(features) > 0 {
		b.enableTimestamps()
	}
	return b, nil
}

// enableTimestamps creates the timestamp query set if the device accepts timestamps written
// from a command encoder. Leaves querySet nil otherwise.
func (b *wgpuRendererBackend) enableTimestamps() {
	qs, err := b.device.CreateQuerySet(&wgpu.QuerySetDescriptor{
		Label: "Frame Timestamps",
		Type:  wgpu.QueryTypeTimestamp,
		Count: timestampCount,
	})
	if err != nil {
		log.Printf("[Renderer] timestamp query set: %v", err)
		return
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		qs.Release()
		return
	}
	defer encoder.Release()

	if err := encoder.WriteTimestamp(qs, 0); err != nil {
		log.Printf("[Renderer] encoder timestamps rejected: %v", err)
		qs.Release()
		return
	}
	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		log.Printf("[Renderer] encoder timestamps rejected: %v", err)
		qs.Release()
		return
	}
	commandBuffer.Release()
	b.querySet = qs
}

// configureTarget (re)creates the offscreen color, MSAA and depth textures.
func (b *wgpuRendererBackend) configureTarget(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseTarget()
	b.width, b.height = width, height

	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	count := uint32(b.sampleCount)
	msaaEnabled := count > 1

	colorTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Voxel Color Target",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        TargetFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return err
	}
	b.colorTexture = colorTexture
	if b.colorView, err = colorTexture.CreateView(nil); err != nil {
		return err
	}

	if msaaEnabled {
		msaaTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        TargetFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return err
		}
		if b.msaaTextureView, err = msaaTexture.CreateView(nil); err != nil {
			return err
		}
	}

	depthTexture, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return err
	}
	if b.depthTextureView, err = depthTexture.CreateView(nil); err != nil {
		return err
	}

	color := wgpu.RenderPassColorAttachment{
		View:    b.colorView,
		LoadOp:  wgpu.LoadOpClear,
		StoreOp: wgpu.StoreOpStore,
		ClearValue: wgpu.Color{
			R: 0.53, G: 0.72, B: 0.9, A: 1.0,
		},
	}
	if msaaEnabled {
		color.View = b.msaaTextureView
		color.ResolveTarget = b.colorView
		color.StoreOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

func (b *wgpuRendererBackend) createPipeline() error {
	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Voxel Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: VoxelShaderSource(),
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: voxel shader: %w", err)
	}

	layout, err := b.device.CreateBindGroupLayout(&voxelBindGroupLayout)
	if err != nil {
		return fmt.Errorf("renderer: voxel bind group layout: %w", err)
	}
	b.bindGroupLayout = layout

	pipelineLayout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Voxel Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{layout},
	})
	if err != nil {
		return err
	}

	b.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Voxel Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{voxelVertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    TargetFormat,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: voxel pipeline: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackend) releaseTarget() {
	for _, v := range []*wgpu.TextureView{b.colorView, b.msaaTextureView, b.depthTextureView} {
		if v != nil {
			v.Release()
		}
	}
	if b.colorTexture != nil {
		b.colorTexture.Release()
	}
	b.colorTexture, b.colorView, b.msaaTextureView, b.depthTextureView = nil, nil, nil, nil
}

func (b *wgpuRendererBackend) release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseTarget()
	if b.querySet != nil {
		b.querySet.Release()
	}
	if b.pipeline != nil {
		b.pipeline.Release()
	}
	if b.bindGroupLayout != nil {
		b.bindGroupLayout.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
