package render

import (
	"encoding/binary"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources for the three compositor passes.
//
//go:embed shaders/ui.wgsl
var uiShaderSource string

//go:embed shaders/blend.wgsl
var blendShaderSource string

//go:embed shaders/final.wgsl
var finalShaderSource string

// Compositor errors.
var (
	// ErrCompositorClosed is returned when rendering after Close.
	ErrCompositorClosed = errors.New("render: compositor is closed")

	// ErrDeviceLost is returned when the device stopped responding.
	// The owning interface treats this as fatal.
	ErrDeviceLost = errors.New("render: gpu device lost")
)

// viewportUniformSize is the byte size of the viewport uniform:
// size (vec2<f32>) + padding (vec2<f32>) = 16 bytes.
const viewportUniformSize = 16

// intermediateFormat is the format of the four offscreen attachments.
// The separate alpha attachment carries coverage, so 8-bit channels
// hold enough precision through the blend chain.
var intermediateFormat = gputypes.TextureFormatRGBA8Unorm

// CompositorConfig holds construction parameters for the Compositor.
type CompositorConfig struct {
	// SurfaceFormat is the swapchain format the final pass writes to.
	SurfaceFormat gputypes.TextureFormat

	// MSAA is the sample count of the layer pass. 1 disables
	// multisampling.
	MSAA uint32

	// SPIRV routes shader compilation through naga to SPIR-V for
	// backends that do not ingest WGSL directly.
	SPIRV bool
}

// Compositor executes the three-pass frame assembly: a layer pass per
// z-layer into (src_color, src_alpha), a blend pass folding that layer
// over the accumulated (prev_color, prev_alpha), and a final pass that
// resolves the accumulation onto the surface.
//
// A subpass-input variant of the blend stage existed in earlier
// revisions; the sampled-texture path implemented here runs on every
// backend, so it is the one maintained.
type Compositor struct {
	device hal.Device
	queue  hal.Queue
	config CompositorConfig

	layerShader hal.ShaderModule
	blendShader hal.ShaderModule
	finalShader hal.ShaderModule

	layerLayout hal.BindGroupLayout
	blendLayout hal.BindGroupLayout
	finalLayout hal.BindGroupLayout

	layerPipeline hal.RenderPipeline
	blendPipeline hal.RenderPipeline
	finalPipeline hal.RenderPipeline

	sampler    hal.Sampler
	uniformBuf hal.Buffer

	// placeholder is a transparent 1x1 texture bound in place of an
	// atlas that has no content yet.
	placeholder texandview

	targets *frameTargets

	// lastSubmit is the submission index of the previous frame.
	lastSubmit uint64

	closed bool
}

// frameTargets holds the offscreen attachments for one surface size.
// prev[0] and prev[1] ping-pong as blend source and destination.
type frameTargets struct {
	width, height uint32

	srcColor, srcAlpha   texandview
	prevColor, prevAlpha [2]texandview

	// msaaColor and msaaAlpha are the multisampled layer attachments,
	// resolved into srcColor/srcAlpha. Unused when MSAA is 1.
	msaaColor, msaaAlpha texandview
}

type texandview struct {
	tex  hal.Texture
	view hal.TextureView
}

// NewCompositor builds pipelines on the given device. The device comes
// from the host via HalFromProvider.
func NewCompositor(device hal.Device, queue hal.Queue, config CompositorConfig) (*Compositor, error) {
	if config.MSAA == 0 {
		config.MSAA = 1
	}
	c := &Compositor{device: device, queue: queue, config: config}
	if err := c.createShaders(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.createPipelines(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.createPlaceholder(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// createPlaceholder builds the transparent 1x1 texture used for atlas
// bindings before the first atlas upload.
func (c *Compositor) createPlaceholder() error {
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "binui_placeholder",
		Size:          hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        intermediateFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: create placeholder: %w", err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "binui_placeholder_view",
		Format:        intermediateFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return fmt.Errorf("render: create placeholder view: %w", err)
	}
	if err := c.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		[]byte{0, 0, 0, 0},
		&hal.ImageDataLayout{BytesPerRow: 4, RowsPerImage: 1},
		&hal.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
	); err != nil {
		c.device.DestroyTextureView(view)
		c.device.DestroyTexture(tex)
		return fmt.Errorf("render: clear placeholder: %w", err)
	}
	c.placeholder = texandview{tex: tex, view: view}
	return nil
}

// atlasHandle returns the native handle for an atlas view, falling back
// to the placeholder when the atlas has not been uploaded yet.
func (c *Compositor) atlasHandle(view hal.TextureView) uintptr {
	if view == nil {
		view = c.placeholder.view
	}
	return view.NativeHandle()
}

// createShaderModule compiles src either as WGSL directly or through
// naga to SPIR-V, depending on configuration.
func (c *Compositor) createShaderModule(label, src string) (hal.ShaderModule, error) {
	if !c.config.SPIRV {
		return c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label,
			Source: hal.ShaderSource{WGSL: src},
		})
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("render: compile %s: %w", label, err)
	}
	// SPIR-V is little-endian 32-bit words.
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: code},
	})
}

func (c *Compositor) createShaders() error {
	var err error
	if c.layerShader, err = c.createShaderModule("binui_ui_shader", uiShaderSource); err != nil {
		return err
	}
	if c.blendShader, err = c.createShaderModule("binui_blend_shader", blendShaderSource); err != nil {
		return err
	}
	if c.finalShader, err = c.createShaderModule("binui_final_shader", finalShaderSource); err != nil {
		return err
	}
	return nil
}

func (c *Compositor) createPipelines() error {
	sampler, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "binui_compositor_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("render: create sampler: %w", err)
	}
	c.sampler = sampler

	uniformBuf, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "binui_viewport_uniform",
		Size:  viewportUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: create viewport uniform: %w", err)
	}
	c.uniformBuf = uniformBuf

	// Layer pass layout: viewport uniform, glyph atlas, image atlas,
	// sampler. Matches ui.wgsl group 0.
	layerLayout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "binui_layer_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    3,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("render: create layer layout: %w", err)
	}
	c.layerLayout = layerLayout

	c.blendLayout, err = c.sampledQuadLayout("binui_blend_layout", 4)
	if err != nil {
		return err
	}
	c.finalLayout, err = c.sampledQuadLayout("binui_final_layout", 2)
	if err != nil {
		return err
	}

	if err := c.createLayerPipeline(); err != nil {
		return err
	}
	if err := c.createBlendPipeline(); err != nil {
		return err
	}
	return c.createFinalPipeline()
}

// sampledQuadLayout builds a bind group layout of n sampled textures
// followed by one sampler, used by the fullscreen blend and final passes.
func (c *Compositor) sampledQuadLayout(label string, textures uint32) (hal.BindGroupLayout, error) {
	entries := make([]gputypes.BindGroupLayoutEntry, 0, textures+1)
	for i := uint32(0); i < textures; i++ {
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding:    i,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		})
	}
	entries = append(entries, gputypes.BindGroupLayoutEntry{
		Binding:    textures,
		Visibility: gputypes.ShaderStageFragment,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	})
	layout, err := c.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create %s: %w", label, err)
	}
	return layout, nil
}

func (c *Compositor) createLayerPipeline() error {
	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "binui_layer_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.layerLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create layer pipeline layout: %w", err)
	}
	defer c.device.DestroyPipelineLayout(pipeLayout)

	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "binui_layer_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.layerShader,
			EntryPoint: "vs_main",
			Buffers:    VertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     c.layerShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: intermediateFormat, WriteMask: gputypes.ColorWriteMaskAll},
				{Format: intermediateFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: c.config.MSAA,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("render: create layer pipeline: %w", err)
	}
	c.layerPipeline = pipeline
	return nil
}

func (c *Compositor) createBlendPipeline() error {
	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "binui_blend_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.blendLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create blend pipeline layout: %w", err)
	}
	defer c.device.DestroyPipelineLayout(pipeLayout)

	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "binui_blend_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.blendShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     c.blendShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: intermediateFormat, WriteMask: gputypes.ColorWriteMaskAll},
				{Format: intermediateFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("render: create blend pipeline: %w", err)
	}
	c.blendPipeline = pipeline
	return nil
}

func (c *Compositor) createFinalPipeline() error {
	pipeLayout, err := c.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "binui_final_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{c.finalLayout},
	})
	if err != nil {
		return fmt.Errorf("render: create final pipeline layout: %w", err)
	}
	defer c.device.DestroyPipelineLayout(pipeLayout)

	pipeline, err := c.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "binui_final_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     c.finalShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     c.finalShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{Format: c.config.SurfaceFormat, WriteMask: gputypes.ColorWriteMaskAll},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return fmt.Errorf("render: create final pipeline: %w", err)
	}
	c.finalPipeline = pipeline
	return nil
}

// ensureTargets (re)creates the offscreen attachments for the given size.
func (c *Compositor) ensureTargets(w, h uint32) error {
	if c.targets != nil && c.targets.width == w && c.targets.height == h {
		return nil
	}
	c.destroyTargets()

	t := &frameTargets{width: w, height: h}
	var err error
	if t.srcColor, err = c.createTarget("binui_src_color", w, h, 1); err != nil {
		return err
	}
	if t.srcAlpha, err = c.createTarget("binui_src_alpha", w, h, 1); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		if t.prevColor[i], err = c.createTarget(fmt.Sprintf("binui_prev_color_%d", i), w, h, 1); err != nil {
			return err
		}
		if t.prevAlpha[i], err = c.createTarget(fmt.Sprintf("binui_prev_alpha_%d", i), w, h, 1); err != nil {
			return err
		}
	}
	if c.config.MSAA > 1 {
		// The layer pipeline's sample count must match its attachments;
		// the multisampled pair resolves into the sampled src pair.
		if t.msaaColor, err = c.createTarget("binui_msaa_color", w, h, c.config.MSAA); err != nil {
			return err
		}
		if t.msaaAlpha, err = c.createTarget("binui_msaa_alpha", w, h, c.config.MSAA); err != nil {
			return err
		}
	}
	c.targets = t
	slogger().Info("compositor targets created", "width", w, "height", h)
	return nil
}

func (c *Compositor) createTarget(label string, w, h, samples uint32) (texandview, error) {
	usage := gputypes.TextureUsageRenderAttachment
	if samples == 1 {
		usage |= gputypes.TextureUsageTextureBinding
	}
	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     gputypes.TextureDimension2D,
		Format:        intermediateFormat,
		Usage:         usage,
	})
	if err != nil {
		return texandview{}, fmt.Errorf("render: create %s: %w", label, err)
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        intermediateFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		c.device.DestroyTexture(tex)
		return texandview{}, fmt.Errorf("render: create %s view: %w", label, err)
	}
	return texandview{tex: tex, view: view}, nil
}

func (c *Compositor) destroyTargets() {
	if c.targets == nil {
		return
	}
	drop := func(tv texandview) {
		if tv.view != nil {
			c.device.DestroyTextureView(tv.view)
		}
		if tv.tex != nil {
			c.device.DestroyTexture(tv.tex)
		}
	}
	drop(c.targets.srcColor)
	drop(c.targets.srcAlpha)
	drop(c.targets.msaaColor)
	drop(c.targets.msaaAlpha)
	for i := 0; i < 2; i++ {
		drop(c.targets.prevColor[i])
		drop(c.targets.prevAlpha[i])
	}
	c.targets = nil
}

// Frame describes one frame to composite.
type Frame struct {
	// Surface is the swapchain view for the final pass.
	Surface hal.TextureView

	// Width and Height are the surface size in device pixels.
	Width, Height uint32

	// Spans lists each z-layer's vertex ranges.
	Spans []LayerSpan

	// VertexBuffer is the device-local buffer holding all vertices.
	VertexBuffer hal.Buffer

	// GlyphAtlas and ImageAtlas are the sampled atlas views.
	GlyphAtlas hal.TextureView
	ImageAtlas hal.TextureView
}

// Render executes the full pass chain for one frame and submits it.
// It waits for the previous frame's submission first; this is the
// render thread's only GPU block.
func (c *Compositor) Render(frame *Frame) error {
	if c.closed {
		return ErrCompositorClosed
	}
	if err := c.ensureTargets(frame.Width, frame.Height); err != nil {
		return err
	}

	if err := waitSubmission(c.queue, c.lastSubmit, 5*time.Second); err != nil {
		return fmt.Errorf("%w: previous frame", ErrDeviceLost)
	}

	c.writeViewportUniform(frame.Width, frame.Height)

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "binui_frame",
	})
	if err != nil {
		return fmt.Errorf("render: create frame encoder: %w", err)
	}
	if err := encoder.BeginEncoding("binui_frame"); err != nil {
		return fmt.Errorf("render: begin frame encoding: %w", err)
	}

	layerBind, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "binui_layer_bind",
		Layout: c.layerLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: c.uniformBuf.NativeHandle(), Offset: 0, Size: viewportUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: c.atlasHandle(frame.GlyphAtlas)}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: c.atlasHandle(frame.ImageAtlas)}},
			{Binding: 3, Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("render: create layer bind group: %w", err)
	}
	defer c.device.DestroyBindGroup(layerBind)

	// prev[cur] always holds the accumulation the next blend reads.
	cur := 0
	c.clearAccumulation(encoder, cur)

	var blendBinds []hal.BindGroup
	defer func() {
		for _, bg := range blendBinds {
			c.device.DestroyBindGroup(bg)
		}
	}()

	for _, span := range frame.Spans {
		c.encodeLayerPass(encoder, frame, layerBind, span)

		bg, err := c.encodeBlendPass(encoder, cur)
		if err != nil {
			encoder.DiscardEncoding()
			return err
		}
		blendBinds = append(blendBinds, bg)
		cur = 1 - cur
	}

	finalBind, err := c.encodeFinalPass(encoder, frame, cur)
	if err != nil {
		encoder.DiscardEncoding()
		return err
	}
	defer c.device.DestroyBindGroup(finalBind)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("render: end frame encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	idx, err := c.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("%w: submit: %v", ErrDeviceLost, err)
	}
	c.lastSubmit = idx
	return nil
}

// clearAccumulation opens and closes a pass over the starting prev pair
// so the first blend reads transparent black.
func (c *Compositor) clearAccumulation(encoder hal.CommandEncoder, cur int) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "binui_clear_prev",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       c.targets.prevColor[cur].view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
			{
				View:       c.targets.prevAlpha[cur].view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
	})
	rp.End()
}

func (c *Compositor) encodeLayerPass(encoder hal.CommandEncoder, frame *Frame, bind hal.BindGroup, span LayerSpan) {
	colorAtt := hal.RenderPassColorAttachment{
		View:       c.targets.srcColor.view,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: gputypes.Color{},
	}
	alphaAtt := hal.RenderPassColorAttachment{
		View:       c.targets.srcAlpha.view,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: gputypes.Color{},
	}
	if c.config.MSAA > 1 {
		// Draw into the multisampled targets and resolve into the
		// single-sample layer textures the blend pass samples.
		colorAtt.View = c.targets.msaaColor.view
		colorAtt.ResolveTarget = c.targets.srcColor.view
		alphaAtt.View = c.targets.msaaAlpha.view
		alphaAtt.ResolveTarget = c.targets.srcAlpha.view
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            fmt.Sprintf("binui_layer_%d", span.Layer),
		ColorAttachments: []hal.RenderPassColorAttachment{colorAtt, alphaAtt},
	})
	rp.SetPipeline(c.layerPipeline)
	rp.SetBindGroup(0, bind, nil)
	rp.SetVertexBuffer(0, frame.VertexBuffer, 0)
	for _, r := range span.Ranges {
		rp.Draw(uint32(r.Len()), 1, uint32(r.Start), 0)
	}
	rp.End()

	// Layer targets switch from attachment to sampled for the blend.
	encoder.TransitionTextures([]hal.TextureBarrier{
		{Texture: c.targets.srcColor.tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageTextureBinding,
		}},
		{Texture: c.targets.srcAlpha.tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageTextureBinding,
		}},
	})
}

func (c *Compositor) encodeBlendPass(encoder hal.CommandEncoder, cur int) (hal.BindGroup, error) {
	next := 1 - cur
	bind, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "binui_blend_bind",
		Layout: c.blendLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: c.targets.srcColor.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: c.targets.srcAlpha.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.TextureViewBinding{TextureView: c.targets.prevColor[cur].view.NativeHandle()}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: c.targets.prevAlpha[cur].view.NativeHandle()}},
			{Binding: 4, Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: create blend bind group: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "binui_blend",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:    c.targets.prevColor[next].view,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			},
			{
				View:    c.targets.prevAlpha[next].view,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			},
		},
	})
	rp.SetPipeline(c.blendPipeline)
	rp.SetBindGroup(0, bind, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()

	encoder.TransitionTextures([]hal.TextureBarrier{
		{Texture: c.targets.srcColor.tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageTextureBinding,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		}},
		{Texture: c.targets.srcAlpha.tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageTextureBinding,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		}},
		{Texture: c.targets.prevColor[next].tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageTextureBinding,
		}},
		{Texture: c.targets.prevAlpha[next].tex, Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageTextureBinding,
		}},
	})
	return bind, nil
}

func (c *Compositor) encodeFinalPass(encoder hal.CommandEncoder, frame *Frame, cur int) (hal.BindGroup, error) {
	bind, err := c.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "binui_final_bind",
		Layout: c.finalLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: c.targets.prevColor[cur].view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: c.targets.prevAlpha[cur].view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: c.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("render: create final bind group: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "binui_final",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       frame.Surface,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{},
			},
		},
	})
	rp.SetPipeline(c.finalPipeline)
	rp.SetBindGroup(0, bind, nil)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return bind, nil
}

func (c *Compositor) writeViewportUniform(w, h uint32) {
	var buf [viewportUniformSize]byte
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(float32(w)))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(h)))
	c.queue.WriteBuffer(c.uniformBuf, 0, buf[:])
}

// Close releases all compositor resources.
func (c *Compositor) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.destroyTargets()
	if c.placeholder.view != nil {
		c.device.DestroyTextureView(c.placeholder.view)
		c.device.DestroyTexture(c.placeholder.tex)
		c.placeholder = texandview{}
	}
	if c.layerPipeline != nil {
		c.device.DestroyRenderPipeline(c.layerPipeline)
	}
	if c.blendPipeline != nil {
		c.device.DestroyRenderPipeline(c.blendPipeline)
	}
	if c.finalPipeline != nil {
		c.device.DestroyRenderPipeline(c.finalPipeline)
	}
	if c.layerLayout != nil {
		c.device.DestroyBindGroupLayout(c.layerLayout)
	}
	if c.blendLayout != nil {
		c.device.DestroyBindGroupLayout(c.blendLayout)
	}
	if c.finalLayout != nil {
		c.device.DestroyBindGroupLayout(c.finalLayout)
	}
	if c.uniformBuf != nil {
		c.device.DestroyBuffer(c.uniformBuf)
	}
	if c.sampler != nil {
		c.device.DestroySampler(c.sampler)
	}
	if c.layerShader != nil {
		c.device.DestroyShaderModule(c.layerShader)
	}
	if c.blendShader != nil {
		c.device.DestroyShaderModule(c.blendShader)
	}
	if c.finalShader != nil {
		c.device.DestroyShaderModule(c.finalShader)
	}
}
