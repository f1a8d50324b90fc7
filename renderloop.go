package binui

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/binui/atlas"
	"github.com/gogpu/binui/render"
)

// renderLoop owns the GPU half of a running interface: the vertex
// buffer pair, the compositor and the double-buffered atlas textures.
// It exists only when a device provider was supplied.
type renderLoop struct {
	itf *Interface

	buffers    *render.Buffers
	compositor *render.Compositor

	glyphImages *atlas.Images
	imageImages *atlas.Images
}

func newRenderLoop(itf *Interface) (*renderLoop, error) {
	device, queue, err := render.HalFromProvider(itf.opts.DeviceProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	format := itf.wm.SurfaceFormat()
	switch format {
	case gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm:
	default:
		return nil, fmt.Errorf("%w: surface format %v", ErrWindowNotSupported, format)
	}

	buffers, err := render.NewBuffers(device, queue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}
	compositor, err := render.NewCompositor(device, queue, render.CompositorConfig{
		SurfaceFormat: format,
		MSAA:          itf.opts.MSAA,
	})
	if err != nil {
		buffers.Close()
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	return &renderLoop{
		itf:         itf,
		buffers:     buffers,
		compositor:  compositor,
		glyphImages: atlas.NewImages(device, queue, gputypes.TextureFormatR8Unorm, 1),
		imageImages: atlas.NewImages(device, queue, gputypes.TextureFormatRGBA8Unorm, 4),
	}, nil
}

func (rl *renderLoop) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rl.itf.quit:
			return errShutdownSignal
		case <-rl.itf.frameCh:
		}
		if err := rl.frame(); err != nil {
			if errors.Is(err, render.ErrDeviceLost) {
				return fmt.Errorf("%w: %v", ErrGpuLost, err)
			}
			return err
		}
	}
}

// frame uploads pending vertex transfers and atlas content, then runs
// the compositor pass chain and presents.
func (rl *renderLoop) frame() error {
	transfers, staging := rl.itf.ranges.TakeTransfers()
	if err := rl.buffers.Flush(transfers, staging); err != nil {
		return err
	}

	// Atlas uploads land on the back texture; the swap only moves the
	// CPU-side front index, in-flight frames hold their sampled views
	// through their bind groups.
	if pending, err := rl.glyphImages.Sync(rl.itf.glyphAtlas); err != nil {
		return err
	} else if pending {
		rl.glyphImages.Swap()
	}
	if pending, err := rl.imageImages.Sync(rl.itf.imageAtlas); err != nil {
		return err
	} else if pending {
		rl.imageImages.Swap()
	}

	surface, err := rl.itf.wm.SurfaceTexture()
	if err != nil {
		return &WindowOsError{Message: err.Error()}
	}
	w, h := rl.itf.size()
	frame := &render.Frame{
		Surface:      surface,
		Width:        w,
		Height:       h,
		Spans:        rl.itf.ranges.LayerSpans(),
		VertexBuffer: rl.buffers.Vertex(),
		GlyphAtlas:   rl.glyphImages.View(),
		ImageAtlas:   rl.imageImages.View(),
	}
	if err := rl.compositor.Render(frame); err != nil {
		return err
	}
	return rl.itf.wm.Present()
}

func (rl *renderLoop) close() {
	rl.glyphImages.Close()
	rl.imageImages.Close()
	rl.compositor.Close()
	rl.buffers.Close()
}
