package atlas

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Images is the double-buffered GPU mirror of an [Atlas]. Uploads go to
// the back texture while the front texture is sampled by in-flight
// frames; Swap flips the two once the previous submission completes.
type Images struct {
	device hal.Device
	queue  hal.Queue
	format gputypes.TextureFormat
	bpp    int

	textures [2]hal.Texture
	views    [2]hal.TextureView
	sizes    [2]int
	front    int
}

// NewImages creates the GPU mirror. format must match the atlas pixel
// layout: R8Unorm for coverage atlases, RGBA8Unorm for image atlases.
func NewImages(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, bytesPerPixel int) *Images {
	return &Images{device: device, queue: queue, format: format, bpp: bytesPerPixel, front: 0}
}

// View returns the texture view frames should sample, or nil before the
// first Sync.
func (im *Images) View() hal.TextureView {
	return im.views[im.front]
}

// Sync uploads the atlas content to the back texture when dirty and
// reports whether a swap is pending. The caller swaps after the
// previous frame's submission has completed.
func (im *Images) Sync(a *Atlas) (pending bool, err error) {
	pixels, size, dirty := a.Snapshot()
	back := 1 - im.front
	if !dirty && im.textures[back] != nil && im.sizes[back] == size {
		return false, nil
	}

	if im.textures[back] == nil || im.sizes[back] != size {
		im.destroySide(back)
		tex, err := im.device.CreateTexture(&hal.TextureDescriptor{
			Label:         fmt.Sprintf("binui_atlas_%d", back),
			Size:          hal.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        im.format,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return false, fmt.Errorf("atlas: create texture: %w", err)
		}
		view, err := im.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         fmt.Sprintf("binui_atlas_%d_view", back),
			Format:        im.format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			im.device.DestroyTexture(tex)
			return false, fmt.Errorf("atlas: create texture view: %w", err)
		}
		im.textures[back] = tex
		im.views[back] = view
		im.sizes[back] = size
	}

	if err := im.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: im.textures[back], MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(size * im.bpp),
			RowsPerImage: uint32(size),
		},
		&hal.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1},
	); err != nil {
		return false, fmt.Errorf("atlas: upload: %w", err)
	}
	slogger().Debug("atlas synced", "side", back, "size", size)
	return true, nil
}

// Swap makes the freshly uploaded back texture the sampled front.
// Callers must only swap between frames, once no in-flight frame
// still samples the old front.
func (im *Images) Swap() {
	if im.textures[1-im.front] != nil {
		im.front = 1 - im.front
	}
}

func (im *Images) destroySide(i int) {
	if im.views[i] != nil {
		im.device.DestroyTextureView(im.views[i])
		im.views[i] = nil
	}
	if im.textures[i] != nil {
		im.device.DestroyTexture(im.textures[i])
		im.textures[i] = nil
	}
	im.sizes[i] = 0
}

// Close releases both texture sides.
func (im *Images) Close() {
	im.destroySide(0)
	im.destroySide(1)
}
