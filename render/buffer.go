package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer manager errors.
var (
	// ErrBuffersClosed is returned when operating on closed buffers.
	ErrBuffersClosed = errors.New("render: vertex buffers are closed")
)

// minBufferBytes is the smallest device allocation. Small enough to be
// free for trivial scenes, large enough to avoid churn while a UI builds
// up.
const minBufferBytes = 64 * 1024

// Buffers owns the device-local vertex buffer and its host-visible
// staging twin. All per-frame updates funnel through Flush: staging bytes
// are written with queue.WriteBuffer, then one command buffer applies the
// coalesced buffer-to-buffer copies.
type Buffers struct {
	device hal.Device
	queue  hal.Queue

	staging hal.Buffer
	vertex  hal.Buffer
	size    uint64

	// lastSubmit is the submission index of the previous frame's copies.
	lastSubmit uint64

	closed bool
}

// NewBuffers creates the buffer pair on the given device.
func NewBuffers(device hal.Device, queue hal.Queue) (*Buffers, error) {
	b := &Buffers{device: device, queue: queue}
	if err := b.ensureCapacity(minBufferBytes); err != nil {
		return nil, err
	}
	return b, nil
}

// Vertex returns the device-local vertex buffer for draw binding.
func (b *Buffers) Vertex() hal.Buffer { return b.vertex }

// Size returns the current capacity of both buffers in bytes.
func (b *Buffers) Size() uint64 { return b.size }

// ensureCapacity grows both buffers by doubling until need fits.
// Growth replaces the device buffer; the caller is expected to re-upload
// via a full transfer, which the range table produces after compaction.
func (b *Buffers) ensureCapacity(need uint64) error {
	if need <= b.size {
		return nil
	}
	size := b.size
	if size == 0 {
		size = minBufferBytes
	}
	for size < need {
		size *= 2
	}

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "binui_vertex_staging",
		Size:  size,
		Usage: gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("render: create staging buffer: %w", err)
	}
	vertex, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "binui_vertex_device",
		Size:  size,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.device.DestroyBuffer(staging)
		return fmt.Errorf("render: create vertex buffer: %w", err)
	}

	if b.staging != nil {
		b.device.DestroyBuffer(b.staging)
	}
	if b.vertex != nil {
		b.device.DestroyBuffer(b.vertex)
	}
	b.staging = staging
	b.vertex = vertex
	b.size = size
	slogger().Info("vertex buffers resized", "bytes", size)
	return nil
}

// Flush uploads the staging image and applies the frame's transfers with
// a single command buffer. It blocks until the previous frame's copies
// completed before reusing the staging buffer, which is the only GPU
// wait in the render loop.
func (b *Buffers) Flush(transfers []Transfer, staging []byte) error {
	if b.closed {
		return ErrBuffersClosed
	}
	if len(transfers) == 0 {
		return nil
	}
	if err := b.ensureCapacity(uint64(len(staging))); err != nil {
		return err
	}

	// Wait for the previous frame's copies before overwriting staging.
	if err := waitSubmission(b.queue, b.lastSubmit, 5*time.Second); err != nil {
		return fmt.Errorf("render: wait previous frame: %w", err)
	}

	for _, tr := range transfers {
		end := tr.SrcOff + tr.Size
		if end > len(staging) {
			return fmt.Errorf("render: transfer [%d,%d) outside staging image of %d bytes",
				tr.SrcOff, end, len(staging))
		}
		if err := b.queue.WriteBuffer(b.staging, uint64(tr.SrcOff), staging[tr.SrcOff:end]); err != nil {
			return fmt.Errorf("render: write staging: %w", err)
		}
	}

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "binui_vertex_transfer",
	})
	if err != nil {
		return fmt.Errorf("render: create transfer encoder: %w", err)
	}
	if err := encoder.BeginEncoding("vertex_transfer"); err != nil {
		return fmt.Errorf("render: begin transfer encoding: %w", err)
	}

	copies := make([]hal.BufferCopy, len(transfers))
	for i, tr := range transfers {
		copies[i] = hal.BufferCopy{
			SrcOffset: uint64(tr.SrcOff),
			DstOffset: uint64(tr.DstOff),
			Size:      uint64(tr.Size),
		}
	}
	encoder.CopyBufferToBuffer(b.staging, b.vertex, copies)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("render: end transfer encoding: %w", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	idx, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("render: submit transfers: %w", err)
	}
	b.lastSubmit = idx
	slogger().Debug("vertex transfers flushed", "copies", len(copies))
	return nil
}

// Close destroys both buffers.
func (b *Buffers) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.staging != nil {
		b.device.DestroyBuffer(b.staging)
	}
	if b.vertex != nil {
		b.device.DestroyBuffer(b.vertex)
	}
}
