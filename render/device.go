package render

import (
	"errors"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"
)

// DeviceHandle provides GPU device access from the host application.
//
// The host (window/application layer) implements DeviceHandle and passes
// it in, allowing binui to record against a shared device. binui RECEIVES
// the device; it does not create one.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider so any provider
// from the gpucontext ecosystem plugs in directly.
type DeviceHandle = gpucontext.DeviceProvider

// Device access errors.
var (
	// ErrNilProvider is returned when no device provider was supplied.
	ErrNilProvider = errors.New("render: device provider is nil")

	// ErrNoHalAccess is returned when the provider does not expose the
	// underlying HAL device and queue.
	ErrNoHalAccess = errors.New("render: provider does not expose hal device/queue")
)

// HalFromProvider extracts the HAL device and queue from a device
// provider. The provider must implement HalDevice() any and HalQueue()
// any returning hal.Device and hal.Queue, the convention used across the
// gpucontext ecosystem.
func HalFromProvider(provider any) (hal.Device, hal.Queue, error) {
	if provider == nil {
		return nil, nil, ErrNilProvider
	}
	hp, ok := provider.(interface {
		HalDevice() any
		HalQueue() any
	})
	if !ok {
		return nil, nil, ErrNoHalAccess
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return nil, nil, ErrNoHalAccess
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return nil, nil, ErrNoHalAccess
	}
	return device, queue, nil
}

// waitSubmission blocks until the queue reports the given submission
// index complete. The HAL tracks completion through PollCompleted, so
// this is a poll loop with a deadline; index zero means nothing was
// submitted yet.
func waitSubmission(queue hal.Queue, index uint64, timeout time.Duration) error {
	if index == 0 {
		return nil
	}
	deadline := time.Now().Add(timeout)
	for queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return ErrDeviceLost
		}
		time.Sleep(100 * time.Microsecond)
	}
	return nil
}
