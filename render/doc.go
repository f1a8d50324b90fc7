// Package render owns the GPU side of binui: the shared vertex buffer with
// its per-bin ranges, the staging transfers that keep it current, and the
// three-pass compositor (layer, blend, final) that turns the buffer into
// presented frames.
//
// The package receives its device from the host through the gpucontext
// DeviceProvider integration point; it never creates adapters or devices
// itself.
package render
