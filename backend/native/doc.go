// Package native implements backend.Device on the wgpu HAL.
//
// A Device either wraps a HAL device shared by a host application
// (NewDevice, NewDeviceFromProvider) or opens its own on the no-op HAL
// (OpenNoop, registered as backend "noop"). Every buffer keeps a CPU shadow
// so index translation can read source indices back, and writes reach the
// GPU through Queue.WriteBuffer when a mapping is released.
//
// Decided commands are recorded into the render pass given to
// SetRenderPass:
//
//	dev.SetRenderPass(rp)
//	err := ctx.Draw(vb, info)
//	dev.SetRenderPass(nil)
package native
