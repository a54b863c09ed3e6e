package native

import "errors"

// Package errors for the HAL backend.
var (
	// ErrNoGPU is returned when no HAL adapter is available.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNoHAL is returned when a device provider does not expose HAL types.
	ErrNoHAL = errors.New("native: provider does not expose HAL device and queue")

	// ErrNoRenderPass is returned by Emit when no render pass is set.
	ErrNoRenderPass = errors.New("native: no render pass")

	// ErrUnknownBuffer is returned for handles the device did not create.
	ErrUnknownBuffer = errors.New("native: unknown buffer")
)
