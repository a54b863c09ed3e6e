package backend

import (
	"errors"

	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("backend: device closed")
)

// Device is a gpucore.Device that also describes the hardware behind it.
//
// Devices are registered via Register() and opened via Open() or Default().
type Device interface {
	gpucore.Device

	// Name returns the backend identifier (e.g., "recording", "noop").
	Name() string

	// Caps returns the topologies the device consumes directly.
	Caps() topology.Caps

	// ProvokingVertex returns the device's native provoking-vertex
	// convention.
	ProvokingVertex() topology.ProvokingVertex

	// Close releases all backend resources.
	// The device should not be used after Close is called.
	Close() error
}
