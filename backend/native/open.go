package native

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/primconv/backend"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

func init() {
	backend.Register(backend.BackendNoop, func() (backend.Device, error) {
		return OpenNoop()
	})
}

// NewDeviceFromProvider creates a device sharing the HAL device and queue of
// a host application. The provider must expose HalDevice() and HalQueue()
// returning hal.Device and hal.Queue.
func NewDeviceFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return NewDevice(device, queue, opts...), nil
}

// OpenNoop opens a device on the wgpu no-op HAL. Buffers and commands are
// accepted and discarded by the driver; shadows still hold buffer contents.
func OpenNoop(opts ...Option) (*Device, error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("native: create noop instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open noop adapter: %w", err)
	}

	d := newDevice(openDev.Device, openDev.Queue, opts)
	d.name = backend.BackendNoop
	d.instance = instance
	return d, nil
}
