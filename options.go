package primconv

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/primconv/topology"
)

// DeviceClass says how the device consumes draws.
type DeviceClass uint8

const (
	// Immediate devices execute bind and draw commands as they arrive.
	Immediate DeviceClass = iota
	// Batched devices receive many draw ranges in one command.
	Batched
)

func (c DeviceClass) String() string {
	switch c {
	case Immediate:
		return "immediate"
	case Batched:
		return "batched"
	default:
		return fmt.Sprintf("DeviceClass(%d)", int(c))
	}
}

// ParseDeviceClass parses "immediate" or "batched".
func ParseDeviceClass(name string) (DeviceClass, error) {
	switch name {
	case "immediate":
		return Immediate, nil
	case "batched":
		return Batched, nil
	default:
		return 0, fmt.Errorf("primconv: invalid device class %q", name)
	}
}

// Option configures a Context during creation.
//
// Example:
//
//	ctx, err := primconv.NewContext(dev,
//	    primconv.WithDeviceClass(primconv.Batched),
//	    primconv.WithBatchCapacity(64),
//	)
type Option func(*options)

// options holds optional configuration for Context creation.
type options struct {
	caps    topology.Caps
	hasCaps bool
	pv      topology.ProvokingVertex
	hasPV   bool

	cacheSlots     int
	batchCapacity  int
	class          DeviceClass
	indexedOnly    bool
	nativeUnfilled bool
	logger         *slog.Logger
}

// defaultOptions returns the default context options.
func defaultOptions() options {
	return options{
		caps:  topology.WebGPUCaps(),
		pv:    topology.First,
		class: Immediate,
	}
}

// WithCaps sets the topologies the device consumes directly. Without it
// the Context asks the device, falling back to WebGPU caps.
func WithCaps(caps topology.Caps) Option {
	return func(o *options) {
		o.caps = caps
		o.hasCaps = true
	}
}

// WithProvokingVertex sets the device's provoking-vertex convention.
func WithProvokingVertex(pv topology.ProvokingVertex) Option {
	return func(o *options) {
		o.pv = pv
		o.hasPV = true
	}
}

// WithCacheSlots sets the number of index cache slots per topology.
func WithCacheSlots(n int) Option {
	return func(o *options) {
		o.cacheSlots = n
	}
}

// WithBatchCapacity sets the number of ranges per batch on a batched device.
func WithBatchCapacity(n int) Option {
	return func(o *options) {
		o.batchCapacity = n
	}
}

// WithDeviceClass selects immediate or batched emission.
func WithDeviceClass(c DeviceClass) Option {
	return func(o *options) {
		o.class = c
	}
}

// WithIndexedOnly marks a device that cannot draw without an index buffer.
// Natively supported non-indexed draws are then served from the index cache.
func WithIndexedOnly(on bool) Option {
	return func(o *options) {
		o.indexedOnly = on
	}
}

// WithNativeUnfilled marks a device that draws points and lines fill modes
// itself, disabling the unfilled fallback.
func WithNativeUnfilled(on bool) Option {
	return func(o *options) {
		o.nativeUnfilled = on
	}
}

// WithLogger sets the logger for this Context. The default is the package
// logger returned by Logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
