package primconv

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/primconv/batch"
	"github.com/gogpu/primconv/cache"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/immediate"
	"github.com/gogpu/primconv/topology"
)

// describer is implemented by devices that report their own capabilities,
// such as every backend.Device.
type describer interface {
	Caps() topology.Caps
	ProvokingVertex() topology.ProvokingVertex
}

// Context turns draw calls into device commands.
// It owns an index cache and either a batcher or an immediate emitter.
// Context implements io.Closer; Close does not close the device.
//
// Context is not safe for concurrent use.
type Context struct {
	dev    gpucore.Device
	logger *slog.Logger

	caps           topology.Caps
	pv             topology.ProvokingVertex
	class          DeviceClass
	indexedOnly    bool
	nativeUnfilled bool

	cache   *cache.IndexCache
	batcher *batch.Batcher     // batched devices
	emitter *immediate.Emitter // immediate devices

	stats  drawStats
	closed bool
}

// Ensure Context implements io.Closer
var _ io.Closer = (*Context)(nil)

// NewContext creates a draw context for dev.
//
// Caps and provoking vertex come from the options, then from the device if
// it describes itself (see backend.Device), then from the defaults: WebGPU
// caps and a first provoking vertex.
func NewContext(dev gpucore.Device, opts ...Option) (*Context, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if d, ok := dev.(describer); ok {
		if !o.hasCaps {
			o.caps = d.Caps()
		}
		if !o.hasPV {
			o.pv = d.ProvokingVertex()
		}
	}
	logger := o.logger
	if logger == nil {
		logger = Logger()
	}

	c := &Context{
		dev:            dev,
		logger:         logger,
		caps:           o.caps,
		pv:             o.pv,
		class:          o.class,
		indexedOnly:    o.indexedOnly,
		nativeUnfilled: o.nativeUnfilled,
		cache:          cache.New(dev, o.cacheSlots, logger),
	}
	switch o.class {
	case Batched:
		c.batcher = batch.New(dev, dev, o.batchCapacity, logger)
	case Immediate:
		c.emitter = immediate.New(dev, dev, logger)
	default:
		return nil, fmt.Errorf("primconv: invalid device class %v", o.class)
	}

	logger.Info("primconv: context created",
		"class", c.class, "caps", c.caps, "provoking_vertex", c.pv,
		"cache_slots", c.cache.SlotsPerTopology(), "indexed_only", c.indexedOnly)
	return c, nil
}

// Caps returns the capability mask draws are reduced to.
func (c *Context) Caps() topology.Caps { return c.caps }

// ProvokingVertex returns the device's provoking-vertex convention.
func (c *Context) ProvokingVertex() topology.ProvokingVertex { return c.pv }

// DeviceClass returns how draws are emitted.
func (c *Context) DeviceClass() DeviceClass { return c.class }

// Cache returns the context's index cache.
func (c *Context) Cache() *cache.IndexCache { return c.cache }

// Pending returns the number of draws waiting in the open batch. It is
// always zero on an immediate device.
func (c *Context) Pending() int {
	if c.batcher == nil {
		return 0
	}
	return c.batcher.Pending()
}

// Flush emits the open batch. It is a no-op on an immediate device or when
// nothing is pending. A resolution failure is returned as a *FlushError and
// the batch stays pending.
func (c *Context) Flush() error {
	if c.closed {
		return ErrClosed
	}
	if c.batcher == nil {
		return nil
	}
	return c.batcher.Flush()
}

// FlushForStateChange flushes pending draws before state that would observe
// them changes, such as a render target or pipeline switch. reason is
// logged.
func (c *Context) FlushForStateChange(reason string) error {
	if n := c.Pending(); n > 0 {
		c.logger.Debug("primconv: flush for state change", "reason", reason, "pending", n)
	}
	return c.Flush()
}

// Invalidate forgets the bindings an immediate device was last sent, for
// example after a new command buffer begins.
func (c *Context) Invalidate() {
	if c.emitter != nil {
		c.emitter.Invalidate()
	}
}

// Close flushes pending draws and releases every cached index buffer.
// Close is idempotent. If the final flush fails the pending draws are
// dropped and the error is returned.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	var err error
	if c.batcher != nil {
		err = c.batcher.Flush()
		c.batcher.Discard()
	}
	if c.emitter != nil {
		c.emitter.Invalidate()
	}
	c.cache.Clear()
	c.closed = true
	c.logger.Debug("primconv: context closed", "stats", c.Stats())
	return err
}

// drawStats counts Context decisions.
type drawStats struct {
	draws     uint64
	memcpy    uint64
	rewrites  uint64
	generated uint64
	linear    uint64
	unfilled  uint64
	abandoned uint64
}

// Stats contains context statistics.
type Stats struct {
	// Draws is the number of draws submitted to the device.
	Draws uint64
	// Memcpy counts indexed draws whose indices were reused or copied.
	Memcpy uint64
	// Rewrites counts indexed draws whose indices were rewritten.
	Rewrites uint64
	// Generated counts non-indexed draws served from the index cache.
	Generated uint64
	// Linear counts non-indexed draws passed straight to the device.
	Linear uint64
	// Unfilled counts draws routed through the unfilled fallback.
	Unfilled uint64
	// Abandoned counts draws dropped because of an error.
	Abandoned uint64

	Cache     cache.Stats
	Batch     batch.Stats
	Immediate immediate.Stats
}

func (s Stats) String() string {
	return fmt.Sprintf("draws=%d memcpy=%d rewrites=%d generated=%d linear=%d unfilled=%d abandoned=%d cache={%v}",
		s.Draws, s.Memcpy, s.Rewrites, s.Generated, s.Linear, s.Unfilled, s.Abandoned, s.Cache)
}

// Stats returns current statistics.
func (c *Context) Stats() Stats {
	s := Stats{
		Draws:     c.stats.draws,
		Memcpy:    c.stats.memcpy,
		Rewrites:  c.stats.rewrites,
		Generated: c.stats.generated,
		Linear:    c.stats.linear,
		Unfilled:  c.stats.unfilled,
		Abandoned: c.stats.abandoned,
		Cache:     c.cache.Stats(),
	}
	if c.batcher != nil {
		s.Batch = c.batcher.Stats()
	}
	if c.emitter != nil {
		s.Immediate = c.emitter.Stats()
	}
	return s
}
