// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/primconv/backend"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
	"github.com/gogpu/wgpu/hal"
)

// copyAlign is the granularity of queue writes.
const copyAlign = 4

// halBuffer tracks one HAL buffer and its CPU shadow. The shadow lets
// translated draws read source indices without a GPU readback.
type halBuffer struct {
	buf    hal.Buffer
	shadow []byte
	mapped bool
}

// Device implements backend.Device on top of a wgpu HAL device and queue.
//
// Buffers are created with CopyDst usage and written through the queue;
// MapForWrite hands out a view of the shadow that Unmap uploads. Commands
// are recorded into the render pass set with SetRenderPass.
//
// Thread Safety: buffer bookkeeping is guarded by a mutex, but a Device is
// meant to be driven by one draw context at a time.
type Device struct {
	mu     sync.Mutex
	device hal.Device
	queue  hal.Queue

	// instance is set when the device opened its own adapter.
	instance hal.Instance
	external bool

	name   string
	caps   topology.Caps
	pv     topology.ProvokingVertex
	logger *slog.Logger

	nextID  atomic.Uint64
	buffers map[gpucore.BufferID]*halBuffer

	pass   RenderPass
	stats  Stats
	closed bool
}

// Stats counts HAL calls made by the device.
type Stats struct {
	BuffersCreated   int
	BuffersDestroyed int
	BytesWritten     int
	VertexBinds      int
	IndexBinds       int
	Draws            int
}

// Option configures a Device.
type Option func(*Device)

// WithCaps overrides the capability mask. The default is WebGPU caps.
func WithCaps(caps topology.Caps) Option {
	return func(d *Device) { d.caps = caps }
}

// WithProvokingVertex overrides the provoking vertex. WebGPU devices use the
// first vertex.
func WithProvokingVertex(pv topology.ProvokingVertex) Option {
	return func(d *Device) { d.pv = pv }
}

// WithLogger sets the device logger. A nil logger discards.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// NewDevice wraps an existing HAL device and queue. The caller keeps
// ownership of both: Close releases only the buffers created here.
func NewDevice(device hal.Device, queue hal.Queue, opts ...Option) *Device {
	d := newDevice(device, queue, opts)
	d.external = true
	return d
}

func newDevice(device hal.Device, queue hal.Queue, opts []Option) *Device {
	d := &Device{
		device:  device,
		queue:   queue,
		name:    "native",
		caps:    topology.WebGPUCaps(),
		pv:      topology.First,
		buffers: make(map[gpucore.BufferID]*halBuffer),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	// Start ID generation at 1 (0 is invalid)
	d.nextID.Store(1)
	return d
}

// Name implements backend.Device.
func (d *Device) Name() string { return d.name }

// Caps implements backend.Device.
func (d *Device) Caps() topology.Caps { return d.caps }

// ProvokingVertex implements backend.Device.
func (d *Device) ProvokingVertex() topology.ProvokingVertex { return d.pv }

// Stats returns HAL call counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func halUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	usage := gputypes.BufferUsageCopyDst
	if u.Contains(gpucore.BufferUsageIndex) {
		usage |= gputypes.BufferUsageIndex
	}
	if u.Contains(gpucore.BufferUsageVertex) {
		usage |= gputypes.BufferUsageVertex
	}
	if u.Contains(gpucore.BufferUsageCopySrc) {
		usage |= gputypes.BufferUsageCopySrc
	}
	return usage
}

func alignUp(n int) int {
	return (n + copyAlign - 1) &^ (copyAlign - 1)
}

// CreateBuffer creates a HAL buffer rounded up to the copy alignment and a
// shadow of the requested size.
func (d *Device) CreateBuffer(size int, usage gpucore.BufferUsage, label string) (*gpucore.Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("native: invalid buffer size %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, backend.ErrClosed
	}

	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(alignUp(size)),
		Usage: halUsage(usage),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create %q (%d bytes): %w", gpucore.ErrOutOfMemory, label, size, err)
	}
	id := gpucore.BufferID(d.nextID.Add(1) - 1)
	d.buffers[id] = &halBuffer{buf: buf, shadow: make([]byte, alignUp(size))}
	d.stats.BuffersCreated++
	d.logger.Debug("native: buffer created", "id", id, "size", size, "usage", usage, "label", label)
	return gpucore.NewBuffer(id, size, usage, label, d.destroy), nil
}

func (d *Device) destroy(b *gpucore.Buffer) {
	d.mu.Lock()
	hb, ok := d.buffers[b.ID()]
	if ok {
		delete(d.buffers, b.ID())
		d.stats.BuffersDestroyed++
	}
	d.mu.Unlock()

	if ok {
		d.device.DestroyBuffer(hb.buf)
	}
}

func (d *Device) lookup(buf *gpucore.Buffer, offset, length int) (*halBuffer, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", gpucore.ErrReleased)
	}
	if err := buf.CheckRange(offset, length); err != nil {
		return nil, err
	}
	hb, ok := d.buffers[buf.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownBuffer, buf)
	}
	return hb, nil
}

type mapping struct {
	d      *Device
	hb     *halBuffer
	offset int
	data   []byte
}

func (m *mapping) Bytes() []byte { return m.data }

// Unmap uploads the mapped range, widened to the copy alignment.
func (m *mapping) Unmap() error {
	m.d.mu.Lock()
	defer m.d.mu.Unlock()
	if !m.hb.mapped {
		return errors.New("native: buffer not mapped")
	}
	m.hb.mapped = false

	lo := m.offset &^ (copyAlign - 1)
	hi := alignUp(m.offset + len(m.data))
	m.d.queue.WriteBuffer(m.hb.buf, uint64(lo), m.hb.shadow[lo:hi])
	m.d.stats.BytesWritten += hi - lo
	return nil
}

// MapForWrite returns a view of the buffer's shadow. Unmap uploads it.
func (d *Device) MapForWrite(buf *gpucore.Buffer, offset, length int) (gpucore.Mapping, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hb, err := d.lookup(buf, offset, length)
	if err != nil {
		return nil, err
	}
	if hb.mapped {
		return nil, fmt.Errorf("native: %v already mapped", buf)
	}
	hb.mapped = true
	return &mapping{d: d, hb: hb, offset: offset, data: hb.shadow[offset : offset+length]}, nil
}

// ReadBuffer returns a copy of the shadow range.
func (d *Device) ReadBuffer(buf *gpucore.Buffer, offset, length int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hb, err := d.lookup(buf, offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, hb.shadow[offset:offset+length])
	return out, nil
}

// Resolve returns a handle whose Native field is the hal.Buffer.
func (d *Device) Resolve(buf *gpucore.Buffer, usage gpucore.BufferUsage) (gpucore.DeviceHandle, error) {
	if !buf.Live() {
		return gpucore.DeviceHandle{}, fmt.Errorf("%w: %v released", gpucore.ErrResolve, buf)
	}
	if !buf.Usage().Contains(usage) {
		return gpucore.DeviceHandle{}, fmt.Errorf("%w: %v lacks usage %v", gpucore.ErrResolve, buf, usage)
	}
	d.mu.Lock()
	hb, ok := d.buffers[buf.ID()]
	d.mu.Unlock()
	if !ok {
		return gpucore.DeviceHandle{}, fmt.Errorf("%w: %w %v", gpucore.ErrResolve, ErrUnknownBuffer, buf)
	}
	return gpucore.DeviceHandle{Buffer: buf.ID(), Native: hb.buf}, nil
}

// Close destroys every buffer still tracked and, when the device opened its
// own adapter, the HAL device and instance. Close is idempotent.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	live := d.buffers
	d.buffers = make(map[gpucore.BufferID]*halBuffer)
	d.pass = nil
	d.mu.Unlock()

	if n := len(live); n > 0 {
		d.logger.Warn("native: device closed with live buffers", "count", n)
	}
	for _, hb := range live {
		d.device.DestroyBuffer(hb.buf)
	}
	if !d.external {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
			d.instance = nil
		}
	}
	return nil
}
