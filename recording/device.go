package recording

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/primconv/backend"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
)

func init() {
	backend.Register(backend.BackendRecording, func() (backend.Device, error) {
		return NewDevice(), nil
	})
}

// ErrMapped is returned when a buffer is mapped twice.
var ErrMapped = errors.New("recording: buffer already mapped")

// storage is the in-memory backing of one buffer.
type storage struct {
	data   []byte
	mapped bool
}

// Stats counts device activity.
type Stats struct {
	Created   int
	Destroyed int
	Resolves  int
	Maps      int
	Emitted   int
}

// Device is an in-memory gpucore.Device. Buffers live in host memory,
// resolution always succeeds unless a failure was injected, and every
// emitted command is appended to a log.
//
// Device is not safe for concurrent use.
type Device struct {
	caps   topology.Caps
	pv     topology.ProvokingVertex
	budget int
	logger *slog.Logger

	buffers map[gpucore.BufferID]*storage
	nextID  gpucore.BufferID
	used    int

	failResolve map[gpucore.BufferID]bool
	failEmit    error

	log    Log
	stats  Stats
	closed bool
}

// Option configures a Device.
type Option func(*Device)

// WithCaps sets the capability mask the device reports.
func WithCaps(caps topology.Caps) Option {
	return func(d *Device) { d.caps = caps }
}

// WithProvokingVertex sets the device's native provoking vertex.
func WithProvokingVertex(pv topology.ProvokingVertex) Option {
	return func(d *Device) { d.pv = pv }
}

// WithBudget limits live buffer memory to n bytes. CreateBuffer fails with
// gpucore.ErrOutOfMemory once the budget would be exceeded. Zero means
// unlimited.
func WithBudget(n int) Option {
	return func(d *Device) { d.budget = n }
}

// WithLogger sets the logger for buffer lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// NewDevice creates a recording device with WebGPU caps and a first
// provoking vertex unless options say otherwise.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		caps:        topology.WebGPUCaps(),
		pv:          topology.First,
		buffers:     make(map[gpucore.BufferID]*storage),
		failResolve: make(map[gpucore.BufferID]bool),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Name implements backend.Device.
func (d *Device) Name() string { return backend.BackendRecording }

// Caps implements backend.Device.
func (d *Device) Caps() topology.Caps { return d.caps }

// ProvokingVertex implements backend.Device.
func (d *Device) ProvokingVertex() topology.ProvokingVertex { return d.pv }

// CreateBuffer allocates a zeroed host buffer.
func (d *Device) CreateBuffer(size int, usage gpucore.BufferUsage, label string) (*gpucore.Buffer, error) {
	if d.closed {
		return nil, backend.ErrClosed
	}
	if size <= 0 {
		return nil, fmt.Errorf("recording: invalid buffer size %d", size)
	}
	if d.budget > 0 && d.used+size > d.budget {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			gpucore.ErrOutOfMemory, size, d.used, d.budget)
	}
	d.nextID++
	id := d.nextID
	d.buffers[id] = &storage{data: make([]byte, size)}
	d.used += size
	d.stats.Created++
	d.logger.Debug("recording: buffer created", "id", id, "size", size, "usage", usage, "label", label)
	return gpucore.NewBuffer(id, size, usage, label, d.destroy), nil
}

func (d *Device) destroy(b *gpucore.Buffer) {
	st, ok := d.buffers[b.ID()]
	if !ok {
		return
	}
	d.used -= len(st.data)
	delete(d.buffers, b.ID())
	delete(d.failResolve, b.ID())
	d.stats.Destroyed++
	d.logger.Debug("recording: buffer destroyed", "id", b.ID())
}

func (d *Device) lookup(buf *gpucore.Buffer, offset, length int) (*storage, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", gpucore.ErrReleased)
	}
	if err := buf.CheckRange(offset, length); err != nil {
		return nil, err
	}
	st, ok := d.buffers[buf.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %v", gpucore.ErrReleased, buf)
	}
	return st, nil
}

type mapping struct {
	st   *storage
	data []byte
}

func (m *mapping) Bytes() []byte { return m.data }

func (m *mapping) Unmap() error {
	if !m.st.mapped {
		return errors.New("recording: buffer not mapped")
	}
	m.st.mapped = false
	return nil
}

// MapForWrite returns a view directly into the host buffer.
func (d *Device) MapForWrite(buf *gpucore.Buffer, offset, length int) (gpucore.Mapping, error) {
	st, err := d.lookup(buf, offset, length)
	if err != nil {
		return nil, err
	}
	if st.mapped {
		return nil, fmt.Errorf("%w: %v", ErrMapped, buf)
	}
	st.mapped = true
	d.stats.Maps++
	return &mapping{st: st, data: st.data[offset : offset+length]}, nil
}

// ReadBuffer returns a copy of the buffer range.
func (d *Device) ReadBuffer(buf *gpucore.Buffer, offset, length int) ([]byte, error) {
	st, err := d.lookup(buf, offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, st.data[offset:offset+length])
	return out, nil
}

// Resolve returns a handle carrying the buffer ID. It fails when the buffer
// is released, lacks the requested usage, or a failure was injected with
// FailResolve.
func (d *Device) Resolve(buf *gpucore.Buffer, usage gpucore.BufferUsage) (gpucore.DeviceHandle, error) {
	if buf == nil || !buf.Live() {
		return gpucore.DeviceHandle{}, fmt.Errorf("%w: %v released", gpucore.ErrResolve, buf)
	}
	if d.failResolve[buf.ID()] {
		return gpucore.DeviceHandle{}, fmt.Errorf("%w: %v (injected)", gpucore.ErrResolve, buf)
	}
	if !buf.Usage().Contains(usage) {
		return gpucore.DeviceHandle{}, fmt.Errorf("%w: %v lacks usage %v", gpucore.ErrResolve, buf, usage)
	}
	d.stats.Resolves++
	return gpucore.DeviceHandle{Buffer: buf.ID()}, nil
}

// Emit appends cmd to the command log.
func (d *Device) Emit(cmd gpucore.Command) error {
	if d.closed {
		return backend.ErrClosed
	}
	if d.failEmit != nil {
		return d.failEmit
	}
	d.log = append(d.log, cmd)
	d.stats.Emitted++
	return nil
}

// FailResolve makes every later Resolve of buf fail until ClearFailures.
func (d *Device) FailResolve(buf *gpucore.Buffer) {
	d.failResolve[buf.ID()] = true
}

// FailEmit makes every later Emit return err. A nil err clears it.
func (d *Device) FailEmit(err error) {
	d.failEmit = err
}

// ClearFailures removes all injected failures.
func (d *Device) ClearFailures() {
	clear(d.failResolve)
	d.failEmit = nil
}

// SetBudget changes the memory budget. Zero means unlimited.
func (d *Device) SetBudget(n int) {
	d.budget = n
}

// Commands returns the emitted commands in order.
func (d *Device) Commands() Log {
	out := make(Log, len(d.log))
	copy(out, d.log)
	return out
}

// ResetCommands clears the command log.
func (d *Device) ResetCommands() {
	d.log = d.log[:0]
}

// Contents returns a copy of a live buffer's bytes, or nil.
func (d *Device) Contents(id gpucore.BufferID) []byte {
	st, ok := d.buffers[id]
	if !ok {
		return nil
	}
	out := make([]byte, len(st.data))
	copy(out, st.data)
	return out
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int { return len(d.buffers) }

// Used returns the bytes held by live buffers.
func (d *Device) Used() int { return d.used }

// Stats returns activity counters.
func (d *Device) Stats() Stats { return d.stats }

// Close marks the device closed. Buffers still referenced stay readable so
// leaks can be inspected.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if n := len(d.buffers); n > 0 {
		d.logger.Warn("recording: device closed with live buffers", "count", n, "bytes", d.used)
	}
	return nil
}
