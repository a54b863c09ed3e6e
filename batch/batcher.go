package batch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
)

// DefaultCapacity is the number of ranges a batch holds before it is
// flushed.
const DefaultCapacity = 32

// ErrEmptyRange is returned by Submit for a range that draws nothing.
var ErrEmptyRange = errors.New("batch: empty range")

// Range is one logical draw waiting in a batch.
//
// A non-nil IndexBuffer carries a reference that Submit takes over: the
// batcher releases it once the range has been flushed or discarded.
type Range struct {
	Topology       topology.Topology
	PrimitiveCount int
	IndexCount     int

	IndexBuffer *gpucore.Buffer
	IndexOffset uint64
	IndexWidth  topology.IndexWidth
	IndexBias   int32

	// FirstVertex is the first vertex of a non-indexed range.
	FirstVertex int

	MinIndex uint32
	MaxIndex uint32
	Restart  bool
}

// Indexed reports whether the range reads an index buffer.
func (r Range) Indexed() bool {
	return r.IndexBuffer != nil
}

// FlushError reports a batch that could not be resolved or emitted.
// Nothing was emitted and the batch is still pending.
type FlushError struct {
	// Seq is the sequence number of the failed flush.
	Seq uint64
	// Range is the index of the offending range, or -1 when a vertex
	// buffer or the emission itself failed.
	Range int
	Err   error
}

func (e *FlushError) Error() string {
	if e.Range < 0 {
		return fmt.Sprintf("batch: flush %d: %v", e.Seq, e.Err)
	}
	return fmt.Sprintf("batch: flush %d: range %d: %v", e.Seq, e.Range, e.Err)
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// Stats counts batcher activity.
type Stats struct {
	Submitted uint64
	Flushes   uint64
	Ranges    uint64 // ranges emitted
	Failed    uint64 // failed flush attempts
	Pending   int
}

func (s Stats) String() string {
	return fmt.Sprintf("submitted=%d flushes=%d ranges=%d failed=%d pending=%d",
		s.Submitted, s.Flushes, s.Ranges, s.Failed, s.Pending)
}

// Batcher coalesces ranges that share vertex bindings into one
// gpucore.DrawPrimitives command.
//
// Batcher is not safe for concurrent use.
type Batcher struct {
	res      gpucore.Resolver
	em       gpucore.Emitter
	capacity int
	logger   *slog.Logger

	pending []Range
	vertex  []gpucore.VertexBinding // referenced while pending is non-empty
	seq     uint64

	stats Stats
}

// New creates a batcher. A capacity <= 0 uses DefaultCapacity. A nil logger
// discards.
func New(res gpucore.Resolver, em gpucore.Emitter, capacity int, logger *slog.Logger) *Batcher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Batcher{
		res:      res,
		em:       em,
		capacity: capacity,
		logger:   logger,
		pending:  make([]Range, 0, capacity),
	}
}

// Capacity returns the maximum number of ranges per batch.
func (b *Batcher) Capacity() int { return b.capacity }

// Pending returns the number of queued ranges.
func (b *Batcher) Pending() int { return len(b.pending) }

// Seq returns the sequence number the next flush will carry.
func (b *Batcher) Seq() uint64 { return b.seq }

// Submit queues r drawn with the vertex bindings vb. The open batch is
// flushed first when it is full or was opened with different bindings.
//
// Submit owns r's index buffer reference from the moment it is called: if
// the implicit flush fails, the reference is released and the error is
// returned.
func (b *Batcher) Submit(r Range, vb []gpucore.VertexBinding) error {
	if r.PrimitiveCount <= 0 {
		r.IndexBuffer.Release()
		return fmt.Errorf("%w: %v", ErrEmptyRange, r.Topology)
	}
	if len(b.pending) > 0 {
		var reason string
		switch {
		case len(b.pending) >= b.capacity:
			reason = "full"
		case !gpucore.SameBindings(b.vertex, vb):
			reason = "bindings changed"
		}
		if reason != "" {
			b.logger.Debug("batch: implicit flush", "reason", reason, "pending", len(b.pending))
			if err := b.Flush(); err != nil {
				r.IndexBuffer.Release()
				return err
			}
		}
	}
	if len(b.pending) == 0 {
		b.vertex = make([]gpucore.VertexBinding, len(vb))
		for i, v := range vb {
			b.vertex[i] = v
			b.vertex[i].Buffer = v.Buffer.Reference()
		}
	}
	b.pending = append(b.pending, r)
	b.stats.Submitted++
	return nil
}

// Flush resolves every buffer the batch uses and emits a single
// DrawPrimitives command. Resolution happens before anything is emitted: on
// failure Flush returns a *FlushError and keeps the batch for a retry.
// Flushing an empty batch is a no-op.
func (b *Batcher) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	cmd, err := b.resolve()
	if err == nil {
		err = b.em.Emit(cmd)
		if err != nil {
			err = &FlushError{Seq: b.seq, Range: -1, Err: err}
		}
	}
	if err != nil {
		b.stats.Failed++
		b.logger.Warn("batch: flush failed", "seq", b.seq, "ranges", len(b.pending), "err", err)
		return err
	}

	b.logger.Debug("batch: flushed", "seq", b.seq, "ranges", len(b.pending), "vertex_buffers", len(b.vertex))
	b.stats.Flushes++
	b.stats.Ranges += uint64(len(b.pending))
	b.seq++
	b.releaseLocked()
	return nil
}

func (b *Batcher) resolve() (gpucore.DrawPrimitives, error) {
	cmd := gpucore.DrawPrimitives{
		Vertex: make([]gpucore.ResolvedVertexBuffer, len(b.vertex)),
		Ranges: make([]gpucore.ResolvedRange, len(b.pending)),
	}
	for i, v := range b.vertex {
		h, err := b.res.Resolve(v.Buffer, gpucore.BufferUsageVertex)
		if err != nil {
			return cmd, &FlushError{Seq: b.seq, Range: -1, Err: fmt.Errorf("vertex slot %d: %w", i, err)}
		}
		cmd.Vertex[i] = gpucore.ResolvedVertexBuffer{Slot: uint32(i), Handle: h, Stride: v.Stride, Offset: v.Offset}
	}
	for i, r := range b.pending {
		rr := gpucore.ResolvedRange{
			Topology:       r.Topology,
			PrimitiveCount: r.PrimitiveCount,
			IndexCount:     r.IndexCount,
			IndexOffset:    r.IndexOffset,
			IndexWidth:     r.IndexWidth,
			IndexBias:      r.IndexBias,
			FirstVertex:    r.FirstVertex,
			MinIndex:       r.MinIndex,
			MaxIndex:       r.MaxIndex,
			Restart:        r.Restart,
		}
		if r.Indexed() {
			h, err := b.res.Resolve(r.IndexBuffer, gpucore.BufferUsageIndex)
			if err != nil {
				return cmd, &FlushError{Seq: b.seq, Range: i, Err: err}
			}
			rr.Index = h
		}
		cmd.Ranges[i] = rr
	}
	return cmd, nil
}

// Discard drops the open batch without emitting it and releases every
// reference it holds.
func (b *Batcher) Discard() {
	if n := len(b.pending); n > 0 {
		b.logger.Debug("batch: discarded", "ranges", n)
	}
	b.releaseLocked()
}

func (b *Batcher) releaseLocked() {
	for i := range b.pending {
		b.pending[i].IndexBuffer.Release()
		b.pending[i] = Range{}
	}
	b.pending = b.pending[:0]
	for _, v := range b.vertex {
		v.Buffer.Release()
	}
	b.vertex = nil
}

// Stats returns current batcher statistics.
func (b *Batcher) Stats() Stats {
	s := b.stats
	s.Pending = len(b.pending)
	return s
}
