// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package immediate emits draws one at a time to devices that execute
// commands as they arrive.
//
// The Emitter remembers the vertex and index bindings it last sent and skips
// rebinding commands whose state the device already has. Buffers are still
// resolved on every draw so the device keeps them resident.
package immediate

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
)

// Draw describes one draw call.
type Draw struct {
	Topology topology.Topology
	// Count is the number of indices, or of vertices when IndexBuffer is nil.
	Count int
	// First is the first index, or the first vertex for a non-indexed draw.
	First int

	IndexBuffer *gpucore.Buffer
	IndexWidth  topology.IndexWidth
	IndexOffset uint64
	BaseVertex  int32

	MinIndex uint32
	MaxIndex uint32
	Restart  bool
}

// Indexed reports whether the draw reads an index buffer.
func (d Draw) Indexed() bool { return d.IndexBuffer != nil }

// Stats counts emitter activity.
type Stats struct {
	Draws      uint64
	Rebinds    uint64 // SetVertexBuffers emitted
	Skipped    uint64 // vertex rebinds avoided
	IndexBinds uint64 // SetIndexBuffer emitted
}

func (s Stats) String() string {
	return fmt.Sprintf("draws=%d rebinds=%d skipped=%d index-binds=%d", s.Draws, s.Rebinds, s.Skipped, s.IndexBinds)
}

// snapshot is the binding state the device was last sent. It holds a
// reference on every buffer it names.
type snapshot struct {
	vertex      []gpucore.VertexBinding
	vertexValid bool

	index       *gpucore.Buffer
	indexWidth  topology.IndexWidth
	indexOffset uint64
}

func (s *snapshot) sameIndex(d Draw) bool {
	return s.index != nil && s.index == d.IndexBuffer &&
		s.indexWidth == d.IndexWidth && s.indexOffset == d.IndexOffset
}

func (s *snapshot) setVertex(vb []gpucore.VertexBinding) {
	next := make([]gpucore.VertexBinding, len(vb))
	for i, v := range vb {
		next[i] = v
		next[i].Buffer = v.Buffer.Reference()
	}
	for _, v := range s.vertex {
		v.Buffer.Release()
	}
	s.vertex = next
	s.vertexValid = true
}

func (s *snapshot) setIndex(d Draw) {
	next := d.IndexBuffer.Reference()
	s.index.Release()
	s.index = next
	s.indexWidth = d.IndexWidth
	s.indexOffset = d.IndexOffset
}

func (s *snapshot) reset() {
	for _, v := range s.vertex {
		v.Buffer.Release()
	}
	s.index.Release()
	*s = snapshot{}
}

// Emitter sends draws to an immediate device.
//
// Emitter is not safe for concurrent use.
type Emitter struct {
	res    gpucore.Resolver
	em     gpucore.Emitter
	logger *slog.Logger

	snap  snapshot
	stats Stats
}

// New creates an emitter. A nil logger discards.
func New(res gpucore.Resolver, em gpucore.Emitter, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{res: res, em: em, logger: logger}
}

// Draw emits d with the vertex bindings vb.
//
// Every buffer is resolved before any command is emitted. SetVertexBuffers
// is emitted only when vb differs from the bindings last sent, and
// SetIndexBuffer only when the index buffer, width or offset changed. The
// binding snapshot is updated once the draw command has been emitted; an
// emission failure forgets it so the next draw rebinds everything.
//
// Draw does not take over the caller's reference on d.IndexBuffer.
func (e *Emitter) Draw(vb []gpucore.VertexBinding, d Draw) error {
	if d.Count <= 0 {
		return nil
	}

	resolved := make([]gpucore.ResolvedVertexBuffer, len(vb))
	for i, v := range vb {
		h, err := e.res.Resolve(v.Buffer, gpucore.BufferUsageVertex)
		if err != nil {
			return fmt.Errorf("immediate: vertex slot %d: %w", i, err)
		}
		resolved[i] = gpucore.ResolvedVertexBuffer{Slot: uint32(i), Handle: h, Stride: v.Stride, Offset: v.Offset}
	}
	var index gpucore.DeviceHandle
	if d.Indexed() {
		h, err := e.res.Resolve(d.IndexBuffer, gpucore.BufferUsageIndex)
		if err != nil {
			return fmt.Errorf("immediate: index buffer: %w", err)
		}
		index = h
	}

	rebind := !e.snap.vertexValid || !gpucore.SameBindings(e.snap.vertex, vb)
	rebindIndex := d.Indexed() && !e.snap.sameIndex(d)

	if rebind {
		if err := e.emit(gpucore.SetVertexBuffers{Buffers: resolved}); err != nil {
			return err
		}
	}
	if rebindIndex {
		if err := e.emit(gpucore.SetIndexBuffer{Handle: index, Width: d.IndexWidth, Offset: d.IndexOffset}); err != nil {
			return err
		}
	}

	var cmd gpucore.Command
	if d.Indexed() {
		cmd = gpucore.DrawIndexed{
			Topology:   d.Topology,
			IndexCount: d.Count,
			FirstIndex: d.First,
			BaseVertex: d.BaseVertex,
			MinIndex:   d.MinIndex,
			MaxIndex:   d.MaxIndex,
			Restart:    d.Restart,
		}
	} else {
		cmd = gpucore.Draw{Topology: d.Topology, VertexCount: d.Count, FirstVertex: d.First}
	}
	if err := e.emit(cmd); err != nil {
		return err
	}

	if rebind {
		e.snap.setVertex(vb)
		e.stats.Rebinds++
	} else {
		e.stats.Skipped++
	}
	if rebindIndex {
		e.snap.setIndex(d)
		e.stats.IndexBinds++
	}
	e.stats.Draws++
	e.logger.Debug("immediate: draw", "topology", d.Topology, "count", d.Count,
		"indexed", d.Indexed(), "rebind", rebind, "rebind_index", rebindIndex)
	return nil
}

func (e *Emitter) emit(cmd gpucore.Command) error {
	if err := e.em.Emit(cmd); err != nil {
		e.snap.reset()
		return fmt.Errorf("immediate: emit %v: %w", cmd, err)
	}
	return nil
}

// Invalidate forgets the bindings last sent. Call it when the device loses
// its binding state, for example when a new command buffer begins.
func (e *Emitter) Invalidate() {
	e.snap.reset()
}

// Stats returns current emitter statistics.
func (e *Emitter) Stats() Stats {
	return e.stats
}
