package gpucore

import (
	"fmt"
	"strings"

	"github.com/gogpu/primconv/topology"
)

// Command is a decided device command carrying already-resolved handles.
// The concrete types are SetVertexBuffers, SetIndexBuffer, DrawIndexed, Draw
// and DrawPrimitives.
type Command interface {
	fmt.Stringer
	command()
}

// VertexBinding is one vertex buffer as seen by a draw, before resolution.
type VertexBinding struct {
	Buffer *Buffer
	Stride uint64
	Offset uint64
}

// SameBindings reports whether a and b bind the same buffers with the same
// strides and offsets, slot by slot.
func SameBindings(a, b []VertexBinding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Buffer != b[i].Buffer || a[i].Stride != b[i].Stride || a[i].Offset != b[i].Offset {
			return false
		}
	}
	return true
}

// ResolvedVertexBuffer is a vertex binding after resolution.
type ResolvedVertexBuffer struct {
	Slot   uint32
	Handle DeviceHandle
	Stride uint64
	Offset uint64
}

// ResolvedRange is a primitive range whose index buffer, if any, has been
// resolved.
type ResolvedRange struct {
	Topology       topology.Topology
	PrimitiveCount int
	IndexCount     int
	Index          DeviceHandle
	IndexOffset    uint64
	IndexWidth     topology.IndexWidth
	IndexBias      int32
	FirstVertex    int
	MinIndex       uint32
	MaxIndex       uint32
	Restart        bool
}

// Indexed reports whether the range reads an index buffer.
func (r ResolvedRange) Indexed() bool {
	return r.Index.IsValid()
}

// SetVertexBuffers rebinds the vertex buffer set.
type SetVertexBuffers struct {
	Buffers []ResolvedVertexBuffer
}

// SetIndexBuffer binds an index buffer.
type SetIndexBuffer struct {
	Handle DeviceHandle
	Width  topology.IndexWidth
	Offset uint64
}

// DrawIndexed draws from the bound index buffer.
type DrawIndexed struct {
	Topology   topology.Topology
	IndexCount int
	FirstIndex int
	BaseVertex int32
	MinIndex   uint32
	MaxIndex   uint32
	Restart    bool
}

// Draw draws without indices.
type Draw struct {
	Topology    topology.Topology
	VertexCount int
	FirstVertex int
}

// DrawPrimitives is the single command a batching device receives per
// flush: every queued range plus the batch's shared vertex bindings.
type DrawPrimitives struct {
	Vertex []ResolvedVertexBuffer
	Ranges []ResolvedRange
}

func (SetVertexBuffers) command() {}
func (SetIndexBuffer) command()   {}
func (DrawIndexed) command()      {}
func (Draw) command()             {}
func (DrawPrimitives) command()   {}

func (c SetVertexBuffers) String() string {
	var b strings.Builder
	b.WriteString("set-vertex-buffers")
	for _, v := range c.Buffers {
		fmt.Fprintf(&b, " [%d]=%d/%d+%d", v.Slot, v.Handle.Buffer, v.Stride, v.Offset)
	}
	return b.String()
}

func (c SetIndexBuffer) String() string {
	return fmt.Sprintf("set-index-buffer %d %v+%d", c.Handle.Buffer, c.Width, c.Offset)
}

func (c DrawIndexed) String() string {
	s := fmt.Sprintf("draw-indexed %v count=%d first=%d base=%d", c.Topology, c.IndexCount, c.FirstIndex, c.BaseVertex)
	if c.Restart {
		s += " restart"
	}
	return s
}

func (c Draw) String() string {
	return fmt.Sprintf("draw %v count=%d first=%d", c.Topology, c.VertexCount, c.FirstVertex)
}

func (c DrawPrimitives) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "draw-primitives vb=%d ranges=%d", len(c.Vertex), len(c.Ranges))
	for _, r := range c.Ranges {
		if r.Indexed() {
			fmt.Fprintf(&b, " {%v x%d idx=%d@%d}", r.Topology, r.PrimitiveCount, r.Index.Buffer, r.IndexOffset)
		} else {
			fmt.Fprintf(&b, " {%v x%d first=%d}", r.Topology, r.PrimitiveCount, r.FirstVertex)
		}
	}
	return b.String()
}
