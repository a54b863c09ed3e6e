package topology

import (
	"strings"

	"github.com/gogpu/gputypes"
)

// Caps is the hardware capability mask: the set of topologies a device
// consumes directly plus a separate bit for native quad support.
//
// Caps is a value type and is never mutated after construction; the With*
// methods return modified copies.
type Caps struct {
	mask        uint32
	nativeQuads bool
}

// NewCaps returns a capability mask containing the given topologies.
// Invalid topologies are ignored.
func NewCaps(topos ...Topology) Caps {
	var c Caps
	for _, t := range topos {
		if t.IsValid() {
			c.mask |= 1 << t
		}
	}
	return c
}

// WithNativeQuads returns a copy of c with the native quad bit set to on.
func (c Caps) WithNativeQuads(on bool) Caps {
	c.nativeQuads = on
	return c
}

// With returns a copy of c that also contains t.
func (c Caps) With(t Topology) Caps {
	if t.IsValid() {
		c.mask |= 1 << t
	}
	return c
}

// Supports reports whether the device consumes t directly.
// Quads are supported either through the mask or the native quad bit.
func (c Caps) Supports(t Topology) bool {
	if !t.IsValid() {
		return false
	}
	if t == Quads && c.nativeQuads {
		return true
	}
	return c.mask&(1<<t) != 0
}

// NativeQuads reports whether the device draws quads natively.
func (c Caps) NativeQuads() bool {
	return c.nativeQuads
}

// Topologies returns the directly supported topologies in declaration order.
func (c Caps) Topologies() []Topology {
	var out []Topology
	for t := Points; t < Count; t++ {
		if c.Supports(t) {
			out = append(out, t)
		}
	}
	return out
}

// String renders the mask as "{points,lines,...}" with a "+quads" suffix
// when native quads are on.
func (c Caps) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, t := range c.Topologies() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
	b.WriteByte('}')
	if c.nativeQuads {
		b.WriteString("+quads")
	}
	return b.String()
}

// webgpuTopologies lists the primitive topologies a WebGPU device exposes.
var webgpuTopologies = []gputypes.PrimitiveTopology{
	gputypes.PrimitiveTopologyPointList,
	gputypes.PrimitiveTopologyLineList,
	gputypes.PrimitiveTopologyLineStrip,
	gputypes.PrimitiveTopologyTriangleList,
	gputypes.PrimitiveTopologyTriangleStrip,
}

// WebGPUCaps returns the capability mask of a WebGPU-class device.
func WebGPUCaps() Caps {
	var c Caps
	for _, p := range webgpuTopologies {
		if t, ok := FromGPU(p); ok {
			c = c.With(t)
		}
	}
	return c
}

// GPU maps t to the WebGPU primitive topology. It reports false for
// topologies WebGPU cannot express.
func (t Topology) GPU() (gputypes.PrimitiveTopology, bool) {
	switch t {
	case Points:
		return gputypes.PrimitiveTopologyPointList, true
	case Lines:
		return gputypes.PrimitiveTopologyLineList, true
	case LineStrip:
		return gputypes.PrimitiveTopologyLineStrip, true
	case Triangles:
		return gputypes.PrimitiveTopologyTriangleList, true
	case TriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, true
	default:
		return 0, false
	}
}

// FromGPU maps a WebGPU primitive topology back to a Topology.
func FromGPU(p gputypes.PrimitiveTopology) (Topology, bool) {
	switch p {
	case gputypes.PrimitiveTopologyPointList:
		return Points, true
	case gputypes.PrimitiveTopologyLineList:
		return Lines, true
	case gputypes.PrimitiveTopologyLineStrip:
		return LineStrip, true
	case gputypes.PrimitiveTopologyTriangleList:
		return Triangles, true
	case gputypes.PrimitiveTopologyTriangleStrip:
		return TriangleStrip, true
	default:
		return 0, false
	}
}
