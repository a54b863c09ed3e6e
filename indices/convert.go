package indices

import (
	"encoding/binary"

	"github.com/gogpu/primconv/topology"
)

// source yields the vertex index at a position relative to the current run.
// It reads little-endian indices from a byte slice, or, when linear is set,
// synthesizes first+position.
type source struct {
	data   []byte
	width  topology.IndexWidth
	base   int
	first  uint32
	linear bool
}

func (s source) at(i int) uint32 {
	if s.linear {
		return s.first + uint32(s.base+i)
	}
	off := (s.base + i) * int(s.width)
	switch s.width {
	case topology.Width8:
		return uint32(s.data[off])
	case topology.Width16:
		return uint32(binary.LittleEndian.Uint16(s.data[off:]))
	default:
		return binary.LittleEndian.Uint32(s.data[off:])
	}
}

func (s source) shift(n int) source {
	s.base += n
	return s
}

// writer appends little-endian indices to a fixed output slice.
type writer struct {
	data     []byte
	width    topology.IndexWidth
	pos      int
	last     uint32
	overflow bool
}

func (w *writer) cap() int {
	return len(w.data) / int(w.width)
}

func (w *writer) put(v uint32) {
	if w.pos >= w.cap() {
		w.overflow = true
		return
	}
	off := w.pos * int(w.width)
	if w.width == topology.Width16 {
		binary.LittleEndian.PutUint16(w.data[off:], uint16(v))
	} else {
		binary.LittleEndian.PutUint32(w.data[off:], v)
	}
	w.pos++
	w.last = v
}

// pad fills the remaining slots. With restart the sentinel is used, otherwise
// the last index is repeated so trailing slots form degenerate primitives.
func (w *writer) pad(restart bool) {
	v := w.last
	if restart {
		v = w.width.RestartIndex()
	}
	for w.pos < w.cap() {
		off := w.pos * int(w.width)
		if w.width == topology.Width16 {
			binary.LittleEndian.PutUint16(w.data[off:], uint16(v))
		} else {
			binary.LittleEndian.PutUint32(w.data[off:], v)
		}
		w.pos++
	}
}

// emitter writes primitives in the output provoking-vertex convention.
type emitter struct {
	w     *writer
	inPV  topology.ProvokingVertex
	outPV topology.ProvokingVertex
}

func (e *emitter) line(a, b uint32) {
	if e.inPV == e.outPV {
		e.w.put(a)
		e.w.put(b)
		return
	}
	e.w.put(b)
	e.w.put(a)
}

// tri writes the triangle v rotated so the vertex at pv lands in the output
// provoking slot. Rotation preserves winding.
func (e *emitter) tri(v [3]uint32, pv int) {
	start := pv
	if e.outPV == topology.Last {
		start = pv + 1
	}
	for k := 0; k < 3; k++ {
		e.w.put(v[(start+k)%3])
	}
}

// triPV returns the input provoking slot of a canonical list triangle.
func (e *emitter) triPV() int {
	if e.inPV == topology.First {
		return 0
	}
	return 2
}

// quad splits v0..v3 into two triangles that keep the quad's provoking vertex.
func (e *emitter) quad(v [4]uint32) {
	if e.inPV == topology.Last {
		e.tri([3]uint32{v[0], v[1], v[3]}, 2)
		e.tri([3]uint32{v[1], v[2], v[3]}, 2)
		return
	}
	e.tri([3]uint32{v[0], v[1], v[2]}, 0)
	e.tri([3]uint32{v[0], v[2], v[3]}, 0)
}

func (e *emitter) lineAdj(v [4]uint32) {
	if e.inPV == e.outPV {
		for _, x := range v {
			e.w.put(x)
		}
		return
	}
	e.w.put(v[3])
	e.w.put(v[2])
	e.w.put(v[1])
	e.w.put(v[0])
}

// triAdj rotates the six-vertex tuple in pairs so that its primitive vertices
// keep their adjacency partners.
func (e *emitter) triAdj(v [6]uint32, pv int) {
	start := pv
	if e.outPV == topology.Last {
		start = pv + 2
	}
	for k := 0; k < 6; k++ {
		e.w.put(v[(start+k)%6])
	}
}

func (e *emitter) outline(v ...uint32) {
	for k := range v {
		e.w.put(v[k])
		e.w.put(v[(k+1)%len(v)])
	}
}

// stripAdjTuple returns the i-th triangle of a triangle strip with adjacency
// as (v1, a12, v2, a23, v3, a31), following the GL table. pv is the slot of
// the first-convention provoking vertex.
func stripAdjTuple(i, tris int) (t [6]int, pv int) {
	b := 2 * i
	switch {
	case tris == 1:
		return [6]int{0, 1, 2, 5, 4, 3}, 0
	case i == 0:
		return [6]int{0, 1, 2, 6, 4, 3}, 0
	case i == tris-1 && i%2 == 1:
		return [6]int{b + 2, b - 2, b, b + 3, b + 4, b + 5}, 2
	case i == tris-1:
		return [6]int{b, b - 2, b + 2, b + 5, b + 4, b + 3}, 0
	case i%2 == 1:
		return [6]int{b + 2, b - 2, b, b + 3, b + 4, b + 6}, 2
	default:
		return [6]int{b, b - 2, b + 2, b + 6, b + 4, b + 3}, 0
	}
}

// decompose converts one restart-free run of n vertices.
func decompose(op Op, s source, n int, e *emitter) {
	at := s.at
	switch op {
	case OpCopy:
		for i := 0; i < n; i++ {
			e.w.put(at(i))
		}

	case OpLines:
		for i := 0; i+1 < n; i += 2 {
			e.line(at(i), at(i+1))
		}
	case OpLineStrip:
		for i := 0; i+1 < n; i++ {
			e.line(at(i), at(i+1))
		}
	case OpLineLoop:
		if n < 2 {
			return
		}
		for i := 0; i+1 < n; i++ {
			e.line(at(i), at(i+1))
		}
		e.line(at(n-1), at(0))

	case OpTriangles:
		for i := 0; i+2 < n; i += 3 {
			e.tri([3]uint32{at(i), at(i + 1), at(i + 2)}, e.triPV())
		}
	case OpTriangleStrip:
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				e.tri([3]uint32{at(i), at(i + 1), at(i + 2)}, e.triPV())
				continue
			}
			pv := 1
			if e.inPV == topology.Last {
				pv = 2
			}
			e.tri([3]uint32{at(i + 1), at(i), at(i + 2)}, pv)
		}
	case OpTriangleFan:
		pv := 1
		if e.inPV == topology.Last {
			pv = 2
		}
		for i := 0; i+2 < n; i++ {
			e.tri([3]uint32{at(0), at(i + 1), at(i + 2)}, pv)
		}
	case OpPolygon:
		for i := 0; i+2 < n; i++ {
			e.tri([3]uint32{at(0), at(i + 1), at(i + 2)}, 0)
		}

	case OpQuads:
		for i := 0; i+3 < n; i += 4 {
			e.quad([4]uint32{at(i), at(i + 1), at(i + 2), at(i + 3)})
		}
	case OpQuadStrip:
		for i := 0; i+3 < n; i += 2 {
			e.quad([4]uint32{at(i), at(i + 1), at(i + 3), at(i + 2)})
		}
	case OpQuadStripToQuads:
		for i := 0; i+3 < n; i += 2 {
			if e.outPV == topology.Last {
				e.w.put(at(i + 2))
				e.w.put(at(i))
				e.w.put(at(i + 1))
				e.w.put(at(i + 3))
				continue
			}
			e.w.put(at(i))
			e.w.put(at(i + 1))
			e.w.put(at(i + 3))
			e.w.put(at(i + 2))
		}

	case OpLinesAdjacency:
		for i := 0; i+3 < n; i += 4 {
			e.lineAdj([4]uint32{at(i), at(i + 1), at(i + 2), at(i + 3)})
		}
	case OpLineStripAdjacency:
		for i := 0; i+3 < n; i++ {
			e.lineAdj([4]uint32{at(i), at(i + 1), at(i + 2), at(i + 3)})
		}
	case OpTrianglesAdjacency:
		pv := 0
		if e.inPV == topology.Last {
			pv = 4
		}
		for i := 0; i+5 < n; i += 6 {
			var v [6]uint32
			for k := range v {
				v[k] = at(i + k)
			}
			e.triAdj(v, pv)
		}
	case OpTriangleStripAdjacency:
		tris := (n - 4) / 2
		for i := 0; i < tris; i++ {
			t, pv := stripAdjTuple(i, tris)
			if e.inPV == topology.Last {
				pv = 4
			}
			var v [6]uint32
			for k := range v {
				v[k] = at(t[k])
			}
			e.triAdj(v, pv)
		}

	case OpTrianglesToLines:
		for i := 0; i+2 < n; i += 3 {
			e.outline(at(i), at(i+1), at(i+2))
		}
	case OpTriangleStripToLines:
		for i := 0; i+2 < n; i++ {
			if i%2 == 0 {
				e.outline(at(i), at(i+1), at(i+2))
			} else {
				e.outline(at(i+1), at(i), at(i+2))
			}
		}
	case OpTriangleFanToLines:
		for i := 0; i+2 < n; i++ {
			e.outline(at(0), at(i+1), at(i+2))
		}
	case OpQuadsToLines:
		for i := 0; i+3 < n; i += 4 {
			e.outline(at(i), at(i+1), at(i+2), at(i+3))
		}
	case OpQuadStripToLines:
		for i := 0; i+3 < n; i += 2 {
			e.outline(at(i), at(i+1), at(i+3), at(i+2))
		}
	case OpPolygonToLines:
		if n < 3 {
			return
		}
		for i := 0; i < n; i++ {
			e.w.put(at(i))
			e.w.put(at((i + 1) % n))
		}
	case OpTrianglesAdjacencyToLines:
		for i := 0; i+5 < n; i += 6 {
			e.outline(at(i), at(i+2), at(i+4))
		}
	case OpTriangleStripAdjacencyToLines:
		tris := (n - 4) / 2
		for i := 0; i < tris; i++ {
			t, _ := stripAdjTuple(i, tris)
			e.outline(at(t[0]), at(t[2]), at(t[4]))
		}
	}
}

// run converts count vertices from s. With restart enabled the input is split
// at every sentinel and each run is decomposed on its own. Output topologies
// are lists, so runs need no separator. A copy keeps the sentinel in place,
// rewritten to the output width.
func run(op Op, s source, count int, restart bool, e *emitter) {
	if !restart || s.linear {
		decompose(op, s, count, e)
		return
	}

	in := s.width.RestartIndex()
	if op == OpCopy {
		out := e.w.width.RestartIndex()
		for i := 0; i < count; i++ {
			v := s.at(i)
			if v == in {
				v = out
			}
			e.w.put(v)
		}
		return
	}

	begin := 0
	for i := 0; i < count; i++ {
		if s.at(i) != in {
			continue
		}
		if i > begin {
			decompose(op, s.shift(begin), i-begin, e)
		}
		begin = i + 1
	}
	if count > begin {
		decompose(op, s.shift(begin), count-begin, e)
	}
}
