package indices

import "github.com/gogpu/primconv/topology"

// Strategy selection is a pure lookup in tables built once at init. The
// tables are exhaustive over every supported combination of topology, widths,
// provoking-vertex conventions and restart mode.

type translateKey struct {
	topo    topology.Topology
	in      topology.IndexWidth
	out     topology.IndexWidth
	inPV    topology.ProvokingVertex
	outPV   topology.ProvokingVertex
	restart topology.RestartMode
}

type generateKey struct {
	topo  topology.Topology
	out   topology.IndexWidth
	inPV  topology.ProvokingVertex
	outPV topology.ProvokingVertex
}

type unfilledKey struct {
	topo    topology.Topology
	in      topology.IndexWidth
	out     topology.IndexWidth
	restart topology.RestartMode
}

var (
	inWidths  = []topology.IndexWidth{topology.Width8, topology.Width16, topology.Width32}
	outWidths = []topology.IndexWidth{topology.Width16, topology.Width32}
	pvs       = []topology.ProvokingVertex{topology.First, topology.Last}
	restarts  = []topology.RestartMode{topology.RestartDisabled, topology.RestartEnabled}
)

// Triangle output tables, and the quad sub-tables used when the device draws
// quads natively and the provoking-vertex conventions match.
var (
	translateTable     = map[translateKey]Op{}
	translateQuadTable = map[translateKey]Op{}
	generateTable      = map[generateKey]Op{}
	generateQuadTable  = map[generateKey]Op{}
	unfilledTable      = map[unfilledKey]Op{}
)

func init() {
	for t := topology.Points; t < topology.Count; t++ {
		op, hasOp := reductionOp(t)
		qop, hasQuad := quadOp(t)
		lop, hasOutline := outlineOp(t)

		for _, out := range outWidths {
			for _, inPV := range pvs {
				for _, outPV := range pvs {
					k := generateKey{t, out, inPV, outPV}
					if hasOp {
						generateTable[k] = op
					}
					if hasQuad && inPV == outPV {
						generateQuadTable[k] = qop
					}
				}
			}

			for _, in := range inWidths {
				if in.Promote() != out {
					continue
				}
				for _, restart := range restarts {
					if hasOutline {
						unfilledTable[unfilledKey{t, in, out, restart}] = lop
					}
					for _, inPV := range pvs {
						for _, outPV := range pvs {
							k := translateKey{t, in, out, inPV, outPV, restart}
							if hasOp {
								translateTable[k] = op
							}
							if hasQuad && inPV == outPV {
								translateQuadTable[k] = qop
							}
						}
					}
				}
			}
		}
	}
}

// reductionOp returns the strategy that reduces t to its fallback list
// topology.
func reductionOp(t topology.Topology) (Op, bool) {
	switch t {
	case topology.Points, topology.Patches:
		return OpCopy, true
	case topology.Lines:
		return OpLines, true
	case topology.LineStrip:
		return OpLineStrip, true
	case topology.LineLoop:
		return OpLineLoop, true
	case topology.Triangles:
		return OpTriangles, true
	case topology.TriangleStrip:
		return OpTriangleStrip, true
	case topology.TriangleFan:
		return OpTriangleFan, true
	case topology.Quads:
		return OpQuads, true
	case topology.QuadStrip:
		return OpQuadStrip, true
	case topology.Polygon:
		return OpPolygon, true
	case topology.LinesAdjacency:
		return OpLinesAdjacency, true
	case topology.LineStripAdjacency:
		return OpLineStripAdjacency, true
	case topology.TrianglesAdjacency:
		return OpTrianglesAdjacency, true
	case topology.TriangleStripAdjacency:
		return OpTriangleStripAdjacency, true
	default:
		return 0, false
	}
}

func quadOp(t topology.Topology) (Op, bool) {
	switch t {
	case topology.Quads:
		return OpCopy, true
	case topology.QuadStrip:
		return OpQuadStripToQuads, true
	default:
		return 0, false
	}
}

func outlineOp(t topology.Topology) (Op, bool) {
	switch t {
	case topology.Triangles:
		return OpTrianglesToLines, true
	case topology.TriangleStrip:
		return OpTriangleStripToLines, true
	case topology.TriangleFan:
		return OpTriangleFanToLines, true
	case topology.Quads:
		return OpQuadsToLines, true
	case topology.QuadStrip:
		return OpQuadStripToLines, true
	case topology.Polygon:
		return OpPolygonToLines, true
	case topology.TrianglesAdjacency:
		return OpTrianglesAdjacencyToLines, true
	case topology.TriangleStripAdjacency:
		return OpTriangleStripAdjacencyToLines, true
	default:
		return 0, false
	}
}
