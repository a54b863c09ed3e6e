package indices

import "fmt"

// Op is a conversion strategy: the rule that turns the vertices of one input
// topology into indices of the output topology.
//
// Op values are selected from static tables and are part of the identity of a
// Conversion or Generator.
type Op uint8

// Conversion strategies.
const (
	// OpCopy copies indices unchanged, widening 1-byte input to 2 bytes.
	OpCopy Op = iota
	OpLines
	OpLineStrip
	OpLineLoop
	OpTriangles
	OpTriangleStrip
	OpTriangleFan
	OpQuads
	OpQuadStrip
	OpQuadStripToQuads
	OpPolygon
	OpLinesAdjacency
	OpLineStripAdjacency
	OpTrianglesAdjacency
	OpTriangleStripAdjacency

	// Outline strategies used by the unfilled fallback.
	OpTrianglesToLines
	OpTriangleStripToLines
	OpTriangleFanToLines
	OpQuadsToLines
	OpQuadStripToLines
	OpPolygonToLines
	OpTrianglesAdjacencyToLines
	OpTriangleStripAdjacencyToLines

	numOps
)

var opNames = [numOps]string{
	OpCopy:                          "copy",
	OpLines:                         "lines",
	OpLineStrip:                     "line-strip",
	OpLineLoop:                      "line-loop",
	OpTriangles:                     "triangles",
	OpTriangleStrip:                 "triangle-strip",
	OpTriangleFan:                   "triangle-fan",
	OpQuads:                         "quads",
	OpQuadStrip:                     "quad-strip",
	OpQuadStripToQuads:              "quad-strip>quads",
	OpPolygon:                       "polygon",
	OpLinesAdjacency:                "lines-adjacency",
	OpLineStripAdjacency:            "line-strip-adjacency",
	OpTrianglesAdjacency:            "triangles-adjacency",
	OpTriangleStripAdjacency:        "triangle-strip-adjacency",
	OpTrianglesToLines:              "triangles>lines",
	OpTriangleStripToLines:          "triangle-strip>lines",
	OpTriangleFanToLines:            "triangle-fan>lines",
	OpQuadsToLines:                  "quads>lines",
	OpQuadStripToLines:              "quad-strip>lines",
	OpPolygonToLines:                "polygon>lines",
	OpTrianglesAdjacencyToLines:     "triangles-adjacency>lines",
	OpTriangleStripAdjacencyToLines: "triangle-strip-adjacency>lines",
}

// String returns the strategy name.
func (op Op) String() string {
	if op < numOps {
		return opNames[op]
	}
	return fmt.Sprintf("Unknown(%d)", int(op))
}

// exactCount reports whether the output of op for n vertices is not a prefix
// of its output for more vertices. The closing edge of loops and polygon
// outlines and the end-of-strip adjacency tuples depend on the total count.
func (op Op) exactCount() bool {
	switch op {
	case OpLineLoop, OpTriangleStripAdjacency, OpPolygonToLines:
		return true
	}
	return false
}

// generationKind classifies a non-linear generator for count vertices.
//
// An odd quad-strip count is padded up to the element count with degenerate
// triangles or quads, where a larger buffer holds the next real primitive.
func generationKind(op Op, count int) GenerateKind {
	switch {
	case op.exactCount():
		return OneOff
	case (op == OpQuadStrip || op == OpQuadStripToQuads) && count%2 == 1:
		return OneOff
	}
	return Reusable
}
