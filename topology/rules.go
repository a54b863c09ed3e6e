package topology

import "fmt"

// Reduce maps t to the most specific topology the device can draw.
//
// If t is supported and the provoking-vertex conventions match, t is
// returned unchanged. Otherwise a fixed reduction applies. Reduce is total
// over valid topologies and fails with ErrUnsupportedTopology for anything
// else.
func Reduce(caps Caps, t Topology, pvMatches bool) (Topology, error) {
	if caps.Supports(t) && pvMatches {
		return t, nil
	}

	switch t {
	case Points:
		return Points, nil
	case Lines, LineStrip, LineLoop:
		return Lines, nil
	case Quads, QuadStrip:
		if caps.NativeQuads() && pvMatches {
			return Quads, nil
		}
		return Triangles, nil
	case Triangles, TriangleStrip, TriangleFan, Polygon:
		return Triangles, nil
	case LinesAdjacency, LineStripAdjacency:
		return LinesAdjacency, nil
	case TrianglesAdjacency, TriangleStripAdjacency:
		return TrianglesAdjacency, nil
	case Patches:
		return Patches, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedTopology, t)
	}
}

// MinVertices returns the smallest vertex count that describes at least one
// primitive of topology t, or 0 for invalid topologies.
func MinVertices(t Topology) int {
	switch t {
	case Points, Patches:
		return 1
	case Lines, LineStrip, LineLoop:
		return 2
	case Triangles, TriangleStrip, TriangleFan, Polygon:
		return 3
	case Quads, QuadStrip, LinesAdjacency, LineStripAdjacency:
		return 4
	case TrianglesAdjacency, TriangleStripAdjacency:
		return 6
	default:
		return 0
	}
}

func checkCount(t Topology, n int) error {
	if !t.IsValid() {
		return fmt.Errorf("%w: %v", ErrUnsupportedTopology, t)
	}
	if n < MinVertices(t) {
		return fmt.Errorf("%w: %v needs at least %d vertices, got %d",
			ErrDegenerateCount, t, MinVertices(t), n)
	}
	return nil
}

// ElementCount returns the number of output indices produced when n input
// vertices of topology t are converted for a device with caps.
//
// The arithmetic is exact; divisions floor. Counts below MinVertices(t) are a
// caller error and fail with ErrDegenerateCount.
func ElementCount(caps Caps, pvMatches bool, t Topology, n int) (int, error) {
	if err := checkCount(t, n); err != nil {
		return 0, err
	}
	if caps.Supports(t) && pvMatches {
		return n, nil
	}

	quads := caps.NativeQuads() && pvMatches
	switch t {
	case Points, Lines, Triangles, LinesAdjacency, TrianglesAdjacency, Patches:
		return n, nil
	case LineStrip:
		return (n - 1) * 2, nil
	case LineLoop:
		return n * 2, nil
	case TriangleStrip, TriangleFan, Polygon:
		return (n - 2) * 3, nil
	case Quads:
		if quads {
			return n, nil
		}
		return (n / 4) * 6, nil
	case QuadStrip:
		if quads {
			return (n - 2) * 2, nil
		}
		return (n - 2) * 3, nil
	case LineStripAdjacency:
		return (n - 3) * 4, nil
	case TriangleStripAdjacency:
		return ((n - 4) / 2) * 6, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnsupportedTopology, t)
}

// UnfilledLineCount returns the number of line indices needed to outline n
// vertices of a triangle-family topology, one line per primitive edge.
func UnfilledLineCount(t Topology, n int) (int, error) {
	if err := checkCount(t, n); err != nil {
		return 0, err
	}
	switch t {
	case Triangles:
		return (n / 3) * 6, nil
	case TriangleStrip, TriangleFan:
		return (n - 2) * 6, nil
	case Quads:
		return (n / 4) * 8, nil
	case QuadStrip:
		return ((n - 2) / 2) * 8, nil
	case Polygon:
		return 2 * n, nil
	case TrianglesAdjacency:
		return (n / 6) * 6, nil
	case TriangleStripAdjacency:
		return ((n - 4) / 2) * 6, nil
	default:
		return 0, fmt.Errorf("%w: %v is not a filled topology", ErrUnsupportedTopology, t)
	}
}

// PrimitiveCount returns the number of primitives n vertices of t describe.
// Counts below MinVertices(t) describe no primitives.
func PrimitiveCount(t Topology, n int) int {
	if n < MinVertices(t) || !t.IsValid() {
		return 0
	}
	switch t {
	case Points, LineLoop, Patches:
		return n
	case Lines:
		return n / 2
	case LineStrip:
		return n - 1
	case Triangles:
		return n / 3
	case TriangleStrip, TriangleFan:
		return n - 2
	case Quads:
		return n / 4
	case QuadStrip:
		return (n - 2) / 2
	case Polygon:
		return 1
	case LinesAdjacency:
		return n / 4
	case LineStripAdjacency:
		return n - 3
	case TrianglesAdjacency:
		return n / 6
	case TriangleStripAdjacency:
		return (n - 4) / 2
	}
	return 0
}
