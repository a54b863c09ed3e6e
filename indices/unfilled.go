package indices

import (
	"fmt"

	"github.com/gogpu/primconv/topology"
)

// UnfilledMode selects how filled primitives are drawn when the device has
// no native polygon mode.
type UnfilledMode uint8

const (
	// UnfilledPoints draws every vertex as a point.
	UnfilledPoints UnfilledMode = iota
	// UnfilledLines draws every primitive edge as a line.
	UnfilledLines
)

func (m UnfilledMode) String() string {
	if m == UnfilledPoints {
		return "points"
	}
	return "lines"
}

// ParseUnfilledMode parses "points" or "lines".
func ParseUnfilledMode(name string) (UnfilledMode, error) {
	switch name {
	case "points":
		return UnfilledPoints, nil
	case "lines":
		return UnfilledLines, nil
	default:
		return 0, fmt.Errorf("indices: invalid unfilled mode %q", name)
	}
}

func checkUnfilled(t topology.Topology, count int) error {
	if !topology.IsTriangleFamily(t) {
		return fmt.Errorf("%w: %v", ErrNotTriangleFamily, t)
	}
	if count < topology.MinVertices(t) {
		return fmt.Errorf("%w: %v needs at least %d vertices, got %d",
			topology.ErrDegenerateCount, t, topology.MinVertices(t), count)
	}
	return nil
}

// TranslateUnfilled outlines an indexed triangle-family draw.
//
// In points mode the indices are reused as a point list, so the result is
// Memcpy with an output topology of points. In lines mode every edge becomes
// one line and the result is a Rewrite. Provoking vertex is irrelevant here.
func TranslateUnfilled(t topology.Topology, in topology.IndexWidth, count int,
	mode UnfilledMode, restart topology.RestartMode) (Translation, error) {
	if !in.IsValid() {
		return Translation{}, fmt.Errorf("%w: %d", topology.ErrInvalidIndexWidth, in)
	}
	if err := checkUnfilled(t, count); err != nil {
		return Translation{}, err
	}
	out := in.Promote()

	if mode == UnfilledPoints {
		return Translation{
			Kind:           Memcpy,
			OutputTopology: topology.Points,
			OutputWidth:    out,
			OutputCount:    count,
			Conversion:     Conversion{Op: OpCopy, In: in, Out: out, Restart: restart},
		}, nil
	}

	n, err := topology.UnfilledLineCount(t, count)
	if err != nil {
		return Translation{}, err
	}
	op, ok := unfilledTable[unfilledKey{t, in, out, restart}]
	if !ok {
		return Translation{}, fmt.Errorf("%w: unfilled %v %v", ErrNoConversion, t, in)
	}
	return Translation{
		Kind:           Rewrite,
		OutputTopology: topology.Lines,
		OutputWidth:    out,
		OutputCount:    n,
		Conversion:     Conversion{Op: op, In: in, Out: out, Restart: restart},
	}, nil
}

// GenerateUnfilled outlines a non-indexed triangle-family draw. Points mode
// is Linear. Lines mode is Reusable, except for polygons, whose closing edge
// makes them OneOff.
func GenerateUnfilled(t topology.Topology, start, count int, mode UnfilledMode) (Generation, error) {
	if start < 0 {
		return Generation{}, fmt.Errorf("%w: negative start %d", topology.ErrDegenerateCount, start)
	}
	if err := checkUnfilled(t, count); err != nil {
		return Generation{}, err
	}
	out := GenerateWidth(start, count)

	if mode == UnfilledPoints {
		return Generation{
			Kind:           Linear,
			OutputTopology: topology.Points,
			OutputWidth:    out,
			OutputCount:    count,
			Generator:      Generator{Op: OpCopy, Out: out},
		}, nil
	}

	n, err := topology.UnfilledLineCount(t, count)
	if err != nil {
		return Generation{}, err
	}
	op, ok := unfilledTable[unfilledKey{t, out, out, topology.RestartDisabled}]
	if !ok {
		return Generation{}, fmt.Errorf("%w: unfilled %v", ErrNoConversion, t)
	}
	return Generation{
		Kind:           generationKind(op, count),
		OutputTopology: topology.Lines,
		OutputWidth:    out,
		OutputCount:    n,
		Generator:      Generator{Op: op, Out: out},
	}, nil
}
