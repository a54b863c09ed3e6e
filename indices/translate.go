package indices

import (
	"fmt"

	"github.com/gogpu/primconv/topology"
)

// Translation describes how to convert an indexed draw.
type Translation struct {
	Kind           TranslateKind
	OutputTopology topology.Topology
	OutputWidth    topology.IndexWidth
	OutputCount    int
	Conversion     Conversion
}

// Generation describes how to draw a non-indexed draw.
type Generation struct {
	Kind           GenerateKind
	OutputTopology topology.Topology
	OutputWidth    topology.IndexWidth
	OutputCount    int
	Generator      Generator
}

// Translate picks the conversion for count indices of width in drawn as t.
//
// The draw is Memcpy when the device supports t and the provoking-vertex
// conventions match. Otherwise the topology is reduced and the returned
// Conversion rewrites the stream. 1-byte input always widens to 2 bytes.
func Translate(caps topology.Caps, t topology.Topology, in topology.IndexWidth, count int,
	inPV, outPV topology.ProvokingVertex, restart topology.RestartMode) (Translation, error) {
	if !in.IsValid() {
		return Translation{}, fmt.Errorf("%w: %d", topology.ErrInvalidIndexWidth, in)
	}
	pvMatches := inPV == outPV
	n, err := topology.ElementCount(caps, pvMatches, t, count)
	if err != nil {
		return Translation{}, err
	}
	out := in.Promote()

	if caps.Supports(t) && pvMatches {
		return Translation{
			Kind:           Memcpy,
			OutputTopology: t,
			OutputWidth:    out,
			OutputCount:    n,
			Conversion:     Conversion{Op: OpCopy, In: in, Out: out, InPV: inPV, OutPV: outPV, Restart: restart},
		}, nil
	}

	outTopo, err := topology.Reduce(caps, t, pvMatches)
	if err != nil {
		return Translation{}, err
	}
	k := translateKey{t, in, out, inPV, outPV, restart}
	table := translateTable
	if outTopo == topology.Quads {
		table = translateQuadTable
	}
	op, ok := table[k]
	if !ok {
		return Translation{}, fmt.Errorf("%w: %v %v>%v pv=%v>%v", ErrNoConversion, t, in, out, inPV, outPV)
	}
	return Translation{
		Kind:           Rewrite,
		OutputTopology: outTopo,
		OutputWidth:    out,
		OutputCount:    n,
		Conversion:     Conversion{Op: op, In: in, Out: out, InPV: inPV, OutPV: outPV, Restart: restart},
	}, nil
}

// GenerateWidth returns the index width needed for vertices up to
// start+count-1.
func GenerateWidth(start, count int) topology.IndexWidth {
	if start+count > topology.MaxShortIndex {
		return topology.Width32
	}
	return topology.Width16
}

// Generate picks the generator for count vertices of t starting at start.
//
// Natively supported draws with matching conventions are Linear. Line loops,
// triangle strips with adjacency and odd-count quad strips are OneOff because
// their last primitive depends on the exact count. Every other conversion is
// Reusable.
func Generate(caps topology.Caps, t topology.Topology, start, count int,
	inPV, outPV topology.ProvokingVertex) (Generation, error) {
	if start < 0 {
		return Generation{}, fmt.Errorf("%w: negative start %d", topology.ErrDegenerateCount, start)
	}
	pvMatches := inPV == outPV
	n, err := topology.ElementCount(caps, pvMatches, t, count)
	if err != nil {
		return Generation{}, err
	}
	out := GenerateWidth(start, count)

	if caps.Supports(t) && pvMatches {
		return Generation{
			Kind:           Linear,
			OutputTopology: t,
			OutputWidth:    out,
			OutputCount:    n,
			Generator:      Generator{Op: OpCopy, Out: out, InPV: inPV, OutPV: outPV},
		}, nil
	}

	outTopo, err := topology.Reduce(caps, t, pvMatches)
	if err != nil {
		return Generation{}, err
	}
	k := generateKey{t, out, inPV, outPV}
	table := generateTable
	if outTopo == topology.Quads {
		table = generateQuadTable
	}
	op, ok := table[k]
	if !ok {
		return Generation{}, fmt.Errorf("%w: %v %v pv=%v>%v", ErrNoConversion, t, out, inPV, outPV)
	}

	return Generation{
		Kind:           generationKind(op, count),
		OutputTopology: outTopo,
		OutputWidth:    out,
		OutputCount:    n,
		Generator:      Generator{Op: op, Out: out, InPV: inPV, OutPV: outPV},
	}, nil
}
