// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package indices converts API-level draws into index streams a device can
// consume.
//
// Translate rewrites an existing index buffer, Generate synthesizes indices
// for a non-indexed draw, and TranslateUnfilled/GenerateUnfilled outline
// filled primitives as points or lines. Each returns a small descriptor naming
// the output topology, width and count together with a comparable Conversion
// or Generator value. The descriptor is pure; the actual bytes are produced by
// Conversion.Apply or Generator.Fill into caller-provided memory.
//
// Indices are little-endian. Output widths are 2 or 4 bytes; 1-byte input is
// always widened. When restart is enabled, sentinels in the input are honored
// and unused output slots are filled with the output-width sentinel.
package indices

import (
	"errors"
	"fmt"

	"github.com/gogpu/primconv/topology"
)

// Errors returned by the conversion engine.
var (
	// ErrNoConversion is returned when no strategy exists for a combination.
	// The tables are exhaustive, so this signals an invalid argument.
	ErrNoConversion = errors.New("indices: no conversion for combination")

	// ErrNotTriangleFamily is returned by the unfilled fallback for topologies
	// that do not assemble filled polygons.
	ErrNotTriangleFamily = errors.New("indices: topology is not a triangle family")

	// ErrShortBuffer is returned when an input or output slice is too small.
	ErrShortBuffer = errors.New("indices: short buffer")
)

// TranslateKind describes how an existing index buffer is handled.
type TranslateKind uint8

const (
	// Memcpy means the indices are valid as-is, modulo 1-byte widening.
	Memcpy TranslateKind = iota
	// Rewrite means the indices must be converted with Conversion.Apply.
	Rewrite
)

func (k TranslateKind) String() string {
	if k == Memcpy {
		return "memcpy"
	}
	return "rewrite"
}

// GenerateKind describes how a non-indexed draw is handled.
type GenerateKind uint8

const (
	// Linear means the draw can be issued without indices.
	Linear GenerateKind = iota
	// Reusable means the generated buffer depends only on the count and any
	// prefix of a larger buffer is a valid answer.
	Reusable
	// OneOff means the buffer is only valid for the exact count, as for a
	// closing line-loop segment.
	OneOff
)

func (k GenerateKind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Reusable:
		return "reusable"
	case OneOff:
		return "one-off"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Conversion rewrites an index stream. It is comparable and carries no
// state, so equal values produce equal output.
type Conversion struct {
	Op      Op
	In      topology.IndexWidth
	Out     topology.IndexWidth
	InPV    topology.ProvokingVertex
	OutPV   topology.ProvokingVertex
	Restart topology.RestartMode
}

func (c Conversion) String() string {
	return fmt.Sprintf("%v %v>%v pv=%v>%v restart=%v", c.Op, c.In, c.Out, c.InPV, c.OutPV, c.Restart)
}

// Apply reads count indices starting at element start of in and writes the
// converted stream into out. len(out) must hold the OutputCount reported by
// the Translation, times the output width.
func (c Conversion) Apply(in []byte, start, count int, out []byte) error {
	if !c.In.IsValid() || (c.Out != topology.Width16 && c.Out != topology.Width32) {
		return fmt.Errorf("%w: %v", ErrNoConversion, c)
	}
	if start < 0 || count < 0 || len(in) < (start+count)*c.In.Bytes() {
		return fmt.Errorf("%w: input holds %d bytes, need %d",
			ErrShortBuffer, len(in), (start+count)*c.In.Bytes())
	}
	src := source{data: in, width: c.In, base: start}
	return emit(c.Op, src, count, c.InPV, c.OutPV, c.Restart == topology.RestartEnabled, c.Out, out)
}

// Generator synthesizes an index stream for a non-indexed draw. It is
// comparable; its identity is what index caches key on.
type Generator struct {
	Op    Op
	Out   topology.IndexWidth
	InPV  topology.ProvokingVertex
	OutPV topology.ProvokingVertex
}

func (g Generator) String() string {
	return fmt.Sprintf("%v %v pv=%v>%v", g.Op, g.Out, g.InPV, g.OutPV)
}

// Fill writes the indices for vertices start..start+count-1 into out.
func (g Generator) Fill(start, count int, out []byte) error {
	if g.Out != topology.Width16 && g.Out != topology.Width32 {
		return fmt.Errorf("%w: %v", ErrNoConversion, g)
	}
	if start < 0 || count < 0 {
		return fmt.Errorf("%w: start=%d count=%d", ErrShortBuffer, start, count)
	}
	src := source{first: uint32(start), linear: true}
	return emit(g.Op, src, count, g.InPV, g.OutPV, false, g.Out, out)
}

func emit(op Op, src source, count int, inPV, outPV topology.ProvokingVertex,
	restart bool, width topology.IndexWidth, out []byte) error {
	if len(out)%width.Bytes() != 0 {
		return fmt.Errorf("%w: output length %d is not a multiple of %v", ErrShortBuffer, len(out), width)
	}
	w := &writer{data: out, width: width}
	run(op, src, count, restart, &emitter{w: w, inPV: inPV, outPV: outPV})
	if w.overflow {
		return fmt.Errorf("%w: output holds %d indices", ErrShortBuffer, w.cap())
	}
	w.pad(restart)
	return nil
}
