// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package topology defines primitive topologies, provoking-vertex conventions,
// index widths and the pure reduction/count rules used to map an API draw onto
// the reduced topology set a device can consume.
package topology

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the topology rules.
var (
	// ErrUnsupportedTopology is returned when no reduction rule matches.
	// It indicates an invalid Topology value and is never retried.
	ErrUnsupportedTopology = errors.New("topology: unsupported topology")

	// ErrDegenerateCount is returned when a vertex count is below the minimum
	// valid for the topology.
	ErrDegenerateCount = errors.New("topology: degenerate vertex count")

	// ErrInvalidIndexWidth is returned for index widths other than 1, 2 and 4.
	ErrInvalidIndexWidth = errors.New("topology: invalid index width")
)

// Topology is the primitive-assembly rule of a draw.
type Topology uint8

// Supported topologies.
const (
	Points Topology = iota
	Lines
	LineStrip
	LineLoop
	Triangles
	TriangleStrip
	TriangleFan
	Quads
	QuadStrip
	Polygon
	LinesAdjacency
	LineStripAdjacency
	TrianglesAdjacency
	TriangleStripAdjacency
	Patches

	// Count is the number of valid topologies.
	Count
)

var topologyNames = [Count]string{
	Points:                 "points",
	Lines:                  "lines",
	LineStrip:              "line-strip",
	LineLoop:               "line-loop",
	Triangles:              "triangles",
	TriangleStrip:          "triangle-strip",
	TriangleFan:            "triangle-fan",
	Quads:                  "quads",
	QuadStrip:              "quad-strip",
	Polygon:                "polygon",
	LinesAdjacency:         "lines-adjacency",
	LineStripAdjacency:     "line-strip-adjacency",
	TrianglesAdjacency:     "triangles-adjacency",
	TriangleStripAdjacency: "triangle-strip-adjacency",
	Patches:                "patches",
}

// String returns the canonical lower-case name of the topology.
func (t Topology) String() string {
	if t < Count {
		return topologyNames[t]
	}
	return fmt.Sprintf("Unknown(%d)", int(t))
}

// IsValid reports whether t is one of the defined topologies.
func (t Topology) IsValid() bool {
	return t < Count
}

// ParseTopology parses a topology name as produced by String.
// Underscores are accepted in place of dashes.
func ParseTopology(name string) (Topology, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
	for i, s := range topologyNames {
		if s == n {
			return Topology(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedTopology, name)
}

// All returns every valid topology in declaration order.
func All() []Topology {
	out := make([]Topology, 0, Count)
	for t := Points; t < Count; t++ {
		out = append(out, t)
	}
	return out
}

// IsTriangleFamily reports whether t assembles filled polygons, i.e. whether
// it reduces to triangles (or triangles-adjacency) on any device.
func IsTriangleFamily(t Topology) bool {
	switch t {
	case Triangles, TriangleStrip, TriangleFan, Quads, QuadStrip, Polygon,
		TrianglesAdjacency, TriangleStripAdjacency:
		return true
	default:
		return false
	}
}

// ProvokingVertex selects which vertex of a primitive supplies flat-shaded
// attributes.
type ProvokingVertex uint8

// Provoking-vertex conventions.
const (
	First ProvokingVertex = iota
	Last
)

// String returns "first" or "last".
func (pv ProvokingVertex) String() string {
	switch pv {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return fmt.Sprintf("Unknown(%d)", int(pv))
	}
}

// ParseProvokingVertex parses "first" or "last".
func ParseProvokingVertex(name string) (ProvokingVertex, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "first":
		return First, nil
	case "last":
		return Last, nil
	default:
		return 0, fmt.Errorf("topology: invalid provoking vertex %q", name)
	}
}

// RestartMode selects whether the index stream contains restart sentinels.
type RestartMode uint8

// Restart modes.
const (
	RestartDisabled RestartMode = iota
	RestartEnabled
)

// String returns "disabled" or "enabled".
func (m RestartMode) String() string {
	if m == RestartEnabled {
		return "enabled"
	}
	return "disabled"
}
