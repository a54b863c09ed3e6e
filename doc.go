// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package primconv turns API-level draw calls into commands a device with a
// reduced set of primitive topologies can execute.
//
// # Overview
//
// A draw names a topology (points through patches, including quads,
// polygons and adjacency forms), an optional index stream of 1, 2 or 4-byte
// indices, a provoking-vertex convention and a restart mode. The device
// consumes only the topologies in its topology.Caps, 2 or 4-byte indices and
// its own provoking vertex. For every draw the Context decides whether the
// indices can be reused as-is, must be generated from nothing or must be
// rewritten, and then hands the result to the device.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/primconv"
//	    "github.com/gogpu/primconv/recording"
//	)
//
//	dev := recording.NewDevice()
//	ctx, err := primconv.NewContext(dev)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Close()
//
//	// Four vertices drawn as one quad become two triangles.
//	err = ctx.Draw(vb, primconv.DrawInfo{Topology: topology.Quads, Count: 4})
//
// # Architecture
//
// The library is organized into:
//   - topology: topology enums, capability masks and count arithmetic
//   - indices: the conversion tables and the translate/generate decisions
//   - cache: reusable generated index buffers, bounded per topology
//   - batch: coalescing draws into one command for batching devices
//   - immediate: binding-diffing emission for immediate devices
//   - gpucore: buffer objects and the device collaborator interfaces
//   - backend, recording, backend/native: device implementations
//   - profile: YAML device profiles
//
// # Device Classes
//
// A batching device receives one gpucore.DrawPrimitives per flush. The
// Context flushes when the batch fills, when vertex bindings change, and
// when FlushForStateChange or Flush is called. An immediate device receives
// bind and draw commands per draw, with redundant rebinds skipped.
//
// # Buffer Lifetime
//
// Buffers are reference counted. Every queued draw and every cache slot
// holds its own reference, so cache eviction never frees an index buffer a
// pending draw still reads.
package primconv

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
