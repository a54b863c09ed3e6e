package gpucore

import (
	"errors"
	"strings"
)

// Errors reported by collaborators.
var (
	// ErrOutOfMemory is returned when a buffer cannot be allocated.
	// The draw that needed the buffer is abandoned.
	ErrOutOfMemory = errors.New("gpucore: out of memory")

	// ErrResolve is returned when a buffer object cannot be resolved to a
	// device-resident handle.
	ErrResolve = errors.New("gpucore: buffer resolution failed")

	// ErrReleased is returned when a buffer is used after its last reference
	// was dropped.
	ErrReleased = errors.New("gpucore: buffer released")

	// ErrOutOfRange is returned when a mapping or read exceeds the buffer.
	ErrOutOfRange = errors.New("gpucore: range out of bounds")
)

// BufferID is an opaque handle to a buffer object.
// Each device implementation maintains the mapping between IDs and
// backend resources.
type BufferID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID BufferID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageIndex indicates the buffer can be used as an index buffer.
	BufferUsageIndex BufferUsage = 1 << 4

	// BufferUsageVertex indicates the buffer can be used as a vertex buffer.
	BufferUsageVertex BufferUsage = 1 << 5
)

var usageNames = []struct {
	bit  BufferUsage
	name string
}{
	{BufferUsageMapRead, "map-read"},
	{BufferUsageMapWrite, "map-write"},
	{BufferUsageCopySrc, "copy-src"},
	{BufferUsageCopyDst, "copy-dst"},
	{BufferUsageIndex, "index"},
	{BufferUsageVertex, "vertex"},
}

// String renders the set bits joined by "|".
func (u BufferUsage) String() string {
	if u == 0 {
		return "none"
	}
	var parts []string
	for _, n := range usageNames {
		if u&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Contains reports whether every bit of want is set in u.
func (u BufferUsage) Contains(want BufferUsage) bool {
	return u&want == want
}

// DeviceHandle is a device-resident buffer reference produced by a Resolver.
// Native carries the backend object, for example a hal.Buffer.
type DeviceHandle struct {
	Buffer BufferID
	Native any
}

// IsValid reports whether h refers to a buffer.
func (h DeviceHandle) IsValid() bool {
	return h.Buffer != InvalidID
}
