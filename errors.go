package primconv

import (
	"errors"

	"github.com/gogpu/primconv/batch"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/indices"
	"github.com/gogpu/primconv/topology"
)

// Errors returned by Context. The sub-package sentinels are re-exported so
// callers can match with errors.Is without importing every package.
var (
	ErrUnsupportedTopology = topology.ErrUnsupportedTopology
	ErrDegenerateCount     = topology.ErrDegenerateCount
	ErrInvalidIndexWidth   = topology.ErrInvalidIndexWidth
	ErrNoConversion        = indices.ErrNoConversion
	ErrNotTriangleFamily   = indices.ErrNotTriangleFamily
	ErrOutOfMemory         = gpucore.ErrOutOfMemory
	ErrResolve             = gpucore.ErrResolve

	// ErrNilDevice is returned by NewContext without a device.
	ErrNilDevice = errors.New("primconv: nil device")

	// ErrClosed is returned by operations on a closed Context.
	ErrClosed = errors.New("primconv: context closed")

	// ErrInvalidIndexData is returned when a draw's index data names
	// neither or both of a buffer and client memory, or is too short.
	ErrInvalidIndexData = errors.New("primconv: invalid index data")
)

// FlushError reports a batch flush that failed to resolve its buffers.
type FlushError = batch.FlushError
