// Package backend provides a registry of pluggable draw devices.
//
// A device is a gpucore.Device that also reports its capability mask and
// native provoking-vertex convention. Backends register a factory from
// init(), following the database/sql driver pattern:
//
//	import _ "github.com/gogpu/primconv/recording"
//
//	dev, err := backend.Open("recording")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
// # Available Backends
//
// - "recording": in-memory device that logs commands (package recording)
// - "noop": wgpu HAL device on the noop API (package backend/native)
package backend
