// Package recording provides an in-memory draw device.
//
// A recording Device implements gpucore.Device with host-memory buffers and
// appends every emitted command to a Log instead of sending it to hardware.
// It is used by tests and by the primconv command to show exactly which
// commands a sequence of draws produces.
//
// # Basic Usage
//
//	dev := recording.NewDevice(recording.WithCaps(topology.WebGPUCaps()))
//	ctx, err := primconv.NewContext(dev)
//	if err != nil {
//		log.Fatal(err)
//	}
//	// ... draws ...
//	ctx.Flush()
//	dev.Commands().WriteTo(os.Stdout)
//
// # Fault Injection
//
// WithBudget caps live buffer memory so allocations fail with
// gpucore.ErrOutOfMemory; FailResolve makes resolution of one buffer fail
// with gpucore.ErrResolve; FailEmit makes Emit fail.
//
// # Backend Registration
//
// Importing the package registers the "recording" backend:
//
//	import _ "github.com/gogpu/primconv/recording"
//
//	dev, _ := backend.Open("recording")
package recording
