// Package gpucore defines the collaborator contracts the draw pipeline
// consumes: buffer objects, buffer management, resolution to device handles
// and command emission.
//
// The pipeline never talks to a graphics API directly. A [Device] combines
// the three collaborators:
//
//	+---------------------+
//	|   primconv.Context  |
//	+----------+----------+
//	           |
//	+----------v----------+
//	|   gpucore.Device    |
//	| BufferManager       |
//	| Resolver            |
//	| Emitter             |
//	+----------+----------+
//	           |
//	  +--------+---------+
//	  |                  |
//	+-v--------------+ +-v--------------+
//	| backend/native | |   recording    |
//	| (wgpu HAL)     | | (in-memory)    |
//	+----------------+ +----------------+
//
// # Resource Management
//
// Buffers are reference counted. The creator owns the first reference; the
// index cache, the draw batcher and the immediate emitter each hold their own
// references for as long as they keep a buffer, so a cache eviction never
// frees a buffer that a queued range still points at. The last
// [Buffer.Release] destroys the buffer through its manager.
//
// # Commands
//
// Commands carry already-resolved [DeviceHandle] values. Immediate devices
// receive [SetVertexBuffers], [SetIndexBuffer], [DrawIndexed] and [Draw];
// batching devices receive one [DrawPrimitives] per flush.
package gpucore
