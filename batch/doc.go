// Package batch coalesces logical draws into batched device commands.
//
// A Batcher keeps one open batch of up to Capacity ranges that share a set
// of vertex bindings. The batch is flushed when it fills, when a submit
// arrives with different bindings, or when the owner asks for it before a
// state change. A flush resolves every buffer first and only then emits a
// single gpucore.DrawPrimitives command, so a failed resolution leaves the
// device untouched and the batch ready for a retry.
//
// Queued ranges own references on their index buffers and the batch owns
// references on its vertex buffers. Evicting an index buffer from a cache
// therefore never frees memory a pending range still draws from.
package batch
