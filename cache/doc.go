// Package cache provides the index cache: a small, fixed-capacity store of
// generated index buffers.
//
// Slots are grouped per topology and keyed by generator identity. A buffer
// generated for a larger vertex count serves any smaller request of a
// reusable generation; one-off generations (line loops) only match on the
// exact count. When every slot of a topology is taken, the slot with the
// smallest cached count is evicted.
//
// The cache holds one reference on each slot's buffer. Acquire hands the
// caller a buffer carrying its own reference, so evicting a slot never frees
// a buffer a queued draw still uses.
//
// IndexCache is owned by a single draw context and performs no locking.
package cache
