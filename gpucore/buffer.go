package gpucore

import (
	"fmt"
	"sync/atomic"
)

// Buffer is a reference-counted buffer object.
//
// A new Buffer carries one reference owned by its creator. Every holder that
// keeps the buffer beyond the current call takes its own reference with
// Reference and drops it with Release. The last Release destroys the buffer
// through the callback supplied by its manager.
type Buffer struct {
	id      BufferID
	size    int
	usage   BufferUsage
	label   string
	refs    atomic.Int32
	destroy func(*Buffer)
}

// NewBuffer creates a buffer object with one reference. Device
// implementations call it from CreateBuffer; destroy runs once, when the
// last reference is released, and may be nil.
func NewBuffer(id BufferID, size int, usage BufferUsage, label string, destroy func(*Buffer)) *Buffer {
	b := &Buffer{id: id, size: size, usage: usage, label: label, destroy: destroy}
	b.refs.Store(1)
	return b
}

// ID returns the buffer's opaque identifier.
func (b *Buffer) ID() BufferID { return b.id }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() int { return b.size }

// Usage returns the usage flags the buffer was created with.
func (b *Buffer) Usage() BufferUsage { return b.usage }

// Label returns the debug label.
func (b *Buffer) Label() string { return b.label }

// Refs returns the current reference count.
func (b *Buffer) Refs() int { return int(b.refs.Load()) }

// Live reports whether the buffer still has references.
func (b *Buffer) Live() bool { return b != nil && b.refs.Load() > 0 }

// Reference takes an additional reference and returns b for chaining.
// A nil buffer is returned unchanged.
func (b *Buffer) Reference() *Buffer {
	if b == nil {
		return nil
	}
	if b.refs.Add(1) <= 1 {
		panic(fmt.Sprintf("gpucore: Reference on released buffer %d", b.id))
	}
	return b
}

// Release drops one reference. Releasing a nil buffer is a no-op.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	switch n := b.refs.Add(-1); {
	case n == 0:
		if b.destroy != nil {
			b.destroy(b)
		}
	case n < 0:
		panic(fmt.Sprintf("gpucore: Release on released buffer %d", b.id))
	}
}

func (b *Buffer) String() string {
	if b == nil {
		return "buffer(nil)"
	}
	if b.label != "" {
		return fmt.Sprintf("buffer(%d %q %dB)", b.id, b.label, b.size)
	}
	return fmt.Sprintf("buffer(%d %dB)", b.id, b.size)
}

// CheckRange validates [offset, offset+length) against the buffer size.
func (b *Buffer) CheckRange(offset, length int) error {
	if !b.Live() {
		return fmt.Errorf("%w: %v", ErrReleased, b)
	}
	if offset < 0 || length < 0 || offset+length > b.size {
		return fmt.Errorf("%w: [%d,%d) of %v", ErrOutOfRange, offset, offset+length, b)
	}
	return nil
}
