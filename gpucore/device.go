package gpucore

// BufferManager creates and accesses buffer objects.
//
// Implementations are used from a single context and need not be
// thread-safe.
type BufferManager interface {
	// CreateBuffer allocates a buffer of size bytes.
	// Returns an error wrapping ErrOutOfMemory if allocation fails.
	CreateBuffer(size int, usage BufferUsage, label string) (*Buffer, error)

	// MapForWrite returns a writable view of [offset, offset+length).
	// The view must be released with Mapping.Unmap; WithWriteMapping does
	// this on every exit path.
	MapForWrite(buf *Buffer, offset, length int) (Mapping, error)

	// ReadBuffer returns a copy of [offset, offset+length).
	// Used to read source indices for translation.
	ReadBuffer(buf *Buffer, offset, length int) ([]byte, error)
}

// Mapping is a writable view of part of a buffer.
type Mapping interface {
	// Bytes returns the mapped memory. It is only valid until Unmap.
	Bytes() []byte

	// Unmap publishes the written bytes to the device and ends the mapping.
	Unmap() error
}

// Resolver turns buffer objects into device-resident handles.
type Resolver interface {
	// Resolve returns the device handle for buf.
	// Returns an error wrapping ErrResolve on failure.
	Resolve(buf *Buffer, usage BufferUsage) (DeviceHandle, error)
}

// Emitter accepts decided commands. Emit may block while the host-side
// command buffer drains; it is never cancelled.
type Emitter interface {
	Emit(cmd Command) error
}

// Device combines the collaborators a draw context needs.
type Device interface {
	BufferManager
	Resolver
	Emitter
}

// WithWriteMapping maps [offset, offset+length) of buf, calls fn with the
// mapped bytes and unmaps, including when fn fails. The first error wins.
func WithWriteMapping(mgr BufferManager, buf *Buffer, offset, length int, fn func([]byte) error) (err error) {
	m, err := mgr.MapForWrite(buf, offset, length)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := m.Unmap(); err == nil {
			err = uerr
		}
	}()
	return fn(m.Bytes())
}
