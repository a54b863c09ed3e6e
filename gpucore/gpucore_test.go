package gpucore

import (
	"errors"
	"testing"
)

func TestBufferRefCount(t *testing.T) {
	destroyed := 0
	b := NewBuffer(7, 64, BufferUsageIndex, "idx", func(*Buffer) { destroyed++ })

	if b.Refs() != 1 {
		t.Fatalf("Refs() = %d, want 1", b.Refs())
	}
	b.Reference()
	b.Release()
	if destroyed != 0 || !b.Live() {
		t.Fatalf("buffer destroyed with a reference outstanding")
	}
	b.Release()
	if destroyed != 1 {
		t.Errorf("destroy called %d times, want 1", destroyed)
	}
	if b.Live() {
		t.Error("Live() after last release")
	}
	if err := b.CheckRange(0, 4); !errors.Is(err, ErrReleased) {
		t.Errorf("CheckRange on released buffer = %v, want %v", err, ErrReleased)
	}

	var nilBuf *Buffer
	nilBuf.Release()
	if nilBuf.Reference() != nil {
		t.Error("nil Reference should return nil")
	}
}

func TestBufferCheckRange(t *testing.T) {
	b := NewBuffer(1, 16, BufferUsageVertex, "", nil)
	tests := []struct {
		off, n int
		ok     bool
	}{
		{0, 16, true},
		{8, 8, true},
		{8, 9, false},
		{-1, 2, false},
		{0, -1, false},
	}
	for _, tt := range tests {
		err := b.CheckRange(tt.off, tt.n)
		if tt.ok && err != nil {
			t.Errorf("CheckRange(%d, %d) = %v", tt.off, tt.n, err)
		}
		if !tt.ok && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("CheckRange(%d, %d) = %v, want %v", tt.off, tt.n, err, ErrOutOfRange)
		}
	}
}

type fakeMapping struct {
	data     []byte
	unmapped *int
}

func (m fakeMapping) Bytes() []byte { return m.data }
func (m fakeMapping) Unmap() error  { *m.unmapped++; return nil }

type fakeManager struct {
	unmapped int
	mapErr   error
}

func (f *fakeManager) CreateBuffer(size int, usage BufferUsage, label string) (*Buffer, error) {
	return NewBuffer(1, size, usage, label, nil), nil
}

func (f *fakeManager) MapForWrite(buf *Buffer, offset, length int) (Mapping, error) {
	if f.mapErr != nil {
		return nil, f.mapErr
	}
	return fakeMapping{data: make([]byte, length), unmapped: &f.unmapped}, nil
}

func (f *fakeManager) ReadBuffer(buf *Buffer, offset, length int) ([]byte, error) {
	return make([]byte, length), nil
}

func TestWithWriteMapping(t *testing.T) {
	mgr := &fakeManager{}
	buf, _ := mgr.CreateBuffer(8, BufferUsageIndex, "")

	if err := WithWriteMapping(mgr, buf, 0, 8, func(b []byte) error {
		if len(b) != 8 {
			t.Errorf("mapped %d bytes, want 8", len(b))
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	if err := WithWriteMapping(mgr, buf, 0, 8, func([]byte) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if mgr.unmapped != 2 {
		t.Errorf("unmapped %d times, want 2", mgr.unmapped)
	}

	mgr.mapErr = ErrOutOfRange
	called := false
	if err := WithWriteMapping(mgr, buf, 0, 8, func([]byte) error { called = true; return nil }); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("error = %v, want %v", err, ErrOutOfRange)
	}
	if called {
		t.Error("fn called after failed map")
	}
}

func TestSameBindings(t *testing.T) {
	a := NewBuffer(1, 64, BufferUsageVertex, "", nil)
	b := NewBuffer(2, 64, BufferUsageVertex, "", nil)

	base := []VertexBinding{{Buffer: a, Stride: 16}}
	tests := []struct {
		name  string
		other []VertexBinding
		want  bool
	}{
		{"identical", []VertexBinding{{Buffer: a, Stride: 16}}, true},
		{"other buffer", []VertexBinding{{Buffer: b, Stride: 16}}, false},
		{"stride", []VertexBinding{{Buffer: a, Stride: 12}}, false},
		{"offset", []VertexBinding{{Buffer: a, Stride: 16, Offset: 4}}, false},
		{"extra slot", []VertexBinding{{Buffer: a, Stride: 16}, {Buffer: b}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameBindings(base, tt.other); got != tt.want {
				t.Errorf("SameBindings() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBufferUsageString(t *testing.T) {
	if got := (BufferUsageIndex | BufferUsageCopyDst).String(); got != "copy-dst|index" {
		t.Errorf("String() = %q", got)
	}
	if got := BufferUsage(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if !(BufferUsageIndex | BufferUsageVertex).Contains(BufferUsageIndex) {
		t.Error("Contains(index) = false")
	}
}
