package primconv

import (
	"encoding/binary"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/recording"
	"github.com/gogpu/primconv/topology"
)

// snoopDevice records the contents of every index buffer when it is bound,
// since translated buffers are released right after the draw.
type snoopDevice struct {
	*recording.Device
	bound [][]byte
}

func newSnoop(opts ...recording.Option) *snoopDevice {
	return &snoopDevice{Device: recording.NewDevice(opts...)}
}

func (s *snoopDevice) Emit(cmd gpucore.Command) error {
	switch c := cmd.(type) {
	case gpucore.SetIndexBuffer:
		s.bound = append(s.bound, s.Contents(c.Handle.Buffer))
	case gpucore.DrawPrimitives:
		for _, r := range c.Ranges {
			if r.Indexed() {
				s.bound = append(s.bound, s.Contents(r.Index.Buffer)[r.IndexOffset:])
			}
		}
	}
	return s.Device.Emit(cmd)
}

func (s *snoopDevice) last() []byte {
	if len(s.bound) == 0 {
		return nil
	}
	return s.bound[len(s.bound)-1]
}

func decode(data []byte, w topology.IndexWidth, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		switch w {
		case topology.Width16:
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		case topology.Width32:
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	}
	return out
}

func u16(vals ...uint16) []byte {
	out := make([]byte, len(vals)*2)
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func newContext(t *testing.T, dev gpucore.Device, opts ...Option) *Context {
	t.Helper()
	c, err := NewContext(dev, opts...)
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return c
}

func vertexBuffer(t *testing.T, dev gpucore.BufferManager) []gpucore.VertexBinding {
	t.Helper()
	buf, err := dev.CreateBuffer(1024, gpucore.BufferUsageVertex, "vb")
	if err != nil {
		t.Fatal(err)
	}
	return []gpucore.VertexBinding{{Buffer: buf, Stride: 16}}
}

func lastCommand(dev *recording.Device) gpucore.Command {
	log := dev.Commands()
	return log[len(log)-1]
}

func TestNewContext(t *testing.T) {
	if _, err := NewContext(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewContext(nil) error = %v, want %v", err, ErrNilDevice)
	}

	caps := topology.NewCaps(topology.Points, topology.Lines, topology.Triangles).WithNativeQuads(true)
	dev := recording.NewDevice(recording.WithCaps(caps), recording.WithProvokingVertex(topology.Last))
	c := newContext(t, dev)
	if c.Caps() != caps || c.ProvokingVertex() != topology.Last {
		t.Errorf("device description ignored: caps=%v pv=%v", c.Caps(), c.ProvokingVertex())
	}
	if c.DeviceClass() != Immediate {
		t.Errorf("DeviceClass() = %v, want immediate", c.DeviceClass())
	}

	c = newContext(t, dev, WithProvokingVertex(topology.First), WithCaps(topology.WebGPUCaps()))
	if c.ProvokingVertex() != topology.First || c.Caps() != topology.WebGPUCaps() {
		t.Error("options did not override the device description")
	}
}

func TestDrawNonIndexed(t *testing.T) {
	tests := []struct {
		name     string
		info     DrawInfo
		opts     []Option
		wantCmd  string
		wantTopo topology.Topology
		want     []uint32
		wantBias int32
	}{
		{
			name:     "native triangles",
			info:     DrawInfo{Topology: topology.Triangles, Start: 3, Count: 6},
			wantCmd:  recording.NameDraw,
			wantTopo: topology.Triangles,
		},
		{
			name:     "quads",
			info:     DrawInfo{Topology: topology.Quads, Count: 4},
			wantCmd:  recording.NameDrawIndexed,
			wantTopo: topology.Triangles,
			want:     []uint32{0, 1, 2, 0, 2, 3},
		},
		{
			name:     "fan with start",
			info:     DrawInfo{Topology: topology.TriangleFan, Start: 10, Count: 5},
			wantCmd:  recording.NameDrawIndexed,
			wantTopo: topology.Triangles,
			want:     []uint32{1, 2, 0, 2, 3, 0, 3, 4, 0},
			wantBias: 10,
		},
		{
			name:     "line loop",
			info:     DrawInfo{Topology: topology.LineLoop, Count: 3},
			wantCmd:  recording.NameDrawIndexed,
			wantTopo: topology.Lines,
			want:     []uint32{0, 1, 1, 2, 2, 0},
		},
		{
			name:     "indexed only",
			info:     DrawInfo{Topology: topology.Triangles, Count: 3},
			opts:     []Option{WithIndexedOnly(true)},
			wantCmd:  recording.NameDrawIndexed,
			wantTopo: topology.Triangles,
			want:     []uint32{0, 1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newSnoop()
			c := newContext(t, dev, tt.opts...)
			if err := c.Draw(vertexBuffer(t, dev), tt.info); err != nil {
				t.Fatalf("Draw() error = %v", err)
			}
			cmd := lastCommand(dev.Device)
			if recording.Name(cmd) != tt.wantCmd {
				t.Fatalf("last command = %v, want %s", cmd, tt.wantCmd)
			}
			switch d := cmd.(type) {
			case gpucore.Draw:
				if d.Topology != tt.wantTopo || d.VertexCount != tt.info.Count || d.FirstVertex != tt.info.Start {
					t.Errorf("draw = %v", d)
				}
			case gpucore.DrawIndexed:
				if d.Topology != tt.wantTopo || d.IndexCount != len(tt.want) || d.BaseVertex != tt.wantBias {
					t.Errorf("draw-indexed = %v", d)
				}
				if got := decode(dev.last(), topology.Width16, len(tt.want)); !slices.Equal(got, tt.want) {
					t.Errorf("indices = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDrawQuadsLastProvokingVertex(t *testing.T) {
	dev := newSnoop(recording.WithProvokingVertex(topology.Last))
	c := newContext(t, dev)

	info := DrawInfo{
		Topology:        topology.Quads,
		Count:           4,
		Index:           &IndexData{Data: u16(0, 1, 2, 3), Width: topology.Width16},
		ProvokingVertex: topology.Last,
	}
	if err := c.Draw(vertexBuffer(t, dev), info); err != nil {
		t.Fatal(err)
	}
	if got := decode(dev.last(), topology.Width16, 6); !slices.Equal(got, []uint32{0, 1, 3, 1, 2, 3}) {
		t.Errorf("indices = %v", got)
	}
	if s := c.Stats(); s.Rewrites != 1 {
		t.Errorf("Stats() = %v, want one rewrite", s)
	}
}

func TestDrawIndexedReuse(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev)
	vb := vertexBuffer(t, dev)

	ibuf, err := dev.CreateBuffer(16, gpucore.BufferUsageIndex|gpucore.BufferUsageMapWrite, "ib")
	if err != nil {
		t.Fatal(err)
	}
	created := dev.Stats().Created

	info := DrawInfo{
		Topology:  topology.Triangles,
		Start:     3,
		Count:     3,
		Index:     &IndexData{Buffer: ibuf, Width: topology.Width16},
		IndexBias: 5,
		MaxIndex:  7,
	}
	if err := c.Draw(vb, info); err != nil {
		t.Fatal(err)
	}
	if dev.Stats().Created != created {
		t.Error("native draw with matching width allocated a buffer")
	}
	var bound gpucore.SetIndexBuffer
	for _, cmd := range dev.Commands() {
		if sib, ok := cmd.(gpucore.SetIndexBuffer); ok {
			bound = sib
		}
	}
	if bound.Handle.Buffer != ibuf.ID() {
		t.Errorf("bound index buffer %d, want caller's %d", bound.Handle.Buffer, ibuf.ID())
	}
	d := lastCommand(dev.Device).(gpucore.DrawIndexed)
	if d.FirstIndex != 3 || d.BaseVertex != 5 || d.MaxIndex != 7 {
		t.Errorf("draw-indexed = %+v", d)
	}
	if ibuf.Refs() != 2 {
		t.Errorf("caller buffer refs = %d, want 2 (caller + binding snapshot)", ibuf.Refs())
	}
	if s := c.Stats(); s.Memcpy != 1 {
		t.Errorf("Stats() = %v", s)
	}
}

func TestDrawWidensByteIndices(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev)

	info := DrawInfo{
		Topology: topology.TriangleStrip,
		Count:    5,
		Index:    &IndexData{Data: []byte{0xff, 4, 3, 0xff, 1, 0}, Width: topology.Width8},
		Restart:  true,
	}
	if err := c.Draw(vertexBuffer(t, dev), info); err != nil {
		t.Fatal(err)
	}
	d := lastCommand(dev.Device).(gpucore.DrawIndexed)
	if !d.Restart || d.IndexCount != 5 {
		t.Fatalf("draw-indexed = %v", d)
	}
	want := []uint32{0xffff, 4, 3, 0xffff, 1}
	if got := decode(dev.last(), topology.Width16, 5); !slices.Equal(got, want) {
		t.Errorf("indices = %#x, want %#x", got, want)
	}
}

func TestDrawReadsIndexBuffer(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev)

	ibuf, _ := dev.CreateBuffer(16, gpucore.BufferUsageIndex|gpucore.BufferUsageMapWrite, "ib")
	if err := gpucore.WithWriteMapping(dev, ibuf, 0, 16, func(b []byte) error {
		copy(b, u16(9, 9, 4, 5, 6, 7, 9, 9))
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	info := DrawInfo{
		Topology: topology.Quads,
		Start:    1,
		Count:    4,
		Index:    &IndexData{Buffer: ibuf, Offset: 2, Width: topology.Width16},
	}
	if err := c.Draw(vertexBuffer(t, dev), info); err != nil {
		t.Fatal(err)
	}
	if got := decode(dev.last(), topology.Width16, 6); !slices.Equal(got, []uint32{4, 5, 6, 4, 6, 7}) {
		t.Errorf("indices = %v", got)
	}
}

func TestDrawUnfilled(t *testing.T) {
	tests := []struct {
		name      string
		info      DrawInfo
		native    bool
		wantTopo  topology.Topology
		wantCount int
	}{
		{"lines", DrawInfo{Topology: topology.Triangles, Count: 300, FillMode: FillLines}, false, topology.Lines, 600},
		{"polygon lines", DrawInfo{Topology: topology.Polygon, Count: 6, FillMode: FillLines}, false, topology.Lines, 12},
		{"points", DrawInfo{Topology: topology.TriangleFan, Count: 5, FillMode: FillPoints}, false, topology.Points, 5},
		{"native", DrawInfo{Topology: topology.Triangles, Count: 6, FillMode: FillLines}, true, topology.Triangles, 6},
		{"not a triangle family", DrawInfo{Topology: topology.LineStrip, Count: 3, FillMode: FillLines}, false, topology.LineStrip, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newSnoop()
			c := newContext(t, dev, WithNativeUnfilled(tt.native))
			if err := c.Draw(vertexBuffer(t, dev), tt.info); err != nil {
				t.Fatal(err)
			}
			var topo topology.Topology
			var count int
			switch d := lastCommand(dev.Device).(type) {
			case gpucore.Draw:
				topo, count = d.Topology, d.VertexCount
			case gpucore.DrawIndexed:
				topo, count = d.Topology, d.IndexCount
			}
			if topo != tt.wantTopo || count != tt.wantCount {
				t.Errorf("drew %v x%d, want %v x%d", topo, count, tt.wantTopo, tt.wantCount)
			}
		})
	}
}

// A polygon outline closes back to its first vertex, so a wireframe polygon
// must never be served from the buffer of a larger one.
func TestDrawUnfilledPolygonShrinks(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev)
	vb := vertexBuffer(t, dev)

	for _, n := range []int{6, 4} {
		if err := c.Draw(vb, DrawInfo{Topology: topology.Polygon, Count: n, FillMode: FillLines}); err != nil {
			t.Fatalf("Draw(n=%d) error = %v", n, err)
		}
		d, ok := lastCommand(dev.Device).(gpucore.DrawIndexed)
		if !ok || d.IndexCount != 2*n {
			t.Fatalf("n=%d: last command = %v, want %d indices", n, lastCommand(dev.Device), 2*n)
		}
		got := decode(dev.last(), topology.Width16, d.IndexCount)
		for i, v := range got {
			if int(v) >= n {
				t.Errorf("n=%d: index %d at %d is outside the draw: %v", n, v, i, got)
				break
			}
		}
		if got[len(got)-1] != 0 {
			t.Errorf("n=%d: outline %v does not close on vertex 0", n, got)
		}
	}
}

func TestDrawOutOfMemory(t *testing.T) {
	dev := newSnoop(recording.WithBudget(1024 + 8))
	c := newContext(t, dev)
	vb := vertexBuffer(t, dev)

	err := c.Draw(vb, DrawInfo{Topology: topology.Quads, Count: 8})
	if !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("Draw() error = %v, want %v", err, ErrOutOfMemory)
	}
	if n := len(dev.Commands()); n != 0 {
		t.Errorf("abandoned draw emitted %d commands", n)
	}
	if s := c.Stats(); s.Abandoned != 1 || s.Draws != 0 {
		t.Errorf("Stats() = %v", s)
	}

	dev.SetBudget(0)
	if err := c.Draw(vb, DrawInfo{Topology: topology.Quads, Count: 8}); err != nil {
		t.Errorf("Draw() after raising the budget: %v", err)
	}
}

// startLimit is the largest first vertex a draw may use.
var startLimit int64 = math.MaxInt32

func TestDrawErrors(t *testing.T) {
	tests := []struct {
		name string
		info DrawInfo
		want error
	}{
		{"degenerate fan", DrawInfo{Topology: topology.TriangleFan, Count: 2}, ErrDegenerateCount},
		{"bad topology", DrawInfo{Topology: topology.Topology(200), Count: 3}, ErrUnsupportedTopology},
		{"negative start", DrawInfo{Topology: topology.Points, Start: -1, Count: 3}, ErrDegenerateCount},
		{"start beyond base vertex range", DrawInfo{Topology: topology.Quads, Start: int(startLimit + 1), Count: 4}, ErrDegenerateCount},
		{"no index source", DrawInfo{Topology: topology.Lines, Count: 2, Index: &IndexData{Width: topology.Width16}}, ErrInvalidIndexData},
		{"short data", DrawInfo{Topology: topology.Lines, Count: 4, Index: &IndexData{Data: u16(0, 1), Width: topology.Width16}}, ErrInvalidIndexData},
		{"bad width", DrawInfo{Topology: topology.Lines, Count: 2, Index: &IndexData{Data: u16(0, 1), Width: 3}}, ErrInvalidIndexWidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := recording.NewDevice()
			c := newContext(t, dev)
			if err := c.Draw(nil, tt.info); !errors.Is(err, tt.want) {
				t.Errorf("Draw() error = %v, want %v", err, tt.want)
			}
			if len(dev.Commands()) != 0 {
				t.Error("failed draw emitted commands")
			}
		})
	}
}

func TestBatchedContext(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev, WithDeviceClass(Batched), WithBatchCapacity(2))
	vb := vertexBuffer(t, dev)

	draws := []DrawInfo{
		{Topology: topology.Triangles, Count: 3},
		{Topology: topology.Quads, Count: 4},
		{Topology: topology.LineLoop, Start: 2, Count: 3},
	}
	for _, d := range draws {
		if err := c.Draw(vb, d); err != nil {
			t.Fatal(err)
		}
	}
	log := dev.Commands()
	if log.Count(recording.NameDrawPrimitives) != 1 || c.Pending() != 1 {
		t.Fatalf("commands = %v, pending = %d", log.Names(), c.Pending())
	}
	first := log[0].(gpucore.DrawPrimitives)
	if first.Ranges[0].Indexed() || !first.Ranges[1].Indexed() {
		t.Errorf("ranges = %v", first)
	}
	if got := first.Ranges[1].PrimitiveCount; got != 2 {
		t.Errorf("quad range primitives = %d, want 2", got)
	}

	if err := c.FlushForStateChange("pipeline"); err != nil {
		t.Fatal(err)
	}
	second := lastCommand(dev.Device).(gpucore.DrawPrimitives)
	r := second.Ranges[0]
	if r.Topology != topology.Lines || r.IndexCount != 6 || r.IndexBias != 2 {
		t.Errorf("line-loop range = %+v", r)
	}
	if got := decode(dev.last(), topology.Width16, 6); !slices.Equal(got, []uint32{0, 1, 1, 2, 2, 0}) {
		t.Errorf("line-loop indices = %v", got)
	}
}

func TestBatchedFlushFailure(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev, WithDeviceClass(Batched))
	vb := vertexBuffer(t, dev)

	if err := c.Draw(vb, DrawInfo{Topology: topology.Triangles, Count: 3}); err != nil {
		t.Fatal(err)
	}
	dev.FailResolve(vb[0].Buffer)
	var fe *FlushError
	if err := c.Flush(); !errors.As(err, &fe) || !errors.Is(err, ErrResolve) {
		t.Fatalf("Flush() error = %v, want *FlushError wrapping %v", err, ErrResolve)
	}
	if c.Pending() != 1 {
		t.Errorf("Pending() = %d after failed flush", c.Pending())
	}
	dev.ClearFailures()
	if err := c.Flush(); err != nil {
		t.Errorf("retry error = %v", err)
	}
}

func TestCacheSurvivesEviction(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev, WithDeviceClass(Batched), WithCacheSlots(1))
	vb := vertexBuffer(t, dev)

	if err := c.Draw(vb, DrawInfo{Topology: topology.Quads, Count: 4}); err != nil {
		t.Fatal(err)
	}
	// A different convention evicts the only quads slot while the first
	// range is still queued.
	if err := c.Draw(vb, DrawInfo{Topology: topology.Quads, Count: 4, ProvokingVertex: topology.Last}); err != nil {
		t.Fatal(err)
	}
	if c.Stats().Cache.Evictions != 1 {
		t.Fatalf("Stats() = %v, want one eviction", c.Stats())
	}
	if err := c.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := decode(dev.bound[0], topology.Width16, 6); !slices.Equal(got, []uint32{0, 1, 2, 0, 2, 3}) {
		t.Errorf("evicted range indices = %v", got)
	}
}

func TestClose(t *testing.T) {
	dev := newSnoop()
	c := newContext(t, dev, WithDeviceClass(Batched))
	vb := vertexBuffer(t, dev)

	if err := c.Draw(vb, DrawInfo{Topology: topology.Quads, Count: 8}); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if dev.Commands().Count(recording.NameDrawPrimitives) != 1 {
		t.Error("Close did not flush")
	}
	if dev.LiveBuffers() != 1 {
		t.Errorf("LiveBuffers() = %d, want only the vertex buffer", dev.LiveBuffers())
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	if err := c.Draw(vb, DrawInfo{Topology: topology.Points, Count: 1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Draw() after Close = %v, want %v", err, ErrClosed)
	}
}

func TestZeroCountDraw(t *testing.T) {
	dev := recording.NewDevice()
	c := newContext(t, dev)
	if err := c.Draw(nil, DrawInfo{Topology: topology.TriangleFan}); err != nil {
		t.Errorf("Draw() error = %v", err)
	}
	if len(dev.Commands()) != 0 {
		t.Error("zero-count draw emitted commands")
	}
}
