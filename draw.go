package primconv

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/primconv/batch"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/immediate"
	"github.com/gogpu/primconv/indices"
	"github.com/gogpu/primconv/topology"
)

// FillMode selects how triangle-family primitives are rasterized.
type FillMode uint8

const (
	// FillSolid fills primitives.
	FillSolid FillMode = iota
	// FillPoints draws every vertex as a point.
	FillPoints
	// FillLines draws every primitive edge.
	FillLines
)

func (m FillMode) String() string {
	switch m {
	case FillSolid:
		return "solid"
	case FillPoints:
		return "points"
	case FillLines:
		return "lines"
	default:
		return fmt.Sprintf("FillMode(%d)", int(m))
	}
}

// ParseFillMode parses "solid", "points" or "lines".
func ParseFillMode(name string) (FillMode, error) {
	switch name {
	case "solid", "":
		return FillSolid, nil
	case "points":
		return FillPoints, nil
	case "lines":
		return FillLines, nil
	default:
		return 0, fmt.Errorf("primconv: invalid fill mode %q", name)
	}
}

// IndexData is the index stream of an indexed draw. Exactly one of Buffer
// and Data is set.
type IndexData struct {
	// Buffer holds the indices on the device, starting at byte Offset.
	Buffer *gpucore.Buffer
	Offset int
	// Data holds the indices in client memory.
	Data  []byte
	Width topology.IndexWidth
}

// DrawInfo describes one API-level draw.
type DrawInfo struct {
	Topology topology.Topology
	// Start is the first vertex of a non-indexed draw, or the first index of
	// an indexed one.
	Start int
	Count int

	// Index is nil for a non-indexed draw.
	Index *IndexData
	// IndexBias is added to every index of an indexed draw.
	IndexBias int32
	// MinIndex and MaxIndex bound the indices of an indexed draw.
	MinIndex uint32
	MaxIndex uint32

	// ProvokingVertex is the convention the draw was specified with.
	ProvokingVertex topology.ProvokingVertex
	Restart         bool
	FillMode        FillMode
}

// plan is a decided draw. A non-nil index carries a reference the plan
// owns.
type plan struct {
	topo       topology.Topology
	count      int
	first      int // first vertex, non-indexed only
	index      *gpucore.Buffer
	width      topology.IndexWidth
	offset     uint64 // byte offset of the index binding
	firstIndex int
	bias       int32
	min, max   uint32
	restart    bool
}

// Draw converts info into device commands drawn with the vertex bindings
// vb. A zero count draws nothing.
//
// On a batched device the draw is queued and may flush the open batch. An
// allocation failure abandons the draw before anything is emitted and
// returns an error wrapping ErrOutOfMemory.
func (c *Context) Draw(vb []gpucore.VertexBinding, info DrawInfo) error {
	if c.closed {
		return ErrClosed
	}
	if info.Count == 0 {
		return nil
	}
	p, err := c.decide(info)
	if err != nil {
		c.stats.abandoned++
		if errors.Is(err, gpucore.ErrOutOfMemory) {
			c.logger.Warn("primconv: draw abandoned", "topology", info.Topology, "count", info.Count, "err", err)
		}
		return err
	}
	if err := c.submit(vb, p); err != nil {
		c.stats.abandoned++
		return err
	}
	c.stats.draws++
	return nil
}

func (c *Context) decide(info DrawInfo) (plan, error) {
	t := info.Topology
	if !t.IsValid() {
		return plan{}, fmt.Errorf("%w: %v", topology.ErrUnsupportedTopology, t)
	}
	if info.Count < 0 || info.Start < 0 {
		return plan{}, fmt.Errorf("%w: start=%d count=%d", topology.ErrDegenerateCount, info.Start, info.Count)
	}
	// Start becomes a signed 32-bit base vertex or a 32-bit first index.
	if info.Start > math.MaxInt32 {
		return plan{}, fmt.Errorf("%w: start %d exceeds the 32-bit base vertex range", topology.ErrDegenerateCount, info.Start)
	}
	indexed := info.Index != nil
	if indexed {
		if err := checkIndexData(info); err != nil {
			return plan{}, err
		}
	}
	restart := topology.RestartDisabled
	if indexed && info.Restart {
		restart = topology.RestartEnabled
	}

	if info.FillMode != FillSolid && !c.nativeUnfilled && topology.IsTriangleFamily(t) {
		mode := indices.UnfilledLines
		if info.FillMode == FillPoints {
			mode = indices.UnfilledPoints
		}
		c.stats.unfilled++
		if indexed {
			tr, err := indices.TranslateUnfilled(t, info.Index.Width, info.Count, mode, restart)
			if err != nil {
				return plan{}, err
			}
			return c.translated(info, tr)
		}
		g, err := indices.GenerateUnfilled(t, 0, info.Count, mode)
		if err != nil {
			return plan{}, err
		}
		return c.generated(info, g)
	}

	if indexed {
		tr, err := indices.Translate(c.caps, t, info.Index.Width, info.Count, info.ProvokingVertex, c.pv, restart)
		if err != nil {
			return plan{}, err
		}
		return c.translated(info, tr)
	}
	g, err := indices.Generate(c.caps, t, 0, info.Count, info.ProvokingVertex, c.pv)
	if err != nil {
		return plan{}, err
	}
	return c.generated(info, g)
}

func checkIndexData(info DrawInfo) error {
	idx := info.Index
	if !idx.Width.IsValid() {
		return fmt.Errorf("%w: %d", topology.ErrInvalidIndexWidth, idx.Width)
	}
	if (idx.Buffer == nil) == (idx.Data == nil) {
		return fmt.Errorf("%w: need exactly one of buffer and data", ErrInvalidIndexData)
	}
	if idx.Offset < 0 || idx.Offset%idx.Width.Bytes() != 0 {
		return fmt.Errorf("%w: offset %d not aligned to %v", ErrInvalidIndexData, idx.Offset, idx.Width)
	}
	if idx.Data != nil && len(idx.Data) < (info.Start+info.Count)*idx.Width.Bytes() {
		return fmt.Errorf("%w: %d bytes hold fewer than %d indices", ErrInvalidIndexData, len(idx.Data), info.Start+info.Count)
	}
	return nil
}

// generated serves a non-indexed draw. Generated indices start at zero and
// the draw's first vertex becomes the index bias.
func (c *Context) generated(info DrawInfo, g indices.Generation) (plan, error) {
	if g.Kind == indices.Linear && !c.indexedOnly {
		c.stats.linear++
		c.logger.Debug("primconv: linear draw", "topology", g.OutputTopology, "count", g.OutputCount)
		return plan{topo: g.OutputTopology, count: g.OutputCount, first: info.Start}, nil
	}
	buf, err := c.cache.Acquire(info.Topology, g, info.Count)
	if err != nil {
		return plan{}, err
	}
	c.stats.generated++
	c.logger.Debug("primconv: generated draw", "topology", info.Topology, "kind", g.Kind,
		"generator", g.Generator, "output", g.OutputTopology, "elements", g.OutputCount)
	return plan{
		topo:  g.OutputTopology,
		count: g.OutputCount,
		index: buf,
		width: g.OutputWidth,
		bias:  int32(info.Start),
		max:   uint32(info.Count - 1),
	}, nil
}

// translated serves an indexed draw, reusing the caller's buffer when the
// indices need no change at all.
func (c *Context) translated(info DrawInfo, tr indices.Translation) (plan, error) {
	idx := info.Index
	p := plan{
		topo:    tr.OutputTopology,
		count:   tr.OutputCount,
		width:   tr.OutputWidth,
		bias:    info.IndexBias,
		min:     info.MinIndex,
		max:     info.MaxIndex,
		restart: tr.Conversion.Restart == topology.RestartEnabled,
	}

	if tr.Kind == indices.Memcpy && tr.OutputWidth == idx.Width && idx.Buffer != nil {
		c.stats.memcpy++
		c.logger.Debug("primconv: reuse indices", "topology", tr.OutputTopology, "count", tr.OutputCount)
		p.index = idx.Buffer.Reference()
		p.offset = uint64(idx.Offset)
		p.firstIndex = info.Start
		return p, nil
	}

	src, err := c.sourceIndices(info)
	if err != nil {
		return plan{}, err
	}
	size := tr.OutputCount * tr.OutputWidth.Bytes()
	label := fmt.Sprintf("primconv/translate/%v/%v", info.Topology, tr.Conversion.Op)
	buf, err := c.dev.CreateBuffer(size,
		gpucore.BufferUsageIndex|gpucore.BufferUsageMapWrite|gpucore.BufferUsageCopyDst, label)
	if err != nil {
		return plan{}, fmt.Errorf("primconv: translate %v: %w", info.Topology, err)
	}
	err = gpucore.WithWriteMapping(c.dev, buf, 0, size, func(b []byte) error {
		return tr.Conversion.Apply(src, 0, info.Count, b)
	})
	if err != nil {
		buf.Release()
		return plan{}, fmt.Errorf("primconv: translate %v: %w", info.Topology, err)
	}

	if tr.Kind == indices.Memcpy {
		c.stats.memcpy++
	} else {
		c.stats.rewrites++
	}
	c.logger.Debug("primconv: translated indices", "topology", info.Topology, "kind", tr.Kind,
		"conversion", tr.Conversion, "output", tr.OutputTopology, "elements", tr.OutputCount)
	p.index = buf
	return p, nil
}

// sourceIndices returns the count input indices of the draw.
func (c *Context) sourceIndices(info DrawInfo) ([]byte, error) {
	idx := info.Index
	w := idx.Width.Bytes()
	if idx.Data != nil {
		return idx.Data[info.Start*w : (info.Start+info.Count)*w], nil
	}
	data, err := c.dev.ReadBuffer(idx.Buffer, idx.Offset+info.Start*w, info.Count*w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndexData, err)
	}
	return data, nil
}

// submit hands p to the batcher or the immediate emitter. The plan's index
// reference is consumed either way.
func (c *Context) submit(vb []gpucore.VertexBinding, p plan) error {
	if c.batcher != nil {
		r := batch.Range{
			Topology:       p.topo,
			PrimitiveCount: topology.PrimitiveCount(p.topo, p.count),
			IndexCount:     p.count,
			IndexBuffer:    p.index,
			IndexWidth:     p.width,
			IndexBias:      p.bias,
			FirstVertex:    p.first,
			MinIndex:       p.min,
			MaxIndex:       p.max,
			Restart:        p.restart,
		}
		if p.index != nil {
			r.IndexOffset = p.offset + uint64(p.firstIndex*p.width.Bytes())
		}
		return c.batcher.Submit(r, vb)
	}

	defer p.index.Release()
	d := immediate.Draw{
		Topology:    p.topo,
		Count:       p.count,
		First:       p.first,
		IndexBuffer: p.index,
		IndexWidth:  p.width,
		IndexOffset: p.offset,
		BaseVertex:  p.bias,
		MinIndex:    p.min,
		MaxIndex:    p.max,
		Restart:     p.restart,
	}
	if p.index != nil {
		d.First = p.firstIndex
	}
	return c.emitter.Draw(vb, d)
}
