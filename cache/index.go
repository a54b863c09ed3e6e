package cache

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/indices"
	"github.com/gogpu/primconv/topology"
)

// DefaultSlots is the default number of slots per topology.
const DefaultSlots = 8

// slot is one cached buffer.
type slot struct {
	gen      indices.Generator
	count    int // vertex count the buffer was generated for
	elements int
	buf      *gpucore.Buffer
}

// IndexCache stores generated index buffers.
type IndexCache struct {
	mgr    gpucore.BufferManager
	n      int
	logger *slog.Logger
	slots  [topology.Count][]slot

	hits          atomic.Uint64
	misses        atomic.Uint64
	evictions     atomic.Uint64
	regenerations atomic.Uint64
}

// New creates an index cache with slotsPerTopology slots for each topology.
// If slotsPerTopology <= 0, DefaultSlots is used. A nil logger discards.
func New(mgr gpucore.BufferManager, slotsPerTopology int, logger *slog.Logger) *IndexCache {
	if slotsPerTopology <= 0 {
		slotsPerTopology = DefaultSlots
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IndexCache{mgr: mgr, n: slotsPerTopology, logger: logger}
}

// Acquire returns an index buffer holding the indices of gen for count
// vertices starting at zero. The returned buffer carries a reference owned
// by the caller, who must Release it.
//
// Reusable and Linear generations hit when a slot with the same generator
// was generated for at least count vertices; OneOff generations hit only on
// an exact count. A slot with the right generator but an unusable count is
// released and regenerated. Allocation failures wrap gpucore.ErrOutOfMemory.
func (c *IndexCache) Acquire(t topology.Topology, gen indices.Generation, count int) (*gpucore.Buffer, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %v", topology.ErrUnsupportedTopology, t)
	}
	slots := c.slots[t]

	for i, s := range slots {
		if s.gen != gen.Generator {
			continue
		}
		if matches(gen.Kind, s.count, count) {
			c.hits.Add(1)
			c.logger.Debug("cache: hit", "topology", t, "generator", s.gen, "cached", s.count, "requested", count)
			return s.buf.Reference(), nil
		}
		c.regenerations.Add(1)
		c.logger.Debug("cache: regenerate", "topology", t, "generator", s.gen, "cached", s.count, "requested", count)
		s.buf.Release()
		slots = append(slots[:i], slots[i+1:]...)
		break
	}
	c.misses.Add(1)

	if len(slots) >= c.n {
		victim := smallest(slots)
		v := slots[victim]
		c.logger.Debug("cache: evict", "topology", t, "generator", v.gen, "count", v.count, "elements", v.elements)
		v.buf.Release()
		slots = append(slots[:victim], slots[victim+1:]...)
		c.evictions.Add(1)
	}
	c.slots[t] = slots

	buf, err := c.generate(t, gen, count)
	if err != nil {
		return nil, err
	}
	c.slots[t] = append(c.slots[t], slot{gen: gen.Generator, count: count, elements: gen.OutputCount, buf: buf})
	return buf.Reference(), nil
}

func matches(kind indices.GenerateKind, cached, requested int) bool {
	if kind == indices.OneOff {
		return cached == requested
	}
	return cached >= requested
}

// smallest returns the index of the slot with the smallest cached count.
func smallest(slots []slot) int {
	idx := 0
	for i := 1; i < len(slots); i++ {
		if slots[i].count < slots[idx].count {
			idx = i
		}
	}
	return idx
}

func (c *IndexCache) generate(t topology.Topology, gen indices.Generation, count int) (*gpucore.Buffer, error) {
	size := gen.OutputCount * gen.OutputWidth.Bytes()
	label := fmt.Sprintf("primconv/cache/%v/%v", t, gen.Generator.Op)
	buf, err := c.mgr.CreateBuffer(size,
		gpucore.BufferUsageIndex|gpucore.BufferUsageMapWrite|gpucore.BufferUsageCopyDst, label)
	if err != nil {
		return nil, fmt.Errorf("cache: generate %v: %w", t, err)
	}
	err = gpucore.WithWriteMapping(c.mgr, buf, 0, size, func(b []byte) error {
		return gen.Generator.Fill(0, count, b)
	})
	if err != nil {
		buf.Release()
		return nil, fmt.Errorf("cache: fill %v: %w", t, err)
	}
	return buf, nil
}

// Len returns the number of occupied slots.
func (c *IndexCache) Len() int {
	n := 0
	for _, s := range c.slots {
		n += len(s)
	}
	return n
}

// SlotsPerTopology returns the per-topology capacity.
func (c *IndexCache) SlotsPerTopology() int {
	return c.n
}

// Bytes returns the size of every cached buffer combined.
func (c *IndexCache) Bytes() int {
	n := 0
	for _, slots := range c.slots {
		for _, s := range slots {
			n += s.buf.Size()
		}
	}
	return n
}

// Clear releases every slot. Buffers still referenced elsewhere stay alive
// until their holders release them.
func (c *IndexCache) Clear() {
	for t := range c.slots {
		for _, s := range c.slots[t] {
			s.buf.Release()
		}
		c.slots[t] = nil
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of occupied slots.
	Len int
	// Capacity is the number of slots per topology.
	Capacity int
	// Bytes is the combined size of cached buffers.
	Bytes int
	// Hits is the number of requests served from a slot.
	Hits uint64
	// Misses is the number of requests that generated a buffer.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of slots dropped to make room.
	Evictions uint64
	// Regenerations is the number of slots replaced because their count
	// could not serve a request.
	Regenerations uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("slots=%d/%d bytes=%d hits=%d misses=%d hit-rate=%.2f evictions=%d regenerations=%d",
		s.Len, s.Capacity, s.Bytes, s.Hits, s.Misses, s.HitRate, s.Evictions, s.Regenerations)
}

// Stats returns current cache statistics.
func (c *IndexCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return Stats{
		Len:           c.Len(),
		Capacity:      c.n,
		Bytes:         c.Bytes(),
		Hits:          hits,
		Misses:        misses,
		HitRate:       hitRate,
		Evictions:     c.evictions.Load(),
		Regenerations: c.regenerations.Load(),
	}
}

// ResetStats resets all statistics counters to zero.
func (c *IndexCache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.regenerations.Store(0)
}
