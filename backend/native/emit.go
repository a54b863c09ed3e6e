package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/primconv/backend"
	"github.com/gogpu/primconv/gpucore"
	"github.com/gogpu/primconv/topology"
	"github.com/gogpu/wgpu/hal"
)

// RenderPass is the part of hal.RenderPassEncoder the device records into.
type RenderPass interface {
	SetVertexBuffer(slot uint32, buffer hal.Buffer, offset uint64)
	SetIndexBuffer(buffer hal.Buffer, format gputypes.IndexFormat, offset uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
}

// SetRenderPass sets the pass later commands are recorded into. Pass nil
// when the pass ends. Topology is part of the pipeline, so the caller binds
// a pipeline matching each draw's topology before emitting it.
func (d *Device) SetRenderPass(rp RenderPass) {
	d.mu.Lock()
	d.pass = rp
	d.mu.Unlock()
}

func (d *Device) native(h gpucore.DeviceHandle) (hal.Buffer, error) {
	if buf, ok := h.Native.(hal.Buffer); ok && buf != nil {
		return buf, nil
	}
	hb, ok := d.buffers[h.Buffer]
	if !ok {
		return nil, fmt.Errorf("%w: handle %d", ErrUnknownBuffer, h.Buffer)
	}
	return hb.buf, nil
}

// Emit records cmd into the current render pass.
func (d *Device) Emit(cmd gpucore.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return backend.ErrClosed
	}
	if d.pass == nil {
		return fmt.Errorf("%w: %v", ErrNoRenderPass, cmd)
	}

	switch c := cmd.(type) {
	case gpucore.SetVertexBuffers:
		return d.setVertexBuffers(c.Buffers)
	case gpucore.SetIndexBuffer:
		return d.setIndexBuffer(c.Handle, c.Width, c.Offset)
	case gpucore.DrawIndexed:
		d.pass.DrawIndexed(uint32(c.IndexCount), 1, uint32(c.FirstIndex), c.BaseVertex, 0)
		d.stats.Draws++
	case gpucore.Draw:
		d.pass.Draw(uint32(c.VertexCount), 1, uint32(c.FirstVertex), 0)
		d.stats.Draws++
	case gpucore.DrawPrimitives:
		return d.drawPrimitives(c)
	default:
		return fmt.Errorf("native: unsupported command %T", cmd)
	}
	return nil
}

func (d *Device) setVertexBuffers(vbs []gpucore.ResolvedVertexBuffer) error {
	for _, vb := range vbs {
		buf, err := d.native(vb.Handle)
		if err != nil {
			return err
		}
		d.pass.SetVertexBuffer(vb.Slot, buf, vb.Offset)
		d.stats.VertexBinds++
	}
	return nil
}

func (d *Device) setIndexBuffer(h gpucore.DeviceHandle, w topology.IndexWidth, offset uint64) error {
	format, ok := w.Format()
	if !ok {
		return fmt.Errorf("%w: %v", topology.ErrInvalidIndexWidth, w)
	}
	buf, err := d.native(h)
	if err != nil {
		return err
	}
	d.pass.SetIndexBuffer(buf, format, offset)
	d.stats.IndexBinds++
	return nil
}

// drawPrimitives replays a batch as individual draws.
func (d *Device) drawPrimitives(c gpucore.DrawPrimitives) error {
	if err := d.setVertexBuffers(c.Vertex); err != nil {
		return err
	}
	for _, r := range c.Ranges {
		if !r.Indexed() {
			d.pass.Draw(uint32(r.IndexCount), 1, uint32(r.FirstVertex), 0)
			d.stats.Draws++
			continue
		}
		if err := d.setIndexBuffer(r.Index, r.IndexWidth, r.IndexOffset); err != nil {
			return err
		}
		d.pass.DrawIndexed(uint32(r.IndexCount), 1, 0, r.IndexBias, 0)
		d.stats.Draws++
	}
	return nil
}
