// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// vertexBindChunk bounds how many vertex-buffer bindings DrawContext
// sends to the device per call, so a bind of many buffers is split into
// small fixed-size chunks instead of one unbounded allocation (spec.md
// §4.5: "split into small-constant chunks on the stack").
const vertexBindChunk = 8

// DrawRecorder is the public contract of spec.md §4.5's draw tier: a
// distinct family used inside an active render pass, with state caching
// to elide redundant binds.
type DrawRecorder interface {
	BindPipeline(pipeline PipelineHandle)
	BindDescriptorSet(set DescSetHandle, index int) error
	SetViewport(x, y, w, h float32)
	SetScissor(r Rect2D)
	BindIndexBuffer(buf BufferHandle, offset int64, format IndexFormat) error
	BindVertexBuffers(firstBinding int, bufs []BufferHandle, offsets []int64) error

	Draw(vertexCount, instanceCount, firstVertex, firstInstance int)
	DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)
	DrawIndirect(buf BufferHandle, offset int64, drawCount, stride int) error
	DrawIndexedIndirect(buf BufferHandle, offset int64, drawCount, stride int) error
	DrawMeshTasks(x, y, z int) error
}

type drawContext struct {
	*Context

	lastPipeline    NativeHandle
	havePipeline    bool
	lastIndexBuffer NativeHandle
	lastIndexOffset int64
	lastIndexFormat IndexFormat
	haveIndexBuffer bool
}

// NewDrawContext returns a draw-tier recorder, always built against a
// direct command buffer, for use inside an active render pass on the
// owning queue's primary buffer (spec.md §4.5's "distinct tier used
// inside a render pass"). Indirect draw recording goes through the
// Encoder's draw methods (commands_draw.go) and ReplayDraw instead.
func NewDrawContext(dev Device, resources ResourceManager, policy SyncPolicy, cmdbuf NativeHandle) DrawRecorder {
	c := newContext(dev, resources, policy, cmdbuf, 0)
	c.IsGraphics = true
	c.IsRender = true
	return &drawContext{Context: c}
}

func (d *drawContext) BindPipeline(pipeline PipelineHandle) {
	native := NativeHandle(pipeline.Index())
	if d.havePipeline && d.lastPipeline == native {
		return
	}
	d.dev.CmdBindGraphicsPipeline(d.cmdbuf, native)
	d.lastPipeline = native
	d.havePipeline = true
}

func (d *drawContext) BindDescriptorSet(set DescSetHandle, index int) error {
	bindings, ok := d.resources.DescSetBindings(set)
	if !ok {
		return ErrResourceLookup
	}
	for _, b := range bindings {
		access := Access{Stages: b.Stages, Access: AccessShaderRead}
		if b.Write {
			access.Access = AccessShaderWrite
		}
		switch b.Kind {
		case DescBindingBuffer, DescBindingUniformBuffer:
			if err := d.addBufferUse(b.Buffer, access); err != nil {
				return err
			}
		case DescBindingImage, DescBindingSampledImage:
			if err := d.addImageUse(b.Image, access, LayoutShaderReadOnly); err != nil {
				return err
			}
		}
	}
	d.dev.CmdBindDescriptorSetGraphics(d.cmdbuf, NativeHandle(set.Index()), index)
	return nil
}

func (d *drawContext) SetViewport(x, y, w, h float32) { d.dev.CmdSetViewport(d.cmdbuf, x, y, w, h) }

// SetScissor converts the generic Rect2D into whatever (offset, extent)
// form the native call expects; Device.CmdSetScissor already takes
// Rect2D directly, so this is a pass-through kept as its own method to
// mirror the tier's public shape.
func (d *drawContext) SetScissor(r Rect2D) { d.dev.CmdSetScissor(d.cmdbuf, r) }

func (d *drawContext) BindIndexBuffer(buf BufferHandle, offset int64, format IndexFormat) error {
	native, err := d.resolveBuffer(buf)
	if err != nil {
		return err
	}
	if err := d.addBufferUse(buf, Access{Stages: StageVertexInput, Access: AccessIndexRead}); err != nil {
		return err
	}
	if d.haveIndexBuffer && d.lastIndexBuffer == native && d.lastIndexOffset == offset && d.lastIndexFormat == format {
		return nil
	}
	d.flushBarriers()
	d.dev.CmdBindIndexBuffer(d.cmdbuf, native, offset, format)
	d.lastIndexBuffer, d.lastIndexOffset, d.lastIndexFormat, d.haveIndexBuffer = native, offset, format, true
	return nil
}

func (d *drawContext) BindVertexBuffers(firstBinding int, bufs []BufferHandle, offsets []int64) error {
	natives := make([]NativeHandle, len(bufs))
	for i, h := range bufs {
		n, err := d.resolveBuffer(h)
		if err != nil {
			return err
		}
		natives[i] = n
		if err := d.addBufferUse(h, Access{Stages: StageVertexInput, Access: AccessVertexAttributeRead}); err != nil {
			return err
		}
	}
	d.flushBarriers()

	var chunkBufs [vertexBindChunk]NativeHandle
	var chunkOffs [vertexBindChunk]int64
	for start := 0; start < len(natives); start += vertexBindChunk {
		end := start + vertexBindChunk
		if end > len(natives) {
			end = len(natives)
		}
		n := copy(chunkBufs[:], natives[start:end])
		copy(chunkOffs[:], offsets[start:end])
		d.dev.CmdBindVertexBuffers(d.cmdbuf, firstBinding+start, chunkBufs[:n], chunkOffs[:n])
	}
	return nil
}

func (d *drawContext) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	d.dev.CmdDraw(d.cmdbuf, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *drawContext) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	d.dev.CmdDrawIndexed(d.cmdbuf, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (d *drawContext) DrawIndirect(buf BufferHandle, offset int64, drawCount, stride int) error {
	native, err := d.resolveBuffer(buf)
	if err != nil {
		return err
	}
	if err := d.addBufferUse(buf, Access{Stages: StageDrawIndirect, Access: AccessIndirectCommandRead}); err != nil {
		return err
	}
	d.flushBarriers()
	d.dev.CmdDrawIndirect(d.cmdbuf, native, offset, drawCount, stride)
	return nil
}

func (d *drawContext) DrawIndexedIndirect(buf BufferHandle, offset int64, drawCount, stride int) error {
	native, err := d.resolveBuffer(buf)
	if err != nil {
		return err
	}
	if err := d.addBufferUse(buf, Access{Stages: StageDrawIndirect, Access: AccessIndirectCommandRead}); err != nil {
		return err
	}
	d.flushBarriers()
	d.dev.CmdDrawIndexedIndirect(d.cmdbuf, native, offset, drawCount, stride)
	return nil
}

func (d *drawContext) DrawMeshTasks(x, y, z int) error {
	if !d.dev.Features().MeshShader {
		return ErrUnsupported
	}
	d.dev.CmdDrawMeshTasks(d.cmdbuf, x, y, z)
	return nil
}
