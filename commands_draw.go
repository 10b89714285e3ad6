// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Draw-tier command payloads: a disjoint family from
// commands_transfer/compute/graphics.go, replayed by a separate
// replayer entry point (spec.md §4.4).

type cmdBindGraphicsPipeline struct{ Pipeline NativeHandle }

func (e *Encoder) BindGraphicsPipeline(pipeline NativeHandle) {
	e.push(CmdBindGraphicsPipeline, cmdBindGraphicsPipeline{Pipeline: pipeline})
}

type cmdBindDescriptorSetGraphics struct {
	Set   NativeHandle
	Index int
}

func (e *Encoder) BindDescriptorSetGraphics(set NativeHandle, index int) {
	e.push(CmdBindDescriptorSetGraphics, cmdBindDescriptorSetGraphics{Set: set, Index: index})
}

type cmdSetViewport struct{ X, Y, W, H float32 }

func (e *Encoder) SetViewport(x, y, w, h float32) {
	e.push(CmdSetViewport, cmdSetViewport{X: x, Y: y, W: w, H: h})
}

type cmdSetScissor struct{ Rect Rect2D }

func (e *Encoder) SetScissor(r Rect2D) { e.push(CmdSetScissor, cmdSetScissor{Rect: r}) }

type cmdBindIndexBuffer struct {
	Buffer NativeHandle
	Offset int64
	Format IndexFormat
}

func (e *Encoder) BindIndexBuffer(buf NativeHandle, offset int64, format IndexFormat) {
	e.push(CmdBindIndexBuffer, cmdBindIndexBuffer{Buffer: buf, Offset: offset, Format: format})
}

type cmdBindVertexBuffers struct {
	FirstBinding int
	Buffers      []NativeHandle
	Offsets      []int64
}

func (e *Encoder) BindVertexBuffers(firstBinding int, bufs []NativeHandle, offsets []int64) {
	e.push(CmdBindVertexBuffers, cmdBindVertexBuffers{
		FirstBinding: firstBinding,
		Buffers:      append([]NativeHandle(nil), bufs...),
		Offsets:      append([]int64(nil), offsets...),
	})
}

type cmdDraw struct{ VertexCount, InstanceCount, FirstVertex, FirstInstance int }

func (e *Encoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance int) {
	e.push(CmdDraw, cmdDraw{VertexCount: vertexCount, InstanceCount: instanceCount, FirstVertex: firstVertex, FirstInstance: firstInstance})
}

type cmdDrawIndexed struct{ IndexCount, InstanceCount, FirstIndex, VertexOffset, FirstInstance int }

func (e *Encoder) DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	e.push(CmdDrawIndexed, cmdDrawIndexed{
		IndexCount: indexCount, InstanceCount: instanceCount, FirstIndex: firstIndex,
		VertexOffset: vertexOffset, FirstInstance: firstInstance,
	})
}

type cmdDrawIndirect struct {
	Buffer          NativeHandle
	Offset          int64
	DrawCount, Stride int
}

func (e *Encoder) DrawIndirect(buf NativeHandle, offset int64, drawCount, stride int) {
	e.push(CmdDrawIndirect, cmdDrawIndirect{Buffer: buf, Offset: offset, DrawCount: drawCount, Stride: stride})
}

type cmdDrawIndexedIndirect struct {
	Buffer            NativeHandle
	Offset            int64
	DrawCount, Stride int
}

func (e *Encoder) DrawIndexedIndirect(buf NativeHandle, offset int64, drawCount, stride int) {
	e.push(CmdDrawIndexedIndirect, cmdDrawIndexedIndirect{Buffer: buf, Offset: offset, DrawCount: drawCount, Stride: stride})
}

type cmdDrawMeshTasks struct{ X, Y, Z int }

func (e *Encoder) DrawMeshTasks(x, y, z int) {
	e.push(CmdDrawMeshTasks, cmdDrawMeshTasks{X: x, Y: y, Z: z})
}
