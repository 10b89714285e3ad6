// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "sync/atomic"

// mockDevice is a minimal, allocation-only fake of Device used across the
// package's tests (spec.md §9: "Tests instantiate it with a mock
// device"). It never touches a real GPU: every Create* call hands out a
// strictly increasing NativeHandle and every Cmd*/Submit call just
// records that it was invoked, so tests assert on call counts/ordering
// rather than driver side effects.
type mockDevice struct {
	next atomic.Uint64

	calls      []string
	barriers   []PipelineBarrier
	submits    []SubmitBatch
	features   FeatureSet
	apiVersion string
}

func newMockDevice() *mockDevice {
	return &mockDevice{apiVersion: "1.2.0", features: FeatureSet{DebugUtils: true}}
}

func (d *mockDevice) alloc() NativeHandle {
	return NativeHandle(d.next.Add(1))
}

func (d *mockDevice) Features() FeatureSet  { return d.features }
func (d *mockDevice) APIVersion() string    { return d.apiVersion }
func (d *mockDevice) Queue(qt QueueType) NativeHandle { return NativeHandle(1000 + int(qt)) }

func (d *mockDevice) CreateFence(signaled bool) (NativeHandle, error) { return d.alloc(), nil }
func (d *mockDevice) WaitFences(fences []NativeHandle, waitAll bool, timeoutNanos int64) error {
	return nil
}
func (d *mockDevice) ResetFences(fences []NativeHandle) error          { return nil }
func (d *mockDevice) FenceSignaled(fence NativeHandle) (bool, error)   { return true, nil }
func (d *mockDevice) DestroyFence(fence NativeHandle)                  {}

func (d *mockDevice) CreateSemaphore() (NativeHandle, error) { return d.alloc(), nil }
func (d *mockDevice) DestroySemaphore(sem NativeHandle)      {}

func (d *mockDevice) CreateCommandPool(qt QueueType) (NativeHandle, error) { return d.alloc(), nil }
func (d *mockDevice) ResetCommandPool(pool NativeHandle, releaseResources bool) error {
	return nil
}
func (d *mockDevice) DestroyCommandPool(pool NativeHandle) {}

func (d *mockDevice) AllocateCommandBuffer(pool NativeHandle, secondary bool) (NativeHandle, error) {
	return d.alloc(), nil
}
func (d *mockDevice) FreeCommandBuffers(pool NativeHandle, cmdbufs []NativeHandle) {}
func (d *mockDevice) BeginCommandBuffer(cb NativeHandle) error {
	d.calls = append(d.calls, "BeginCommandBuffer")
	return nil
}
func (d *mockDevice) EndCommandBuffer(cb NativeHandle) error {
	d.calls = append(d.calls, "EndCommandBuffer")
	return nil
}

func (d *mockDevice) Submit(qt QueueType, batches []SubmitBatch, fence NativeHandle) error {
	d.submits = append(d.submits, batches...)
	return nil
}

func (d *mockDevice) CmdPipelineBarrier(cb NativeHandle, b *PipelineBarrier) {
	d.barriers = append(d.barriers, *b)
}

func (d *mockDevice) CmdClearColorImage(cb, img NativeHandle, layout ImageLayout, c ClearColor) {
	d.calls = append(d.calls, "ClearColorImage")
}
func (d *mockDevice) CmdClearDepthStencilImage(cb, img NativeHandle, layout ImageLayout, v ClearDepthStencil) {
	d.calls = append(d.calls, "ClearDepthStencilImage")
}
func (d *mockDevice) CmdFillBuffer(cb, buf NativeHandle, offset, size int64, value uint32) {
	d.calls = append(d.calls, "FillBuffer")
}
func (d *mockDevice) CmdUpdateBuffer(cb, buf NativeHandle, offset int64, data []byte) {
	d.calls = append(d.calls, "UpdateBuffer")
}
func (d *mockDevice) CmdCopyBuffer(cb, src, dst NativeHandle, srcOff, dstOff, size int64) {
	d.calls = append(d.calls, "CopyBuffer")
}
func (d *mockDevice) CmdCopyImage(cb, src, dst NativeHandle, size Dim3D) {
	d.calls = append(d.calls, "CopyImage")
}
func (d *mockDevice) CmdCopyBufferToImage(cb, buf, img NativeHandle, layout ImageLayout, off Off3D, size Dim3D) {
	d.calls = append(d.calls, "CopyBufferToImage")
}
func (d *mockDevice) CmdCopyImageToBuffer(cb, img NativeHandle, layout ImageLayout, buf NativeHandle, off Off3D, size Dim3D) {
	d.calls = append(d.calls, "CopyImageToBuffer")
}
func (d *mockDevice) CmdDebugMarker(cb NativeHandle, label string)             { d.calls = append(d.calls, "DebugMarker:"+label) }
func (d *mockDevice) CmdPushDebugGroup(cb NativeHandle, label string, color [4]float32) {
	d.calls = append(d.calls, "PushDebugGroup:"+label)
}
func (d *mockDevice) CmdPopDebugGroup(cb NativeHandle) { d.calls = append(d.calls, "PopDebugGroup") }

func (d *mockDevice) CmdBindComputePipeline(cb, pipeline NativeHandle) {
	d.calls = append(d.calls, "BindComputePipeline")
}
func (d *mockDevice) CmdBindDescriptorSetCompute(cb, set NativeHandle, index int) {
	d.calls = append(d.calls, "BindDescriptorSetCompute")
}
func (d *mockDevice) CmdPushConstants(cb NativeHandle, stage PipelineStage, offset int, data []byte) {
	d.calls = append(d.calls, "PushConstants")
}
func (d *mockDevice) CmdDispatch(cb NativeHandle, x, y, z int) { d.calls = append(d.calls, "Dispatch") }
func (d *mockDevice) CmdDispatchBase(cb NativeHandle, baseX, baseY, baseZ, x, y, z int) {
	d.calls = append(d.calls, "DispatchBase")
}
func (d *mockDevice) CmdDispatchIndirect(cb, buf NativeHandle, offset int64) {
	d.calls = append(d.calls, "DispatchIndirect")
}

func (d *mockDevice) CmdBlitImage(cb, src, dst NativeHandle, linear bool) {
	d.calls = append(d.calls, "BlitImage")
}
func (d *mockDevice) CmdResolveImage(cb, src, dst NativeHandle, size Dim3D) {
	d.calls = append(d.calls, "ResolveImage")
}

func (d *mockDevice) CmdBindGraphicsPipeline(cb, pipeline NativeHandle) {
	d.calls = append(d.calls, "BindGraphicsPipeline")
}
func (d *mockDevice) CmdBindDescriptorSetGraphics(cb, set NativeHandle, index int) {
	d.calls = append(d.calls, "BindDescriptorSetGraphics")
}
func (d *mockDevice) CmdSetViewport(cb NativeHandle, x, y, w, h float32) {
	d.calls = append(d.calls, "SetViewport")
}
func (d *mockDevice) CmdSetScissor(cb NativeHandle, r Rect2D) { d.calls = append(d.calls, "SetScissor") }
func (d *mockDevice) CmdBindIndexBuffer(cb, buf NativeHandle, offset int64, format IndexFormat) {
	d.calls = append(d.calls, "BindIndexBuffer")
}
func (d *mockDevice) CmdBindVertexBuffers(cb NativeHandle, firstBinding int, bufs []NativeHandle, offsets []int64) {
	d.calls = append(d.calls, "BindVertexBuffers")
}
func (d *mockDevice) CmdDraw(cb NativeHandle, vertexCount, instanceCount, firstVertex, firstInstance int) {
	d.calls = append(d.calls, "Draw")
}
func (d *mockDevice) CmdDrawIndexed(cb NativeHandle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	d.calls = append(d.calls, "DrawIndexed")
}
func (d *mockDevice) CmdDrawIndirect(cb, buf NativeHandle, offset int64, drawCount, stride int) {
	d.calls = append(d.calls, "DrawIndirect")
}
func (d *mockDevice) CmdDrawIndexedIndirect(cb, buf NativeHandle, offset int64, drawCount, stride int) {
	d.calls = append(d.calls, "DrawIndexedIndirect")
}
func (d *mockDevice) CmdDrawMeshTasks(cb NativeHandle, x, y, z int) {
	d.calls = append(d.calls, "DrawMeshTasks")
}

var _ Device = (*mockDevice)(nil)
