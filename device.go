// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"github.com/Masterminds/semver/v3"
)

// NativeHandle is an opaque handle into the underlying graphics API
// (a Vulkan dispatchable/non-dispatchable handle, cast to uint64 at the
// backend boundary). The core never interprets its bits.
type NativeHandle uint64

// Zero reports whether h is the null handle.
func (h NativeHandle) Zero() bool { return h == 0 }

// MemoryBarrier is a global memory barrier (no specific resource).
type MemoryBarrier struct {
	SrcAccess AccessMask
	DstAccess AccessMask
}

// BufferBarrier barriers a byte range of a single buffer.
type BufferBarrier struct {
	SrcAccess AccessMask
	DstAccess AccessMask
	Buffer    NativeHandle
	Offset    int64
	Size      int64 // -1 means "to the end of the buffer".
}

// ImageBarrier barriers a subresource range of a single image, possibly
// transitioning its layout.
type ImageBarrier struct {
	SrcAccess  AccessMask
	DstAccess  AccessMask
	OldLayout  ImageLayout
	NewLayout  ImageLayout
	Image      NativeHandle
	BaseLayer  int
	LayerCount int
	BaseLevel  int
	LevelCount int
}

// PipelineBarrier is the value an Aggregator flushes as a single
// native call. It is empty (and need not be issued) when all three
// counted arrays are empty.
type PipelineBarrier struct {
	SrcStage PipelineStage
	DstStage PipelineStage
	Memory   []MemoryBarrier
	Buffer   []BufferBarrier
	Image    []ImageBarrier
}

// Empty reports whether b carries no barriers at all.
func (b *PipelineBarrier) Empty() bool {
	return len(b.Memory) == 0 && len(b.Buffer) == 0 && len(b.Image) == 0
}

// FeatureSet advertises which optional command families a Device
// supports. The contexts check these flags directly; Supports is a
// separate check of an API version string against a feature's minimum.
type FeatureSet struct {
	MeshShader        bool
	DrawIndirectCount bool
	DebugUtils        bool
	DispatchBase      bool
	RayTracing        bool
	ShadingRateImage  bool
}

// minAPIVersion maps a feature name to the minimum API version it
// implies; Supports reads it.
var minAPIVersion = map[string]*semver.Version{
	"mesh-shader":   semver.MustParse("1.2.0"),
	"dispatch-base": semver.MustParse("1.1.0"),
	"debug-utils":   semver.MustParse("1.0.0"),
}

// Supports reports whether api (a semver API version string such as
// "1.2.155") satisfies the minimum version requirement of the named
// feature. Features with no registered minimum always return true.
func Supports(api string, feature string) bool {
	min, ok := minAPIVersion[feature]
	if !ok {
		return true
	}
	v, err := semver.NewVersion(api)
	if err != nil {
		return false
	}
	return !v.LessThan(min)
}

// Device is the external device abstraction the core consumes (spec.md
// §6): a function-pointer table for every Vulkan entry point the core
// issues, either directly (direct-backend contexts) or via the indirect
// replayer (encode.go/replay.go). The core never fails to compile
// against a Device that lacks a feature; it checks Features() before
// issuing commands that need one.
type Device interface {
	// Features returns the capability flags enabled for this device.
	// The returned value is immutable for the device's lifetime.
	Features() FeatureSet

	// APIVersion returns the semver-formatted API version string, for
	// use with Supports.
	APIVersion() string

	// Queue returns the native queue handle for qt.
	Queue(qt QueueType) NativeHandle

	// -- Fences --

	CreateFence(signaled bool) (NativeHandle, error)
	WaitFences(fences []NativeHandle, waitAll bool, timeoutNanos int64) error
	ResetFences(fences []NativeHandle) error
	FenceSignaled(fence NativeHandle) (bool, error)
	DestroyFence(fence NativeHandle)

	// -- Semaphores --

	CreateSemaphore() (NativeHandle, error)
	DestroySemaphore(sem NativeHandle)

	// -- Command pools --

	CreateCommandPool(qt QueueType) (NativeHandle, error)
	ResetCommandPool(pool NativeHandle, releaseResources bool) error
	DestroyCommandPool(pool NativeHandle)

	// -- Command buffers --

	AllocateCommandBuffer(pool NativeHandle, secondary bool) (NativeHandle, error)
	FreeCommandBuffers(pool NativeHandle, cmdbufs []NativeHandle)
	BeginCommandBuffer(cb NativeHandle) error
	EndCommandBuffer(cb NativeHandle) error

	// -- Submission --

	// Submit executes batches on queue qt and signals fence once they
	// complete; each SubmitBatch lists the command buffers to execute, in
	// order, and the semaphores to wait on / signal.
	Submit(qt QueueType, batches []SubmitBatch, fence NativeHandle) error

	// -- Barriers --

	CmdPipelineBarrier(cb NativeHandle, b *PipelineBarrier)

	// -- Transfer commands (replayed by encode.go's transfer catalogue) --

	CmdClearColorImage(cb NativeHandle, img NativeHandle, layout ImageLayout, c ClearColor)
	CmdClearDepthStencilImage(cb NativeHandle, img NativeHandle, layout ImageLayout, v ClearDepthStencil)
	CmdFillBuffer(cb NativeHandle, buf NativeHandle, offset, size int64, value uint32)
	CmdUpdateBuffer(cb NativeHandle, buf NativeHandle, offset int64, data []byte)
	CmdCopyBuffer(cb NativeHandle, src, dst NativeHandle, srcOff, dstOff, size int64)
	CmdCopyImage(cb NativeHandle, src NativeHandle, dst NativeHandle, size Dim3D)
	CmdCopyBufferToImage(cb NativeHandle, buf NativeHandle, img NativeHandle, layout ImageLayout, off Off3D, size Dim3D)
	CmdCopyImageToBuffer(cb NativeHandle, img NativeHandle, layout ImageLayout, buf NativeHandle, off Off3D, size Dim3D)
	CmdDebugMarker(cb NativeHandle, label string)
	CmdPushDebugGroup(cb NativeHandle, label string, color [4]float32)
	CmdPopDebugGroup(cb NativeHandle)

	// -- Compute commands --

	CmdBindComputePipeline(cb NativeHandle, pipeline NativeHandle)
	CmdBindDescriptorSetCompute(cb NativeHandle, set NativeHandle, index int)
	CmdPushConstants(cb NativeHandle, stage PipelineStage, offset int, data []byte)
	CmdDispatch(cb NativeHandle, x, y, z int)
	CmdDispatchBase(cb NativeHandle, baseX, baseY, baseZ, x, y, z int)
	CmdDispatchIndirect(cb NativeHandle, buf NativeHandle, offset int64)

	// -- Graphics commands --

	CmdBlitImage(cb NativeHandle, src NativeHandle, dst NativeHandle, linear bool)
	CmdResolveImage(cb NativeHandle, src, dst NativeHandle, size Dim3D)

	// -- Draw commands --

	CmdBindGraphicsPipeline(cb NativeHandle, pipeline NativeHandle)
	CmdBindDescriptorSetGraphics(cb NativeHandle, set NativeHandle, index int)
	CmdSetViewport(cb NativeHandle, x, y, w, h float32)
	CmdSetScissor(cb NativeHandle, r Rect2D)
	CmdBindIndexBuffer(cb NativeHandle, buf NativeHandle, offset int64, format IndexFormat)
	CmdBindVertexBuffers(cb NativeHandle, firstBinding int, bufs []NativeHandle, offsets []int64)
	CmdDraw(cb NativeHandle, vertexCount, instanceCount, firstVertex, firstInstance int)
	CmdDrawIndexed(cb NativeHandle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int)
	CmdDrawIndirect(cb NativeHandle, buf NativeHandle, offset int64, drawCount int, stride int)
	CmdDrawIndexedIndirect(cb NativeHandle, buf NativeHandle, offset int64, drawCount int, stride int)
	CmdDrawMeshTasks(cb NativeHandle, x, y, z int)
}

// SubmitBatch groups the command buffers of one CommandBatch together
// with the semaphores that must be waited on before, and signaled after,
// executing them — the unit Device.Submit consumes.
type SubmitBatch struct {
	CmdBuffers []NativeHandle
	Wait       []NativeHandle
	WaitStage  []PipelineStage
	Signal     []NativeHandle
}
