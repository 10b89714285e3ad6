// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/gviegas/rendergraph"
)

// handleOf folds any of the dispatchable/non-dispatchable vk handle
// types the core cares about into a rendergraph.NativeHandle.
// Non-dispatchable handles (fences, semaphores, pools, buffers, images,
// pipelines, descriptor sets) are plain 64-bit integers under the vk
// bindings; dispatchable ones (queues, command buffers) are pointers
// and go through unsafe.Pointer, matching vgpu's own practice of
// carrying vk.* handles by value through its own types.
func handleOf(h any) rendergraph.NativeHandle {
	switch v := h.(type) {
	case vk.Fence:
		return rendergraph.NativeHandle(v)
	case vk.Semaphore:
		return rendergraph.NativeHandle(v)
	case vk.CommandPool:
		return rendergraph.NativeHandle(v)
	case vk.Buffer:
		return rendergraph.NativeHandle(v)
	case vk.Image:
		return rendergraph.NativeHandle(v)
	case vk.Pipeline:
		return rendergraph.NativeHandle(v)
	case vk.DescriptorSet:
		return rendergraph.NativeHandle(v)
	case vk.CommandBuffer:
		return rendergraph.NativeHandle(uintptr(unsafe.Pointer(v)))
	case vk.Queue:
		return rendergraph.NativeHandle(uintptr(unsafe.Pointer(v)))
	default:
		panic("vkdevice: unsupported handle type")
	}
}

// toHandle is the inverse of handleOf for the non-dispatchable handles
// that are plain integers under the vk bindings (fences, semaphores,
// pools, buffers, images, pipelines, descriptor sets).
func toHandle(h rendergraph.NativeHandle) uint64 { return uint64(h) }

// toCommandBuffer and toQueue recover the dispatchable, pointer-backed
// handles toHandle cannot represent losslessly on its own.
func toCommandBuffer(h rendergraph.NativeHandle) vk.CommandBuffer {
	return vk.CommandBuffer(unsafe.Pointer(uintptr(h)))
}

func toQueue(h rendergraph.NativeHandle) vk.Queue {
	return vk.Queue(unsafe.Pointer(uintptr(h)))
}

func toFenceSlice(hs []rendergraph.NativeHandle) []vk.Fence {
	out := make([]vk.Fence, len(hs))
	for i, h := range hs {
		out[i] = vk.Fence(toHandle(h))
	}
	return out
}

// stageFlags narrows the core's PipelineStage bitmask down to the
// single native bit value CmdPipelineBarrier/SubmitInfo need. Contexts
// only ever set a single bit per transition edge (aggregator.go merges
// multiple edges by OR-ing access, not stage, masks), so the first set
// bit is the stage this barrier call means.
func stageFlags(s rendergraph.PipelineStage) vk.PipelineStageFlagBits {
	switch {
	case s&rendergraph.StageTopOfPipe != 0:
		return vk.PipelineStageTopOfPipeBit
	case s&rendergraph.StageTransfer != 0:
		return vk.PipelineStageTransferBit
	case s&rendergraph.StageComputeShader != 0:
		return vk.PipelineStageComputeShaderBit
	case s&rendergraph.StageVertexInput != 0:
		return vk.PipelineStageVertexInputBit
	case s&rendergraph.StageVertexShader != 0:
		return vk.PipelineStageVertexShaderBit
	case s&rendergraph.StageFragmentShader != 0:
		return vk.PipelineStageFragmentShaderBit
	case s&rendergraph.StageColorOutput != 0:
		return vk.PipelineStageColorAttachmentOutputBit
	case s&rendergraph.StageDepthStencil != 0:
		return vk.PipelineStageEarlyFragmentTestsBit
	case s&rendergraph.StageResolve != 0:
		return vk.PipelineStageColorAttachmentOutputBit
	case s&rendergraph.StageDrawIndirect != 0:
		return vk.PipelineStageDrawIndirectBit
	case s&rendergraph.StageBottomOfPipe != 0:
		return vk.PipelineStageBottomOfPipeBit
	default:
		return vk.PipelineStageAllCommandsBit
	}
}

func accessFlags(a rendergraph.AccessMask) vk.AccessFlags {
	var flags vk.AccessFlagBits
	add := func(bit rendergraph.AccessMask, f vk.AccessFlagBits) {
		if a&bit != 0 {
			flags |= f
		}
	}
	add(rendergraph.AccessTransferRead, vk.AccessTransferReadBit)
	add(rendergraph.AccessTransferWrite, vk.AccessTransferWriteBit)
	add(rendergraph.AccessUniformRead, vk.AccessUniformReadBit)
	add(rendergraph.AccessShaderRead, vk.AccessShaderReadBit)
	add(rendergraph.AccessShaderWrite, vk.AccessShaderWriteBit)
	add(rendergraph.AccessColorRead, vk.AccessColorAttachmentReadBit)
	add(rendergraph.AccessColorWrite, vk.AccessColorAttachmentWriteBit)
	add(rendergraph.AccessDepthStencilRead, vk.AccessDepthStencilAttachmentReadBit)
	add(rendergraph.AccessDepthStencilWrite, vk.AccessDepthStencilAttachmentWriteBit)
	add(rendergraph.AccessIndirectCommandRead, vk.AccessIndirectCommandReadBit)
	add(rendergraph.AccessVertexAttributeRead, vk.AccessVertexAttributeReadBit)
	add(rendergraph.AccessIndexRead, vk.AccessIndexReadBit)
	add(rendergraph.AccessHostRead, vk.AccessHostReadBit)
	add(rendergraph.AccessHostWrite, vk.AccessHostWriteBit)
	return vk.AccessFlags(flags)
}

func imageLayout(l rendergraph.ImageLayout) vk.ImageLayout {
	switch l {
	case rendergraph.LayoutUndefined:
		return vk.ImageLayoutUndefined
	case rendergraph.LayoutGeneral:
		return vk.ImageLayoutGeneral
	case rendergraph.LayoutColorTarget:
		return vk.ImageLayoutColorAttachmentOptimal
	case rendergraph.LayoutDepthStencilTarget:
		return vk.ImageLayoutDepthStencilAttachmentOptimal
	case rendergraph.LayoutDepthStencilRead:
		return vk.ImageLayoutDepthStencilReadOnlyOptimal
	case rendergraph.LayoutShaderReadOnly:
		return vk.ImageLayoutShaderReadOnlyOptimal
	case rendergraph.LayoutTransferSrc:
		return vk.ImageLayoutTransferSrcOptimal
	case rendergraph.LayoutTransferDst:
		return vk.ImageLayoutTransferDstOptimal
	case rendergraph.LayoutPresent:
		return vk.ImageLayoutPresentSrc
	default:
		return vk.ImageLayoutUndefined
	}
}

func indexType(f rendergraph.IndexFormat) vk.IndexType {
	if f == rendergraph.Index16 {
		return vk.IndexTypeUint16
	}
	return vk.IndexTypeUint32
}
