// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	vk "github.com/goki/vulkan"

	"github.com/gviegas/rendergraph"
)

// -- Transfer commands --

func (d *Device) CmdClearColorImage(cb, img rendergraph.NativeHandle, layout rendergraph.ImageLayout, c rendergraph.ClearColor) {
	val := vk.NewClearColorValue(c.R, c.G, c.B, c.A)
	rng := []vk.ImageSubresourceRange{{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: vk.RemainingMipLevels,
		LayerCount: vk.RemainingArrayLayers,
	}}
	vk.CmdClearColorImage(toCommandBuffer(cb), vk.Image(toHandle(img)), imageLayout(layout), &val, 1, rng)
}

func (d *Device) CmdClearDepthStencilImage(cb, img rendergraph.NativeHandle, layout rendergraph.ImageLayout, v rendergraph.ClearDepthStencil) {
	val := vk.ClearDepthStencilValue{Depth: v.Depth, Stencil: v.Stencil}
	rng := []vk.ImageSubresourceRange{{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit | vk.ImageAspectStencilBit),
		LevelCount: vk.RemainingMipLevels,
		LayerCount: vk.RemainingArrayLayers,
	}}
	vk.CmdClearDepthStencilImage(toCommandBuffer(cb), vk.Image(toHandle(img)), imageLayout(layout), &val, 1, rng)
}

func (d *Device) CmdFillBuffer(cb, buf rendergraph.NativeHandle, offset, size int64, value uint32) {
	sz := vk.DeviceSize(size)
	if size < 0 {
		sz = vk.WholeSize
	}
	vk.CmdFillBuffer(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.DeviceSize(offset), sz, value)
}

func (d *Device) CmdUpdateBuffer(cb, buf rendergraph.NativeHandle, offset int64, data []byte) {
	vk.CmdUpdateBuffer(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.DeviceSize(offset), vk.DeviceSize(len(data)), data)
}

func (d *Device) CmdCopyBuffer(cb, src, dst rendergraph.NativeHandle, srcOff, dstOff, size int64) {
	regions := []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(srcOff),
		DstOffset: vk.DeviceSize(dstOff),
		Size:      vk.DeviceSize(size),
	}}
	vk.CmdCopyBuffer(toCommandBuffer(cb), vk.Buffer(toHandle(src)), vk.Buffer(toHandle(dst)), 1, regions)
}

func (d *Device) CmdCopyImage(cb, src, dst rendergraph.NativeHandle, size rendergraph.Dim3D) {
	sub := vk.ImageSubresourceLayers{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LayerCount: 1,
	}
	regions := []vk.ImageCopy{{
		SrcSubresource: sub,
		DstSubresource: sub,
		Extent:         vk.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), Depth: uint32(size.Depth)},
	}}
	vk.CmdCopyImage(toCommandBuffer(cb),
		vk.Image(toHandle(src)), vk.ImageLayoutTransferSrcOptimal,
		vk.Image(toHandle(dst)), vk.ImageLayoutTransferDstOptimal,
		1, regions)
}

func (d *Device) CmdCopyBufferToImage(cb, buf, img rendergraph.NativeHandle, layout rendergraph.ImageLayout, off rendergraph.Off3D, size rendergraph.Dim3D) {
	regions := []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(off.X), Y: int32(off.Y), Z: int32(off.Z)},
		ImageExtent: vk.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), Depth: uint32(size.Depth)},
	}}
	vk.CmdCopyBufferToImage(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.Image(toHandle(img)), imageLayout(layout), 1, regions)
}

func (d *Device) CmdCopyImageToBuffer(cb, img rendergraph.NativeHandle, layout rendergraph.ImageLayout, buf rendergraph.NativeHandle, off rendergraph.Off3D, size rendergraph.Dim3D) {
	regions := []vk.BufferImageCopy{{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: int32(off.X), Y: int32(off.Y), Z: int32(off.Z)},
		ImageExtent: vk.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), Depth: uint32(size.Depth)},
	}}
	vk.CmdCopyImageToBuffer(toCommandBuffer(cb), vk.Image(toHandle(img)), imageLayout(layout), vk.Buffer(toHandle(buf)), 1, regions)
}

func (d *Device) CmdDebugMarker(cb rendergraph.NativeHandle, label string) {
	if !d.feats.DebugUtils {
		return
	}
	info := vk.DebugUtilsLabelEXT{SType: vk.StructureTypeDebugUtilsLabelExt, PLabelName: label + "\x00"}
	vk.CmdInsertDebugUtilsLabelEXT(toCommandBuffer(cb), &info)
}

func (d *Device) CmdPushDebugGroup(cb rendergraph.NativeHandle, label string, color [4]float32) {
	if !d.feats.DebugUtils {
		return
	}
	info := vk.DebugUtilsLabelEXT{SType: vk.StructureTypeDebugUtilsLabelExt, PLabelName: label + "\x00", Color: color}
	vk.CmdBeginDebugUtilsLabelEXT(toCommandBuffer(cb), &info)
}

func (d *Device) CmdPopDebugGroup(cb rendergraph.NativeHandle) {
	if !d.feats.DebugUtils {
		return
	}
	vk.CmdEndDebugUtilsLabelEXT(toCommandBuffer(cb))
}

// -- Compute commands --

func (d *Device) CmdBindComputePipeline(cb, pipeline rendergraph.NativeHandle) {
	vk.CmdBindPipeline(toCommandBuffer(cb), vk.PipelineBindPointCompute, vk.Pipeline(toHandle(pipeline)))
}

func (d *Device) CmdBindDescriptorSetCompute(cb, set rendergraph.NativeHandle, index int) {
	sets := []vk.DescriptorSet{vk.DescriptorSet(toHandle(set))}
	vk.CmdBindDescriptorSets(toCommandBuffer(cb), vk.PipelineBindPointCompute, vk.PipelineLayout(0),
		uint32(index), 1, sets, 0, nil)
}

func (d *Device) CmdPushConstants(cb rendergraph.NativeHandle, stage rendergraph.PipelineStage, offset int, data []byte) {
	vk.CmdPushConstants(toCommandBuffer(cb), vk.PipelineLayout(0), vk.ShaderStageFlags(stageFlags(stage)), uint32(offset), uint32(len(data)), data)
}

func (d *Device) CmdDispatch(cb rendergraph.NativeHandle, x, y, z int) {
	vk.CmdDispatch(toCommandBuffer(cb), uint32(x), uint32(y), uint32(z))
}

func (d *Device) CmdDispatchBase(cb rendergraph.NativeHandle, baseX, baseY, baseZ, x, y, z int) {
	if !d.feats.DispatchBase {
		return
	}
	vk.CmdDispatchBase(toCommandBuffer(cb), uint32(baseX), uint32(baseY), uint32(baseZ), uint32(x), uint32(y), uint32(z))
}

func (d *Device) CmdDispatchIndirect(cb, buf rendergraph.NativeHandle, offset int64) {
	vk.CmdDispatchIndirect(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.DeviceSize(offset))
}

// -- Graphics commands --

func (d *Device) CmdBlitImage(cb, src, dst rendergraph.NativeHandle, linear bool) {
	filter := vk.FilterNearest
	if linear {
		filter = vk.FilterLinear
	}
	vk.CmdBlitImage(toCommandBuffer(cb),
		vk.Image(toHandle(src)), vk.ImageLayoutTransferSrcOptimal,
		vk.Image(toHandle(dst)), vk.ImageLayoutTransferDstOptimal,
		0, nil, filter)
}

func (d *Device) CmdResolveImage(cb, src, dst rendergraph.NativeHandle, size rendergraph.Dim3D) {
	sub := vk.ImageSubresourceLayers{AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit), LayerCount: 1}
	regions := []vk.ImageResolve{{
		SrcSubresource: sub,
		DstSubresource: sub,
		Extent:         vk.Extent3D{Width: uint32(size.Width), Height: uint32(size.Height), Depth: uint32(size.Depth)},
	}}
	vk.CmdResolveImage(toCommandBuffer(cb),
		vk.Image(toHandle(src)), vk.ImageLayoutTransferSrcOptimal,
		vk.Image(toHandle(dst)), vk.ImageLayoutTransferDstOptimal,
		1, regions)
}

// -- Draw commands --

func (d *Device) CmdBindGraphicsPipeline(cb, pipeline rendergraph.NativeHandle) {
	vk.CmdBindPipeline(toCommandBuffer(cb), vk.PipelineBindPointGraphics, vk.Pipeline(toHandle(pipeline)))
}

func (d *Device) CmdBindDescriptorSetGraphics(cb, set rendergraph.NativeHandle, index int) {
	sets := []vk.DescriptorSet{vk.DescriptorSet(toHandle(set))}
	vk.CmdBindDescriptorSets(toCommandBuffer(cb), vk.PipelineBindPointGraphics, vk.PipelineLayout(0),
		uint32(index), 1, sets, 0, nil)
}

func (d *Device) CmdSetViewport(cb rendergraph.NativeHandle, x, y, w, h float32) {
	vps := []vk.Viewport{{X: x, Y: y, Width: w, Height: h, MinDepth: 0, MaxDepth: 1}}
	vk.CmdSetViewport(toCommandBuffer(cb), 0, 1, vps)
}

func (d *Device) CmdSetScissor(cb rendergraph.NativeHandle, r rendergraph.Rect2D) {
	rects := []vk.Rect2D{{
		Offset: vk.Offset2D{X: int32(r.X), Y: int32(r.Y)},
		Extent: vk.Extent2D{Width: uint32(r.Width), Height: uint32(r.Height)},
	}}
	vk.CmdSetScissor(toCommandBuffer(cb), 0, 1, rects)
}

func (d *Device) CmdBindIndexBuffer(cb, buf rendergraph.NativeHandle, offset int64, format rendergraph.IndexFormat) {
	vk.CmdBindIndexBuffer(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.DeviceSize(offset), indexType(format))
}

func (d *Device) CmdBindVertexBuffers(cb rendergraph.NativeHandle, firstBinding int, bufs []rendergraph.NativeHandle, offsets []int64) {
	vbufs := make([]vk.Buffer, len(bufs))
	voffs := make([]vk.DeviceSize, len(offsets))
	for i, b := range bufs {
		vbufs[i] = vk.Buffer(toHandle(b))
	}
	for i, o := range offsets {
		voffs[i] = vk.DeviceSize(o)
	}
	vk.CmdBindVertexBuffers(toCommandBuffer(cb), uint32(firstBinding), uint32(len(vbufs)), vbufs, voffs)
}

func (d *Device) CmdDraw(cb rendergraph.NativeHandle, vertexCount, instanceCount, firstVertex, firstInstance int) {
	vk.CmdDraw(toCommandBuffer(cb), uint32(vertexCount), uint32(instanceCount), uint32(firstVertex), uint32(firstInstance))
}

func (d *Device) CmdDrawIndexed(cb rendergraph.NativeHandle, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance int) {
	vk.CmdDrawIndexed(toCommandBuffer(cb), uint32(indexCount), uint32(instanceCount), uint32(firstIndex), int32(vertexOffset), uint32(firstInstance))
}

func (d *Device) CmdDrawIndirect(cb, buf rendergraph.NativeHandle, offset int64, drawCount int, stride int) {
	vk.CmdDrawIndirect(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.DeviceSize(offset), uint32(drawCount), uint32(stride))
}

func (d *Device) CmdDrawIndexedIndirect(cb, buf rendergraph.NativeHandle, offset int64, drawCount int, stride int) {
	vk.CmdDrawIndexedIndirect(toCommandBuffer(cb), vk.Buffer(toHandle(buf)), vk.DeviceSize(offset), uint32(drawCount), uint32(stride))
}

func (d *Device) CmdDrawMeshTasks(cb rendergraph.NativeHandle, x, y, z int) {
	if !d.feats.MeshShader {
		return
	}
	vk.CmdDrawMeshTasksEXT(toCommandBuffer(cb), uint32(x), uint32(y), uint32(z))
}
