// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "fmt"

// ReplayTransferComputeGraphics issues every recorded command in baked
// against dev/cb, in order, dispatching on command ID the way spec.md
// §4.4's replayer does. It stops at the first CmdEnd sentinel (or the
// end of the stream, whichever comes first).
func ReplayTransferComputeGraphics(dev Device, cb NativeHandle, baked BakedCommands) error {
	for _, rec := range baked.cmds {
		switch rec.id {
		case CmdEnd:
			return nil

		case CmdClearColorImage:
			p := rec.payload.(cmdClearColorImage)
			dev.CmdClearColorImage(cb, p.Image, p.Layout, p.Color)
		case CmdClearDepthStencilImage:
			p := rec.payload.(cmdClearDepthStencilImage)
			dev.CmdClearDepthStencilImage(cb, p.Image, p.Layout, p.Value)
		case CmdFillBuffer:
			p := rec.payload.(cmdFillBuffer)
			dev.CmdFillBuffer(cb, p.Buffer, p.Offset, p.Size, p.Value)
		case CmdUpdateBuffer:
			p := rec.payload.(cmdUpdateBuffer)
			dev.CmdUpdateBuffer(cb, p.Buffer, p.Offset, p.Data)
		case CmdCopyBuffer:
			p := rec.payload.(cmdCopyBuffer)
			dev.CmdCopyBuffer(cb, p.Src, p.Dst, p.SrcOff, p.DstOff, p.Size)
		case CmdCopyImage:
			p := rec.payload.(cmdCopyImage)
			dev.CmdCopyImage(cb, p.Src, p.Dst, p.Size)
		case CmdCopyBufferToImage:
			p := rec.payload.(cmdCopyBufferToImage)
			dev.CmdCopyBufferToImage(cb, p.Buffer, p.Image, p.Layout, p.Offset, p.Size)
		case CmdCopyImageToBuffer:
			p := rec.payload.(cmdCopyImageToBuffer)
			dev.CmdCopyImageToBuffer(cb, p.Image, p.Layout, p.Buffer, p.Offset, p.Size)
		case CmdDebugMarker:
			p := rec.payload.(cmdDebugMarker)
			dev.CmdDebugMarker(cb, p.Label)
		case CmdPushDebugGroup:
			p := rec.payload.(cmdPushDebugGroup)
			dev.CmdPushDebugGroup(cb, p.Label, p.Color)
		case CmdPopDebugGroup:
			dev.CmdPopDebugGroup(cb)
		case CmdPipelineBarrier:
			p := rec.payload.(cmdPipelineBarrier)
			dev.CmdPipelineBarrier(cb, &p.Barrier)

		case CmdBindComputePipeline:
			p := rec.payload.(cmdBindComputePipeline)
			dev.CmdBindComputePipeline(cb, p.Pipeline)
		case CmdBindDescriptorSetCompute:
			p := rec.payload.(cmdBindDescriptorSetCompute)
			dev.CmdBindDescriptorSetCompute(cb, p.Set, p.Index)
		case CmdPushConstants:
			p := rec.payload.(cmdPushConstants)
			dev.CmdPushConstants(cb, p.Stage, p.Offset, p.Data)
		case CmdDispatch:
			p := rec.payload.(cmdDispatch)
			dev.CmdDispatch(cb, p.X, p.Y, p.Z)
		case CmdDispatchBase:
			p := rec.payload.(cmdDispatchBase)
			dev.CmdDispatchBase(cb, p.BaseX, p.BaseY, p.BaseZ, p.X, p.Y, p.Z)
		case CmdDispatchIndirect:
			p := rec.payload.(cmdDispatchIndirect)
			dev.CmdDispatchIndirect(cb, p.Buffer, p.Offset)

		case CmdBlitImage:
			p := rec.payload.(cmdBlitImage)
			dev.CmdBlitImage(cb, p.Src, p.Dst, p.Linear)
		case CmdResolveImage:
			p := rec.payload.(cmdResolveImage)
			dev.CmdResolveImage(cb, p.Src, p.Dst, p.Size)

		default:
			return fmt.Errorf("%w: unknown transfer/compute/graphics command id %d", ErrTruncatedCommand, rec.id)
		}
	}
	return nil
}

// ReplayDraw issues every recorded draw-tier command in baked against
// dev/cb. Draw commands are replayed by this separate entry point since
// spec.md §4.4 defines them as a disjoint command-ID family.
func ReplayDraw(dev Device, cb NativeHandle, baked BakedCommands) error {
	for _, rec := range baked.cmds {
		switch rec.id {
		case CmdDrawEnd:
			return nil

		case CmdBindGraphicsPipeline:
			p := rec.payload.(cmdBindGraphicsPipeline)
			dev.CmdBindGraphicsPipeline(cb, p.Pipeline)
		case CmdBindDescriptorSetGraphics:
			p := rec.payload.(cmdBindDescriptorSetGraphics)
			dev.CmdBindDescriptorSetGraphics(cb, p.Set, p.Index)
		case CmdSetViewport:
			p := rec.payload.(cmdSetViewport)
			dev.CmdSetViewport(cb, p.X, p.Y, p.W, p.H)
		case CmdSetScissor:
			p := rec.payload.(cmdSetScissor)
			dev.CmdSetScissor(cb, p.Rect)
		case CmdBindIndexBuffer:
			p := rec.payload.(cmdBindIndexBuffer)
			dev.CmdBindIndexBuffer(cb, p.Buffer, p.Offset, p.Format)
		case CmdBindVertexBuffers:
			p := rec.payload.(cmdBindVertexBuffers)
			dev.CmdBindVertexBuffers(cb, p.FirstBinding, p.Buffers, p.Offsets)
		case CmdDraw:
			p := rec.payload.(cmdDraw)
			dev.CmdDraw(cb, p.VertexCount, p.InstanceCount, p.FirstVertex, p.FirstInstance)
		case CmdDrawIndexed:
			p := rec.payload.(cmdDrawIndexed)
			dev.CmdDrawIndexed(cb, p.IndexCount, p.InstanceCount, p.FirstIndex, p.VertexOffset, p.FirstInstance)
		case CmdDrawIndirect:
			p := rec.payload.(cmdDrawIndirect)
			dev.CmdDrawIndirect(cb, p.Buffer, p.Offset, p.DrawCount, p.Stride)
		case CmdDrawIndexedIndirect:
			p := rec.payload.(cmdDrawIndexedIndirect)
			dev.CmdDrawIndexedIndirect(cb, p.Buffer, p.Offset, p.DrawCount, p.Stride)
		case CmdDrawMeshTasks:
			p := rec.payload.(cmdDrawMeshTasks)
			dev.CmdDrawMeshTasks(cb, p.X, p.Y, p.Z)

		default:
			return fmt.Errorf("%w: unknown draw command id %d", ErrTruncatedCommand, rec.id)
		}
	}
	return nil
}
