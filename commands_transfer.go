// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Transfer-tier command payloads (spec.md §4.4's transfer base
// catalogue). Each Encoder method below appends the corresponding
// encodedCommand; the pending-state needed for automatic barrier
// derivation is recorded by the caller (transfer_ctx.go).

type cmdClearColorImage struct {
	Image  NativeHandle
	Layout ImageLayout
	Color  ClearColor
}

func (e *Encoder) ClearColorImage(img NativeHandle, layout ImageLayout, c ClearColor) {
	e.push(CmdClearColorImage, cmdClearColorImage{Image: img, Layout: layout, Color: c})
}

type cmdClearDepthStencilImage struct {
	Image  NativeHandle
	Layout ImageLayout
	Value  ClearDepthStencil
}

func (e *Encoder) ClearDepthStencilImage(img NativeHandle, layout ImageLayout, v ClearDepthStencil) {
	e.push(CmdClearDepthStencilImage, cmdClearDepthStencilImage{Image: img, Layout: layout, Value: v})
}

type cmdFillBuffer struct {
	Buffer       NativeHandle
	Offset, Size int64
	Value        uint32
}

func (e *Encoder) FillBuffer(buf NativeHandle, offset, size int64, value uint32) {
	e.push(CmdFillBuffer, cmdFillBuffer{Buffer: buf, Offset: offset, Size: size, Value: value})
}

type cmdUpdateBuffer struct {
	Buffer NativeHandle
	Offset int64
	Data   []byte
}

func (e *Encoder) UpdateBuffer(buf NativeHandle, offset int64, data []byte) {
	owned := append([]byte(nil), data...)
	e.push(CmdUpdateBuffer, cmdUpdateBuffer{Buffer: buf, Offset: offset, Data: owned})
}

type cmdCopyBuffer struct {
	Src, Dst         NativeHandle
	SrcOff, DstOff, Size int64
}

func (e *Encoder) CopyBuffer(src, dst NativeHandle, srcOff, dstOff, size int64) {
	e.push(CmdCopyBuffer, cmdCopyBuffer{Src: src, Dst: dst, SrcOff: srcOff, DstOff: dstOff, Size: size})
}

type cmdCopyImage struct {
	Src, Dst NativeHandle
	Size     Dim3D
}

func (e *Encoder) CopyImage(src, dst NativeHandle, size Dim3D) {
	e.push(CmdCopyImage, cmdCopyImage{Src: src, Dst: dst, Size: size})
}

type cmdCopyBufferToImage struct {
	Buffer NativeHandle
	Image  NativeHandle
	Layout ImageLayout
	Offset Off3D
	Size   Dim3D
}

func (e *Encoder) CopyBufferToImage(buf, img NativeHandle, layout ImageLayout, off Off3D, size Dim3D) {
	e.push(CmdCopyBufferToImage, cmdCopyBufferToImage{Buffer: buf, Image: img, Layout: layout, Offset: off, Size: size})
}

type cmdCopyImageToBuffer struct {
	Image  NativeHandle
	Layout ImageLayout
	Buffer NativeHandle
	Offset Off3D
	Size   Dim3D
}

func (e *Encoder) CopyImageToBuffer(img NativeHandle, layout ImageLayout, buf NativeHandle, off Off3D, size Dim3D) {
	e.push(CmdCopyImageToBuffer, cmdCopyImageToBuffer{Image: img, Layout: layout, Buffer: buf, Offset: off, Size: size})
}

type cmdDebugMarker struct{ Label string }

func (e *Encoder) DebugMarker(label string) { e.push(CmdDebugMarker, cmdDebugMarker{Label: label}) }

type cmdPushDebugGroup struct {
	Label string
	Color [4]float32
}

func (e *Encoder) PushDebugGroup(label string, color [4]float32) {
	e.push(CmdPushDebugGroup, cmdPushDebugGroup{Label: label, Color: color})
}

type cmdPopDebugGroup struct{}

func (e *Encoder) PopDebugGroup() { e.push(CmdPopDebugGroup, cmdPopDebugGroup{}) }

type cmdPipelineBarrier struct{ Barrier PipelineBarrier }

func (e *Encoder) PipelineBarrier(b PipelineBarrier) {
	e.push(CmdPipelineBarrier, cmdPipelineBarrier{Barrier: b})
}
