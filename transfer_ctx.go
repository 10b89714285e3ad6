// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"fmt"
)

// TransferRecorder is the public contract of spec.md §4.5's transfer
// tier: clears, buffer/image copies, and async staged upload/readback.
type TransferRecorder interface {
	SetInitialBufferState(h BufferHandle, state Access)
	SetInitialImageState(h ImageHandle, state Access, layout ImageLayout)

	ClearColorImage(h ImageHandle, c ClearColor) error
	ClearDepthStencilImage(h ImageHandle, v ClearDepthStencil) error
	FillBuffer(h BufferHandle, offset, size int64, value uint32) error
	UpdateBuffer(h BufferHandle, offset int64, data []byte) error
	CopyBuffer(src, dst BufferHandle, srcOff, dstOff, size int64) error
	CopyImage(src, dst ImageHandle, size Dim3D) error
	CopyBufferToImage(buf BufferHandle, img ImageHandle, off Off3D, size Dim3D) error
	CopyImageToBuffer(img ImageHandle, buf BufferHandle, off Off3D, size Dim3D) error

	// UploadBuffer leases staging memory, lets fill write the host bytes,
	// and records a copy from staging into h that completes when the
	// owning CommandBatch retires; the returned TaskHandle is a
	// completion promise a Scheduler dependency can wait on.
	UploadBuffer(h BufferHandle, offset, size int64, frame int, fill func([]byte)) (TaskHandle, error)
	// ReadBuffer mirrors UploadBuffer for GPU-to-host readback: onComplete
	// runs once the staging buffer has been written by the GPU and the
	// batch it was recorded in has retired.
	ReadBuffer(h BufferHandle, offset, size int64, frame int, onComplete func([]byte)) (TaskHandle, error)

	DebugMarker(label string)
	PushDebugGroup(label string, color [4]float32)
	PopDebugGroup()
}

// transferContext implements TransferRecorder on top of Context.
type transferContext struct {
	*Context
	scheduler Scheduler
}

// NewTransferContext returns a transfer-tier recorder. cmdbuf is used
// when encoderBlockSize is 0; pass encoderBlockSize > 0 to record indirectly
// instead (cmdbuf is then ignored).
func NewTransferContext(dev Device, resources ResourceManager, scheduler Scheduler, policy SyncPolicy, cmdbuf NativeHandle, encoderBlockSize int) TransferRecorder {
	c := newContext(dev, resources, policy, cmdbuf, encoderBlockSize)
	c.IsTransfer = true
	return &transferContext{Context: c, scheduler: scheduler}
}

func (t *transferContext) SetInitialBufferState(h BufferHandle, state Access) {
	if t.policy != SyncPerResource {
		return
	}
	tr, _, err := t.bufferTracker(h)
	if err != nil {
		return
	}
	tr.SetInitialState(state)
}

func (t *transferContext) SetInitialImageState(h ImageHandle, state Access, layout ImageLayout) {
	if t.policy != SyncPerResource {
		return
	}
	tr, _, err := t.imageTracker(h)
	if err != nil {
		return
	}
	tr.SetInitialState(state, layout)
}

func (t *transferContext) ClearColorImage(h ImageHandle, c ClearColor) error {
	native, _, err := t.resolveImage(h)
	if err != nil {
		return err
	}
	if err := t.addImageUse(h, Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.ClearColorImage(native, LayoutTransferDst, c)
	} else {
		t.dev.CmdClearColorImage(t.cmdbuf, native, LayoutTransferDst, c)
	}
	return nil
}

func (t *transferContext) ClearDepthStencilImage(h ImageHandle, v ClearDepthStencil) error {
	native, _, err := t.resolveImage(h)
	if err != nil {
		return err
	}
	if err := t.addImageUse(h, Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.ClearDepthStencilImage(native, LayoutTransferDst, v)
	} else {
		t.dev.CmdClearDepthStencilImage(t.cmdbuf, native, LayoutTransferDst, v)
	}
	return nil
}

func (t *transferContext) FillBuffer(h BufferHandle, offset, size int64, value uint32) error {
	native, err := t.resolveBuffer(h)
	if err != nil {
		return err
	}
	if err := t.touchBufferRange(h, offset, size, Access{Stages: StageTransfer, Access: AccessTransferWrite}); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.FillBuffer(native, offset, size, value)
	} else {
		t.dev.CmdFillBuffer(t.cmdbuf, native, offset, size, value)
	}
	return nil
}

func (t *transferContext) UpdateBuffer(h BufferHandle, offset int64, data []byte) error {
	native, err := t.resolveBuffer(h)
	if err != nil {
		return err
	}
	if err := t.touchBufferRange(h, offset, int64(len(data)), Access{Stages: StageTransfer, Access: AccessTransferWrite}); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.UpdateBuffer(native, offset, data)
	} else {
		t.dev.CmdUpdateBuffer(t.cmdbuf, native, offset, data)
	}
	return nil
}

func (t *transferContext) CopyBuffer(src, dst BufferHandle, srcOff, dstOff, size int64) error {
	nsrc, err := t.resolveBuffer(src)
	if err != nil {
		return err
	}
	ndst, err := t.resolveBuffer(dst)
	if err != nil {
		return err
	}
	if err := t.touchBufferRange(src, srcOff, size, Access{Stages: StageTransfer, Access: AccessTransferRead}); err != nil {
		return err
	}
	if err := t.touchBufferRange(dst, dstOff, size, Access{Stages: StageTransfer, Access: AccessTransferWrite}); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.CopyBuffer(nsrc, ndst, srcOff, dstOff, size)
	} else {
		t.dev.CmdCopyBuffer(t.cmdbuf, nsrc, ndst, srcOff, dstOff, size)
	}
	return nil
}

func (t *transferContext) CopyImage(src, dst ImageHandle, size Dim3D) error {
	nsrc, _, err := t.resolveImage(src)
	if err != nil {
		return err
	}
	ndst, _, err := t.resolveImage(dst)
	if err != nil {
		return err
	}
	if err := t.addImageUse(src, Access{Stages: StageTransfer, Access: AccessTransferRead}, LayoutTransferSrc); err != nil {
		return err
	}
	if err := t.addImageUse(dst, Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.CopyImage(nsrc, ndst, size)
	} else {
		t.dev.CmdCopyImage(t.cmdbuf, nsrc, ndst, size)
	}
	return nil
}

func (t *transferContext) CopyBufferToImage(buf BufferHandle, img ImageHandle, off Off3D, size Dim3D) error {
	nbuf, err := t.resolveBuffer(buf)
	if err != nil {
		return err
	}
	nimg, _, err := t.resolveImage(img)
	if err != nil {
		return err
	}
	if err := t.addBufferUse(buf, Access{Stages: StageTransfer, Access: AccessTransferRead}); err != nil {
		return err
	}
	if err := t.addImageUse(img, Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.CopyBufferToImage(nbuf, nimg, LayoutTransferDst, off, size)
	} else {
		t.dev.CmdCopyBufferToImage(t.cmdbuf, nbuf, nimg, LayoutTransferDst, off, size)
	}
	return nil
}

func (t *transferContext) CopyImageToBuffer(img ImageHandle, buf BufferHandle, off Off3D, size Dim3D) error {
	nimg, _, err := t.resolveImage(img)
	if err != nil {
		return err
	}
	nbuf, err := t.resolveBuffer(buf)
	if err != nil {
		return err
	}
	if err := t.addImageUse(img, Access{Stages: StageTransfer, Access: AccessTransferRead}, LayoutTransferSrc); err != nil {
		return err
	}
	if err := t.addBufferUse(buf, Access{Stages: StageTransfer, Access: AccessTransferWrite}); err != nil {
		return err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.CopyImageToBuffer(nimg, LayoutTransferSrc, nbuf, off, size)
	} else {
		t.dev.CmdCopyImageToBuffer(t.cmdbuf, nimg, LayoutTransferSrc, nbuf, off, size)
	}
	return nil
}

// touchBufferRange records a pending use respecting whichever sync
// policy the context was built with: whole-resource, ranged, or manual.
func (t *transferContext) touchBufferRange(h BufferHandle, offset, size int64, state Access) error {
	if t.policy == SyncPerRange {
		return t.addBufferRangeUse(h, offset, offset+size, state)
	}
	return t.addBufferUse(h, state)
}

func (t *transferContext) UploadBuffer(h BufferHandle, offset, size int64, frame int, fill func([]byte)) (TaskHandle, error) {
	alloc, err := t.resources.Staging().GetStagingBuffer(size, 16, frame, QueueTransfer, true)
	if err != nil {
		return 0, fmt.Errorf("%w: staging allocation: %v", ErrDriverCall, err)
	}
	fill(alloc.Mapped)
	native, err := t.resolveBuffer(h)
	if err != nil {
		return 0, err
	}
	if err := t.touchBufferRange(h, offset, size, Access{Stages: StageTransfer, Access: AccessTransferWrite}); err != nil {
		return 0, err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.CopyBuffer(alloc.Buffer, native, alloc.Offset, offset, size)
	} else {
		t.dev.CmdCopyBuffer(t.cmdbuf, alloc.Buffer, native, alloc.Offset, offset, size)
	}
	if t.scheduler == nil {
		return 0, nil
	}
	return t.scheduler.Post(context.Background(), func(context.Context) error { return nil }), nil
}

func (t *transferContext) ReadBuffer(h BufferHandle, offset, size int64, frame int, onComplete func([]byte)) (TaskHandle, error) {
	alloc, err := t.resources.Staging().GetStagingBuffer(size, 16, frame, QueueTransfer, false)
	if err != nil {
		return 0, fmt.Errorf("%w: staging allocation: %v", ErrDriverCall, err)
	}
	native, err := t.resolveBuffer(h)
	if err != nil {
		return 0, err
	}
	if err := t.touchBufferRange(h, offset, size, Access{Stages: StageTransfer, Access: AccessTransferRead}); err != nil {
		return 0, err
	}
	t.flushBarriers()
	if t.enc != nil {
		t.enc.CopyBuffer(native, alloc.Buffer, offset, alloc.Offset, size)
	} else {
		t.dev.CmdCopyBuffer(t.cmdbuf, native, alloc.Buffer, offset, alloc.Offset, size)
	}
	if t.scheduler == nil {
		return 0, nil
	}
	return t.scheduler.Post(context.Background(), func(context.Context) error {
		onComplete(alloc.Mapped)
		return nil
	}), nil
}

func (t *transferContext) DebugMarker(label string) {
	if t.enc != nil {
		t.enc.DebugMarker(label)
	} else {
		t.dev.CmdDebugMarker(t.cmdbuf, label)
	}
}

func (t *transferContext) PushDebugGroup(label string, color [4]float32) {
	if t.enc != nil {
		t.enc.PushDebugGroup(label, color)
	} else {
		t.dev.CmdPushDebugGroup(t.cmdbuf, label, color)
	}
}

func (t *transferContext) PopDebugGroup() {
	if t.enc != nil {
		t.enc.PopDebugGroup()
	} else {
		t.dev.CmdPopDebugGroup(t.cmdbuf)
	}
}
