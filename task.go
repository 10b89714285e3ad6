// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "context"

// RenderTask is the acquire/record/publish unit of spec.md §4.6: at
// construction it reserves a slot in a CommandBatch's cooperative pool,
// and exactly one of PublishNative, PublishBaked, or Cancel must be
// called exactly once to complete it, maintaining the invariant that
// every acquired slot is eventually marked ready.
type RenderTask struct {
	batch     *CommandBatch
	slot      int
	acquired  bool
	published bool
}

// NewRenderTask acquires a slot from batch. If the batch is full,
// Acquired reports false and the caller must not record anything — the
// task has nothing to publish or cancel.
func NewRenderTask(batch *CommandBatch) *RenderTask {
	slot, ok := batch.Acquire()
	return &RenderTask{batch: batch, slot: slot, acquired: ok}
}

// Acquired reports whether the task reserved a slot. Callers should skip
// recording entirely when false, per spec.md §4.6's "returning a
// sentinel if full → task cancels itself" — there is no slot to cancel.
func (t *RenderTask) Acquired() bool { return t.acquired }

// PublishNative completes the task with an already-ended, directly
// recorded command buffer.
func (t *RenderTask) PublishNative(cb NativeHandle) {
	if !t.acquired || t.published {
		return
	}
	t.batch.PublishNative(t.slot, cb)
	t.published = true
}

// PublishBaked completes the task with an indirectly recorded, not yet
// replayed command stream.
func (t *RenderTask) PublishBaked(baked BakedCommands) {
	if !t.acquired || t.published {
		return
	}
	t.batch.PublishBaked(t.slot, baked)
	t.published = true
}

// Cancel completes the task with a null handle, e.g. when the task
// determines mid-recording that it has nothing to contribute.
func (t *RenderTask) Cancel() {
	if !t.acquired || t.published {
		return
	}
	t.batch.Cancel(t.slot)
	t.published = true
}

// RunDirect leases a native command buffer from pools, runs record
// against it, and publishes the result into batch. It begins and ends
// the command buffer itself; record should only issue draw/dispatch/
// transfer calls (typically through a Context built over the leased
// buffer). If batch has no free slot, RunDirect returns
// ErrCapacityExhausted without leasing anything. A failing record
// cancels the task rather than publishing a half-recorded buffer. When
// Config.Debug is set and the device supports it, record runs inside a
// debug-utils label scope named after batch.Name.
func RunDirect(ctx context.Context, batch *CommandBatch, dev Device, pools *CmdPoolManager, frame int, record func(cb NativeHandle) error) error {
	task := NewRenderTask(batch)
	if !task.Acquired() {
		return ErrCapacityExhausted
	}
	lease, err := pools.GetCommandBuffer(ctx, frame, batch.Queue())
	if err != nil {
		task.Cancel()
		return err
	}
	if err := dev.BeginCommandBuffer(lease.CmdBuf); err != nil {
		task.Cancel()
		return err
	}
	debugScope := batch.cfg.Debug && batch.name != "" && dev.Features().DebugUtils
	if debugScope {
		dev.CmdPushDebugGroup(lease.CmdBuf, batch.name, debugBatchGroupColor)
	}
	if err := record(lease.CmdBuf); err != nil {
		task.Cancel()
		return err
	}
	if debugScope {
		dev.CmdPopDebugGroup(lease.CmdBuf)
	}
	if err := dev.EndCommandBuffer(lease.CmdBuf); err != nil {
		task.Cancel()
		return err
	}
	task.PublishNative(lease.CmdBuf)
	return nil
}

// RunIndirect records into a fresh Encoder via record and publishes the
// baked result into batch, deferring native command-buffer replay to
// CommandBatch.CommitIndirectBuffers. endID is the sentinel command ID
// appropriate to record's command family (CmdEnd for transfer/compute/
// graphics, CmdDrawEnd for draw).
func RunIndirect(batch *CommandBatch, blockSize int, endID CommandID, record func(enc *Encoder) error) error {
	task := NewRenderTask(batch)
	if !task.Acquired() {
		return ErrCapacityExhausted
	}
	enc := NewEncoder(blockSize)
	if err := record(enc); err != nil {
		task.Cancel()
		return err
	}
	task.PublishBaked(enc.Prepare(endID))
	return nil
}
