// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"fmt"
	"math/bits"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// BatchState is a CommandBatch's position in its four-state lifecycle
// (spec.md §4.6): Initial → Pending → Submitted → Complete.
type BatchState int32

// Batch lifecycle states.
const (
	BatchInitial BatchState = iota
	BatchPending
	BatchSubmitted
	BatchComplete
)

func (s BatchState) String() string {
	switch s {
	case BatchInitial:
		return "initial"
	case BatchPending:
		return "pending"
	case BatchSubmitted:
		return "submitted"
	case BatchComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// maxBatchDeps bounds CommandBatch's dependency list, a fixed-capacity
// array per spec.md §4.6 rather than a growable slice.
const maxBatchDeps = 8

// debugBatchGroupColor labels the validation-layer/RenderDoc scope
// wrapped around a batch's replayed commands when Config.Debug is set.
var debugBatchGroupColor = [4]float32{0.2, 0.6, 0.9, 1}

// spinLock is a minimal test-and-test-and-set spin lock, used for the
// small, always-briefly-held critical sections spec.md §4.6 calls out
// as spin-lock guarded (the dependency list) rather than mutex-guarded.
type spinLock struct{ busy atomic.Bool }

func (s *spinLock) Lock() {
	for !s.busy.CompareAndSwap(false, true) {
	}
}

func (s *spinLock) Unlock() { s.busy.Store(false) }

// batchSlot is one entry of a CommandBatch's cooperative pool: either a
// native command buffer already ended and ready for submission, or a
// baked indirect command stream awaiting replay into one.
type batchSlot struct {
	native NativeHandle
	pool   NativeHandle
	baked  BakedCommands
}

// CommandBatch is the fixed-capacity pool object of spec.md §4.6: a set
// of command-buffer slots that render tasks acquire, fill, and publish
// into cooperatively, submitted to a single queue as one unit once every
// slot is ready.
type CommandBatch struct {
	queue QueueType
	cfg   Config
	name  string

	slots []batchSlot
	ready atomic.Uint64 // bit i set once slot i has been published or canceled
	baked atomic.Uint64 // bit i set while slot i holds unreplayed baked content
	count atomic.Int32  // fetch_add cursor for Acquire

	state atomic.Int32

	fence     NativeHandle
	signalSem NativeHandle

	depsLock spinLock
	deps     [maxBatchDeps]*CommandBatch
	depCount int
}

// NewCommandBatch returns an Initial-state batch with cfg.MaxCmdBufPerBatch
// slots, submitting to queue.
func NewCommandBatch(queue QueueType, cfg Config) *CommandBatch {
	if cfg.MaxCmdBufPerBatch > 64 {
		panic("rendergraph: CommandBatch: MaxCmdBufPerBatch exceeds the 64-bit ready/baked bitmask capacity")
	}
	return &CommandBatch{queue: queue, cfg: cfg, slots: make([]batchSlot, cfg.MaxCmdBufPerBatch)}
}

// State returns the batch's current lifecycle state.
func (b *CommandBatch) State() BatchState { return BatchState(b.state.Load()) }

func (b *CommandBatch) transition(from, to BatchState) bool {
	return b.state.CompareAndSwap(int32(from), int32(to))
}

// Acquire reserves the next slot index for a render task, or ok=false if
// the batch is already full (or locked) — the caller (RenderTask) must
// cancel itself rather than record into a batch it failed to acquire a
// slot from.
func (b *CommandBatch) Acquire() (slot int, ok bool) {
	n := b.count.Add(1) - 1
	if int(n) >= len(b.slots) {
		return 0, false
	}
	return int(n), true
}

// PublishNative stores a direct-recorded, already-ended command buffer
// into slot and marks it ready.
func (b *CommandBatch) PublishNative(slot int, cb NativeHandle) {
	b.slots[slot].native = cb
	b.ready.Or(1 << uint(slot))
}

// PublishBaked stores an indirectly-recorded baked command stream into
// slot, marks it as needing replay (the "baked" bit), and marks it
// ready. CommitIndirectBuffers converts it to a native handle before
// GetCommands is called.
func (b *CommandBatch) PublishBaked(slot int, baked BakedCommands) {
	b.slots[slot].baked = baked
	b.baked.Or(1 << uint(slot))
	b.ready.Or(1 << uint(slot))
}

// Cancel completes slot with a null handle, e.g. when a render task
// determines at runtime it has nothing to record.
func (b *CommandBatch) Cancel(slot int) {
	b.slots[slot].native = 0
	b.ready.Or(1 << uint(slot))
}

func (b *CommandBatch) allReadyMask() uint64 {
	if len(b.slots) == 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(len(b.slots))) - 1
}

// Lock stops further Acquire calls by fast-forwarding the cursor past
// the slot count, then marks every never-acquired slot ready with a null
// handle so GetCommands's all-ready precondition can still be satisfied.
func (b *CommandBatch) Lock() {
	old := b.count.Swap(int32(len(b.slots)))
	for i := int(old); i < len(b.slots) && i >= 0; i++ {
		b.ready.Or(1 << uint(i))
	}
}

// CommitIndirectBuffers replays every baked slot into a freshly leased
// native command buffer, concurrently across slots (spec.md §4.6:
// "commit_indirect_buffers(queue, kind)"). replay is
// ReplayTransferComputeGraphics or ReplayDraw depending on the batch's
// command kind.
func (b *CommandBatch) CommitIndirectBuffers(ctx context.Context, pools *CmdPoolManager, frame int, dev Device, replay func(Device, NativeHandle, BakedCommands) error) error {
	mask := b.baked.Load()
	if mask == 0 {
		return nil
	}
	debugScope := b.cfg.Debug && b.name != "" && dev.Features().DebugUtils
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < len(b.slots); i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		i := i
		g.Go(func() error {
			lease, err := pools.GetCommandBuffer(gctx, frame, b.queue)
			if err != nil {
				return err
			}
			if err := dev.BeginCommandBuffer(lease.CmdBuf); err != nil {
				return fmt.Errorf("%w: BeginCommandBuffer: %v", ErrDriverCall, err)
			}
			if debugScope {
				dev.CmdPushDebugGroup(lease.CmdBuf, b.name, debugBatchGroupColor)
			}
			if err := replay(dev, lease.CmdBuf, b.slots[i].baked); err != nil {
				return err
			}
			if debugScope {
				dev.CmdPopDebugGroup(lease.CmdBuf)
			}
			if err := dev.EndCommandBuffer(lease.CmdBuf); err != nil {
				return fmt.Errorf("%w: EndCommandBuffer: %v", ErrDriverCall, err)
			}
			b.slots[i].native = lease.CmdBuf
			b.slots[i].pool = lease.Pool
			b.slots[i].baked = BakedCommands{}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	b.baked.Store(0)
	return nil
}

// GetCommands returns the non-null native command buffers across every
// slot, in slot order. It requires every slot to be ready (spec.md
// §4.6's "ready = all-ones" precondition).
func (b *CommandBatch) GetCommands() ([]NativeHandle, error) {
	if b.ready.Load() != b.allReadyMask() {
		return nil, fmt.Errorf("%w: CommandBatch.GetCommands: not every slot is ready", ErrContractViolation)
	}
	if b.baked.Load() != 0 {
		return nil, fmt.Errorf("%w: CommandBatch.GetCommands: baked slots not yet committed", ErrContractViolation)
	}
	out := make([]NativeHandle, 0, len(b.slots))
	for _, s := range b.slots {
		if s.native != 0 {
			out = append(out, s.native)
		}
	}
	return out, nil
}

// AddDependency records that this batch must not execute before other
// has been submitted, into the fixed-capacity deduplicated list of
// spec.md §4.6. It returns false if the list is already full.
func (b *CommandBatch) AddDependency(other *CommandBatch) bool {
	b.depsLock.Lock()
	defer b.depsLock.Unlock()
	for i := 0; i < b.depCount; i++ {
		if b.deps[i] == other {
			return true
		}
	}
	if b.depCount >= maxBatchDeps {
		return false
	}
	b.deps[b.depCount] = other
	b.depCount++
	return true
}

// Dependencies returns a snapshot of the batches this one depends on.
func (b *CommandBatch) Dependencies() []*CommandBatch {
	b.depsLock.Lock()
	defer b.depsLock.Unlock()
	out := make([]*CommandBatch, b.depCount)
	copy(out, b.deps[:b.depCount])
	return out
}

// clearDependencies empties the dependency list once the batch
// completes, so its slot becomes reusable with no stale references.
func (b *CommandBatch) clearDependencies() {
	b.depsLock.Lock()
	defer b.depsLock.Unlock()
	for i := range b.deps {
		b.deps[i] = nil
	}
	b.depCount = 0
}

// Submit transitions Initial→Pending, locking and finalizing the pool so
// no further render task may acquire a slot. It does not itself talk to
// the Device; the frame orchestrator (frame.go) performs the actual
// queue submission once every dependency has been expressed as a wait
// semaphore.
func (b *CommandBatch) Submit() error {
	if !b.transition(BatchInitial, BatchPending) {
		return fmt.Errorf("%w: CommandBatch.Submit: batch is %s, not initial", ErrContractViolation, b.State())
	}
	b.Lock()
	return nil
}

// MarkSubmitted transitions Pending→Submitted once the orchestrator has
// handed the batch's command buffers to Device.Submit.
func (b *CommandBatch) MarkSubmitted(fence, signalSem NativeHandle) error {
	if !b.transition(BatchPending, BatchSubmitted) {
		return fmt.Errorf("%w: CommandBatch.MarkSubmitted: batch is %s, not pending", ErrContractViolation, b.State())
	}
	b.fence = fence
	b.signalSem = signalSem
	return nil
}

// MarkComplete transitions Submitted→Complete once the orchestrator's
// fence poll observes the batch's fence signaled, clearing its
// dependency list; Reset then returns it to Initial for reuse.
func (b *CommandBatch) MarkComplete() error {
	if !b.transition(BatchSubmitted, BatchComplete) {
		return fmt.Errorf("%w: CommandBatch.MarkComplete: batch is %s, not submitted", ErrContractViolation, b.State())
	}
	b.clearDependencies()
	return nil
}

// Reset returns a Complete batch to Initial for reuse in a later frame.
func (b *CommandBatch) Reset() error {
	if !b.transition(BatchComplete, BatchInitial) {
		return fmt.Errorf("%w: CommandBatch.Reset: batch is %s, not complete", ErrContractViolation, b.State())
	}
	b.count.Store(0)
	b.ready.Store(0)
	b.baked.Store(0)
	b.name = ""
	b.fence = 0
	b.signalSem = 0
	for i := range b.slots {
		b.slots[i] = batchSlot{}
	}
	return nil
}

// Fence returns the fence the orchestrator signals on completion of this
// batch's submission, valid once MarkSubmitted has run.
func (b *CommandBatch) Fence() NativeHandle { return b.fence }

// SignalSemaphore returns the semaphore signaled when this batch
// completes, consumed by downstream batches' wait lists.
func (b *CommandBatch) SignalSemaphore() NativeHandle { return b.signalSem }

// Queue returns the queue this batch submits to.
func (b *CommandBatch) Queue() QueueType { return b.queue }

// Name returns the debug label given to this batch by CreateBatch, or
// the empty string if none was given.
func (b *CommandBatch) Name() string { return b.name }

// SetName labels the batch for logging/debug-marker purposes.
func (b *CommandBatch) SetName(name string) { b.name = name }

// slotCount reports how many slots are populated (ready), for
// diagnostics.
func (b *CommandBatch) slotCount() int { return bits.OnesCount64(b.ready.Load()) }
