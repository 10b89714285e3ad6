// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// OrchestratorState is the frame orchestrator's position in the state
// machine of spec.md §4.7: Initial → Initialization → Idle →
// BeginFrame → RecordFrame → Idle → …; Destroyed is terminal.
type OrchestratorState int32

// Orchestrator lifecycle states.
const (
	OrchInitial OrchestratorState = iota
	OrchInitialization
	OrchIdle
	OrchBeginFrame
	OrchRecordFrame
	OrchDestroyed
)

func (s OrchestratorState) String() string {
	switch s {
	case OrchInitial:
		return "initial"
	case OrchInitialization:
		return "initialization"
	case OrchIdle:
		return "idle"
	case OrchBeginFrame:
		return "begin-frame"
	case OrchRecordFrame:
		return "record-frame"
	case OrchDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// frameSlotState tracks the batches submitted under one frame-slot
// generation, retired together once every batch in it reaches Complete.
type frameSlotState struct {
	batches []*CommandBatch
}

// Orchestrator is the process-wide render-graph facade of spec.md §4.7
// and §6: it owns the command-pool manager, the batch pool, and every
// queue's submission FIFO, and drives the BeginFrame/RecordFrame/Idle
// cycle. State transitions are a single atomic compare-and-set, per
// spec.md's "All transitions are compare-and-set on a single atomic.",
// except shutdown, which stores OrchDestroyed unconditionally.
type Orchestrator struct {
	dev       Device
	resources ResourceManager
	scheduler Scheduler
	cfg       Config
	log       Logger

	pools *CmdPoolManager
	pool  *batchPool
	queue []*queueState // indexed by QueueType

	state atomic.Int32
	// current is the frame slot index currently being recorded
	// (0..MaxFrames-1); BeginFrame derives the next one from frameID.
	current atomic.Int32
	frameID atomic.Uint64

	slotsMu sync.Mutex
	slots   []frameSlotState
}

var (
	instanceMu sync.Mutex
	instance   *Orchestrator
)

// NewOrchestrator builds an Idle orchestrator over dev/resources/
// scheduler using cfg. Most callers should use CreateInstance instead,
// unless running multiple independent graphs (e.g. in tests).
func NewOrchestrator(dev Device, resources ResourceManager, scheduler Scheduler, cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		dev:       dev,
		resources: resources,
		scheduler: scheduler,
		cfg:       cfg,
		log:       newComponentLogger("frame"),
		pools:     NewCmdPoolManager(dev, cfg),
		pool:      newBatchPool(cfg),
		slots:     make([]frameSlotState, cfg.MaxFrames),
	}
	o.queue = make([]*queueState, cfg.QueueCount)
	for i := range o.queue {
		o.queue[i] = &queueState{}
	}
	o.state.Store(int32(OrchInitial))
	o.transition(OrchInitial, OrchInitialization)
	o.transition(OrchInitialization, OrchIdle)
	return o, nil
}

func (o *Orchestrator) transition(from, to OrchestratorState) bool {
	return o.state.CompareAndSwap(int32(from), int32(to))
}

// State returns the orchestrator's current lifecycle state.
func (o *Orchestrator) State() OrchestratorState { return OrchestratorState(o.state.Load()) }

// CreateInstance installs o as the process-wide singleton, failing if
// one already exists.
func CreateInstance(dev Device, resources ResourceManager, scheduler Scheduler, cfg Config) (*Orchestrator, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance != nil {
		return nil, fmt.Errorf("%w: CreateInstance: an instance already exists", ErrContractViolation)
	}
	o, err := NewOrchestrator(dev, resources, scheduler, cfg)
	if err != nil {
		return nil, err
	}
	instance = o
	return o, nil
}

// Instance returns the process-wide singleton, or nil if none exists.
func Instance() *Orchestrator {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance
}

// DestroyInstance tears down the process-wide singleton, if any.
func DestroyInstance() {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		return
	}
	instance.shutdown()
	instance = nil
}

func (o *Orchestrator) shutdown() {
	o.state.Store(int32(OrchDestroyed))
	o.pools.ReleaseResources()
}

// CreateBatch acquires a CommandBatch bound to queue from the batch
// pool, labels it name for logging, and leaves it in the Initial state
// for the caller to add render tasks to.
func (o *Orchestrator) CreateBatch(queue QueueType, name string) (*CommandBatch, error) {
	b, err := o.pool.Acquire(queue)
	if err != nil {
		return nil, err
	}
	b.SetName(name)
	return b, nil
}

// FrameIndex returns the frame slot currently being recorded.
func (o *Orchestrator) FrameIndex() int { return int(o.current.Load()) }

// BeginFrame posts the BeginFrame task to the scheduler, to run after
// deps complete. The task advances the frame index and UID, resets the
// new slot's command pools and staging allocations, and transitions
// Idle → BeginFrame → RecordFrame.
func (o *Orchestrator) BeginFrame(ctx context.Context, deps ...TaskHandle) TaskHandle {
	return o.scheduler.Post(ctx, o.beginFrame, deps...)
}

func (o *Orchestrator) beginFrame(ctx context.Context) error {
	if !o.transition(OrchIdle, OrchBeginFrame) {
		return fmt.Errorf("%w: BeginFrame: orchestrator is %s, not idle", ErrContractViolation, o.State())
	}
	uid := o.frameID.Add(1)
	next := int((uid - 1) % uint64(o.cfg.MaxFrames))

	if err := o.pools.NextFrame(next); err != nil {
		return err
	}
	if err := o.resources.Staging().NextFrame(next); err != nil {
		return err
	}

	o.slotsMu.Lock()
	o.slots[next] = frameSlotState{}
	o.slotsMu.Unlock()

	o.current.Store(int32(next))
	o.log.Debug("begin frame", "frame", next, "uid", uid)

	if !o.transition(OrchBeginFrame, OrchRecordFrame) {
		return fmt.Errorf("%w: BeginFrame: lost the record-frame transition race", ErrContractViolation)
	}
	return nil
}

// EndFrame posts the EndFrame task to the scheduler. The task blocks
// (with a short polling interval, spec.md §4.7's ≈1µs) until the frame
// MaxFrames-1 frames behind the current one (frame uid-MaxFrames+1, once
// that many frames exist) reaches Complete on every batch it holds,
// reclaims those batches into the batch pool, and transitions
// RecordFrame → Idle.
func (o *Orchestrator) EndFrame(ctx context.Context, deps ...TaskHandle) TaskHandle {
	return o.scheduler.Post(ctx, o.endFrame, deps...)
}

func (o *Orchestrator) endFrame(ctx context.Context) error {
	if o.State() != OrchRecordFrame {
		return fmt.Errorf("%w: EndFrame: orchestrator is %s, not record-frame", ErrContractViolation, o.State())
	}

	uid := o.frameID.Load()
	if uid >= uint64(o.cfg.MaxFrames) {
		retireUID := uid - uint64(o.cfg.MaxFrames) + 1
		retireIdx := int((retireUID - 1) % uint64(o.cfg.MaxFrames))
		if err := o.retireSlot(ctx, retireIdx); err != nil {
			return err
		}
	}

	if !o.transition(OrchRecordFrame, OrchIdle) {
		return fmt.Errorf("%w: EndFrame: lost the idle transition race", ErrContractViolation)
	}
	return nil
}

// retireSlot blocks until every batch recorded under frame slot idx has
// signaled its fence, marks each Complete, and returns it to the batch
// pool.
func (o *Orchestrator) retireSlot(ctx context.Context, idx int) error {
	o.slotsMu.Lock()
	batches := o.slots[idx].batches
	o.slotsMu.Unlock()

	poll := time.Duration(o.cfg.FenceWaitPollMicros) * time.Microsecond
	if poll <= 0 {
		poll = time.Microsecond
	}
	for _, b := range batches {
		if b.State() != BatchSubmitted {
			continue
		}
		for {
			signaled, err := o.dev.FenceSignaled(b.Fence())
			if err != nil {
				return fmt.Errorf("%w: FenceSignaled: %v", ErrDriverCall, err)
			}
			if signaled {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(poll):
			}
		}
		if err := b.MarkComplete(); err != nil {
			return err
		}
	}
	// Drain each touched queue's completed prefix while the fences are
	// still live, so queueState.pending (consulted by WaitAll) never
	// retains a batch past the DestroyFence call below.
	retiredQueues := make(map[QueueType]bool, len(batches))
	for _, b := range batches {
		retiredQueues[b.Queue()] = true
	}
	for qt := range retiredQueues {
		if _, err := o.queue[qt].drainComplete(o.dev); err != nil {
			return err
		}
	}

	for _, b := range batches {
		o.dev.DestroyFence(b.Fence())
		if b.SignalSemaphore() != 0 {
			o.dev.DestroySemaphore(b.SignalSemaphore())
		}
		if err := b.Reset(); err != nil {
			return err
		}
		o.pool.Release(b)
	}

	o.slotsMu.Lock()
	o.slots[idx] = frameSlotState{}
	o.slotsMu.Unlock()
	return nil
}

// SubmitBatch locks and finalises b, converts any still-baked slots by
// calling commitIndirect (nil for batches recorded entirely direct),
// expresses b's cross-queue dependencies as semaphore waits, and submits
// it to its queue. On success b transitions Pending → Submitted and is
// tracked under the current frame slot for later retirement.
func (o *Orchestrator) SubmitBatch(ctx context.Context, b *CommandBatch, commitIndirect func(context.Context, *CommandBatch) error) error {
	if err := b.Submit(); err != nil {
		return err
	}
	if commitIndirect != nil {
		if err := commitIndirect(ctx, b); err != nil {
			return err
		}
	}
	cmds, err := b.GetCommands()
	if err != nil {
		return err
	}

	var wait []NativeHandle
	var waitStage []PipelineStage
	for _, dep := range b.Dependencies() {
		if dep.Queue() == b.Queue() {
			// Same-queue ordering is implicit in per-queue FIFO submit
			// order; no semaphore needed.
			continue
		}
		if dep.State() < BatchSubmitted {
			return fmt.Errorf("%w: SubmitBatch: dependency on %q which has not submitted yet", ErrContractViolation, dep.Name())
		}
		wait = append(wait, dep.SignalSemaphore())
		waitStage = append(waitStage, StageAll)
	}

	fence, err := o.dev.CreateFence(false)
	if err != nil {
		return fmt.Errorf("%w: CreateFence: %v", ErrDriverCall, err)
	}
	signal, err := o.dev.CreateSemaphore()
	if err != nil {
		o.dev.DestroyFence(fence)
		return fmt.Errorf("%w: CreateSemaphore: %v", ErrDriverCall, err)
	}

	sb := SubmitBatch{CmdBuffers: cmds, Wait: wait, WaitStage: waitStage, Signal: []NativeHandle{signal}}
	if err := o.dev.Submit(b.Queue(), []SubmitBatch{sb}, fence); err != nil {
		o.dev.DestroyFence(fence)
		o.dev.DestroySemaphore(signal)
		o.log.Error("submit failed", "batch", b.Name(), "queue", b.Queue(), "err", err)
		return fmt.Errorf("%w: Submit(%s): %v", ErrDriverCall, b.Queue(), err)
	}

	if err := b.MarkSubmitted(fence, signal); err != nil {
		return err
	}
	o.queue[b.Queue()].push(b, signal)

	frame := int(o.current.Load())
	o.slotsMu.Lock()
	o.slots[frame].batches = append(o.slots[frame].batches, b)
	o.slotsMu.Unlock()
	return nil
}

// WaitAll blocks until every queue's pending batches have signaled
// their fences, for use outside the per-frame cadence (e.g. shutdown).
func (o *Orchestrator) WaitAll() error {
	for _, qs := range o.queue {
		qs.mu.Lock()
		fences := make([]NativeHandle, len(qs.pending))
		for i, b := range qs.pending {
			fences[i] = b.Fence()
		}
		qs.mu.Unlock()
		if len(fences) == 0 {
			continue
		}
		if err := o.dev.WaitFences(fences, true, -1); err != nil {
			return fmt.Errorf("%w: WaitFences: %v", ErrDriverCall, err)
		}
	}
	return nil
}
