// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testOrchestratorConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxFrames = 2
	cfg.QueueCount = 3
	cfg.MaxPoolsPerQueue = 2
	cfg.CmdBufPerPool = 4
	cfg.MaxCmdBufPerBatch = 4
	cfg.BatchPoolSize = 8
	cfg.FenceWaitPollMicros = 1
	return cfg
}

func recordEmptyDirect(t *testing.T, dev Device, pools *CmdPoolManager, b *CommandBatch) {
	t.Helper()
	require.NoError(t, RunDirect(context.Background(), b, dev, pools, 0, func(cb NativeHandle) error { return nil }))
}

func TestOrchestrator_BeginEndFrameCycle(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	sched := &fakeScheduler{}
	cfg := testOrchestratorConfig()

	o, err := NewOrchestrator(dev, res, sched, cfg)
	require.NoError(t, err)
	require.Equal(t, OrchIdle, o.State())

	o.BeginFrame(context.Background())
	require.Equal(t, OrchRecordFrame, o.State())
	require.Equal(t, 0, o.FrameIndex())

	o.EndFrame(context.Background())
	require.Equal(t, OrchIdle, o.State())
}

func TestOrchestrator_SubmitBatchTransitionsAndRetires(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	sched := &fakeScheduler{}
	cfg := testOrchestratorConfig()

	o, err := NewOrchestrator(dev, res, sched, cfg)
	require.NoError(t, err)

	o.BeginFrame(context.Background())

	b, err := o.CreateBatch(QueueGraphics, "frame-0-main")
	require.NoError(t, err)
	recordEmptyDirect(t, dev, o.pools, b)

	require.NoError(t, o.SubmitBatch(context.Background(), b, nil))
	require.Equal(t, BatchSubmitted, b.State())

	o.EndFrame(context.Background())
	require.Equal(t, OrchIdle, o.State())
	// MaxFrames=2, so frame 1 does not yet retire frame 0's slot.
	require.Equal(t, BatchSubmitted, b.State())

	o.BeginFrame(context.Background())
	o.EndFrame(context.Background())
	// Frame 2's EndFrame retires frame 0's slot (2 - 2 + 1 = 1st frame).
	require.Equal(t, BatchComplete, b.State())
}

func TestOrchestrator_CrossQueueDependencyRequiresUpstreamSubmitted(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	sched := &fakeScheduler{}
	cfg := testOrchestratorConfig()

	o, err := NewOrchestrator(dev, res, sched, cfg)
	require.NoError(t, err)
	o.BeginFrame(context.Background())

	upstream, err := o.CreateBatch(QueueTransfer, "upload")
	require.NoError(t, err)
	recordEmptyDirect(t, dev, o.pools, upstream)

	downstream, err := o.CreateBatch(QueueGraphics, "draw")
	require.NoError(t, err)
	recordEmptyDirect(t, dev, o.pools, downstream)
	require.True(t, downstream.AddDependency(upstream))

	// Submitting downstream before upstream has submitted must fail: the
	// dependency has not yet produced a signal semaphore to wait on. The
	// batch itself is left Pending (Submit()'s lock/finalise already ran),
	// matching spec.md §7's "remains in Initial / fails Submit" for a
	// driver-call failure — here a contract violation instead.
	err = o.SubmitBatch(context.Background(), downstream, nil)
	require.ErrorIs(t, err, ErrContractViolation)
	require.Equal(t, BatchPending, downstream.State())

	require.NoError(t, o.SubmitBatch(context.Background(), upstream, nil))
	require.Equal(t, BatchSubmitted, upstream.State())
	require.NotZero(t, upstream.SignalSemaphore())
}

// TestOrchestrator_FiveFramesReuseRetiredSlots runs 5 consecutive frames
// with MaxFrames=2: each frame's EndFrame must retire the batch one
// frame behind it to Complete, and the batch pool must transparently
// recycle the underlying CommandBatch object for the next frame that
// reuses that slot.
func TestOrchestrator_FiveFramesReuseRetiredSlots(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	sched := &fakeScheduler{}
	cfg := testOrchestratorConfig()

	o, err := NewOrchestrator(dev, res, sched, cfg)
	require.NoError(t, err)

	var batches []*CommandBatch
	for frame := 1; frame <= 5; frame++ {
		o.BeginFrame(context.Background())
		require.Equal(t, OrchRecordFrame, o.State())

		b, err := o.CreateBatch(QueueGraphics, "frame-batch")
		require.NoError(t, err, "frame %d: pool must have a free slot from a retired frame", frame)
		recordEmptyDirect(t, dev, o.pools, b)
		require.NoError(t, o.SubmitBatch(context.Background(), b, nil))
		batches = append(batches, b)

		o.EndFrame(context.Background())
		require.Equal(t, OrchIdle, o.State())

		// EndFrame on frame N retires frame (N-MaxFrames+1)'s batches
		// (the same "2-2+1=1st frame" arithmetic as the two-frame test
		// above). The retired CommandBatch object is checked immediately,
		// before the next loop iteration's CreateBatch can pull it back
		// out of the pool's free list and resubmit it.
		if retired := frame - cfg.MaxFrames + 1; retired >= 1 {
			require.Equal(t, BatchComplete, batches[retired-1].State(),
				"frame %d's EndFrame must retire frame %d's batch", frame, retired)
		}
	}

	// Frame 5's batch has not been retired yet: that needs frame 6's
	// EndFrame (5-2+1=4 is the last retired frame, by frame 5's own
	// EndFrame). It is still Submitted.
	require.Equal(t, BatchSubmitted, batches[4].State())
}
