// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testBatchConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxCmdBufPerBatch = 4
	cfg.MaxFrames = 1
	cfg.QueueCount = 3 // graphics, compute, transfer
	cfg.MaxPoolsPerQueue = 2
	cfg.CmdBufPerPool = 4
	return cfg
}

func TestCommandBatch_AcquireFillsAndRejectsOverflow(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueGraphics, cfg)

	seen := map[int]bool{}
	for i := 0; i < cfg.MaxCmdBufPerBatch; i++ {
		slot, ok := b.Acquire()
		require.True(t, ok)
		require.False(t, seen[slot])
		seen[slot] = true
	}
	_, ok := b.Acquire()
	require.False(t, ok, "acquiring past capacity must fail")
}

func TestCommandBatch_GetCommandsRequiresAllReady(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueGraphics, cfg)

	slot0, _ := b.Acquire()
	b.PublishNative(slot0, 42)

	_, err := b.GetCommands()
	require.True(t, errors.Is(err, ErrContractViolation))

	b.Lock() // fast-forwards and marks the remaining unacquired slots ready
	cmds, err := b.GetCommands()
	require.NoError(t, err)
	require.Equal(t, []NativeHandle{42}, cmds)
}

func TestCommandBatch_CancelProducesNullHandle(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueGraphics, cfg)

	slot, _ := b.Acquire()
	b.Cancel(slot)
	b.Lock()

	cmds, err := b.GetCommands()
	require.NoError(t, err)
	require.Empty(t, cmds, "a canceled slot contributes no command buffer")
}

func TestCommandBatch_CommitIndirectBuffersReplaysIntoNativeHandles(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueTransfer, cfg)
	dev := newMockDevice()
	pools := NewCmdPoolManager(dev, cfg)

	slot, ok := b.Acquire()
	require.True(t, ok)
	enc := NewEncoder(4096)
	enc.FillBuffer(100, 0, 64, 0xff)
	baked := enc.Prepare(CmdEnd)
	b.PublishBaked(slot, baked)
	b.Lock()

	err := b.CommitIndirectBuffers(context.Background(), pools, 0, dev, ReplayTransferComputeGraphics)
	require.NoError(t, err)

	cmds, err := b.GetCommands()
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Contains(t, dev.calls, "FillBuffer")
}

func TestCommandBatch_SubmitLifecycle(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueGraphics, cfg)
	require.Equal(t, BatchInitial, b.State())

	require.NoError(t, b.Submit())
	require.Equal(t, BatchPending, b.State())
	require.Error(t, b.Submit(), "submitting twice must fail")

	require.NoError(t, b.MarkSubmitted(7, 8))
	require.Equal(t, BatchSubmitted, b.State())
	require.Equal(t, NativeHandle(7), b.Fence())
	require.Equal(t, NativeHandle(8), b.SignalSemaphore())

	require.NoError(t, b.MarkComplete())
	require.Equal(t, BatchComplete, b.State())

	require.NoError(t, b.Reset())
	require.Equal(t, BatchInitial, b.State())
}

func TestCommandBatch_AddDependencyDedupesAndBoundsCapacity(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueGraphics, cfg)
	upstream := NewCommandBatch(QueueTransfer, cfg)

	require.True(t, b.AddDependency(upstream))
	require.True(t, b.AddDependency(upstream), "adding the same dependency twice must dedupe, not fail")
	require.Len(t, b.Dependencies(), 1)

	for i := 0; i < maxBatchDeps-1; i++ {
		require.True(t, b.AddDependency(NewCommandBatch(QueueTransfer, cfg)))
	}
	require.Len(t, b.Dependencies(), maxBatchDeps)
	require.False(t, b.AddDependency(NewCommandBatch(QueueTransfer, cfg)), "the ninth distinct dependency must be rejected")

	require.NoError(t, b.Submit())
	require.NoError(t, b.MarkSubmitted(1, 2))
	require.NoError(t, b.MarkComplete())
	require.Empty(t, b.Dependencies(), "completion must clear the dependency list")
}
