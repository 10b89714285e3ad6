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

func TestRunDirect_PublishesEndedCommandBuffer(t *testing.T) {
	cfg := testBatchConfig()
	dev := newMockDevice()
	pools := NewCmdPoolManager(dev, cfg)
	b := NewCommandBatch(QueueGraphics, cfg)

	err := RunDirect(context.Background(), b, dev, pools, 0, func(cb NativeHandle) error {
		dev.CmdDebugMarker(cb, "hello")
		return nil
	})
	require.NoError(t, err)
	require.Contains(t, dev.calls, "BeginCommandBuffer")
	require.Contains(t, dev.calls, "EndCommandBuffer")

	b.Lock()
	cmds, err := b.GetCommands()
	require.NoError(t, err)
	require.Len(t, cmds, 1)
}

func TestRunDirect_RecordErrorCancelsTask(t *testing.T) {
	cfg := testBatchConfig()
	dev := newMockDevice()
	pools := NewCmdPoolManager(dev, cfg)
	b := NewCommandBatch(QueueGraphics, cfg)

	boom := errors.New("boom")
	err := RunDirect(context.Background(), b, dev, pools, 0, func(cb NativeHandle) error { return boom })
	require.ErrorIs(t, err, boom)

	b.Lock()
	cmds, err := b.GetCommands()
	require.NoError(t, err)
	require.Empty(t, cmds, "a canceled render task must not contribute a command buffer")
}

func TestRunDirect_FullBatchReturnsCapacityExhausted(t *testing.T) {
	cfg := testBatchConfig()
	cfg.MaxCmdBufPerBatch = 1
	dev := newMockDevice()
	pools := NewCmdPoolManager(dev, cfg)
	b := NewCommandBatch(QueueGraphics, cfg)

	require.NoError(t, RunDirect(context.Background(), b, dev, pools, 0, func(cb NativeHandle) error { return nil }))
	err := RunDirect(context.Background(), b, dev, pools, 0, func(cb NativeHandle) error { return nil })
	require.ErrorIs(t, err, ErrCapacityExhausted)
}

func TestRunIndirect_PublishesBakedCommands(t *testing.T) {
	cfg := testBatchConfig()
	b := NewCommandBatch(QueueTransfer, cfg)

	err := RunIndirect(b, 4096, CmdEnd, func(enc *Encoder) error {
		enc.FillBuffer(100, 0, 64, 1)
		enc.CopyBuffer(100, 200, 0, 0, 64)
		return nil
	})
	require.NoError(t, err)

	dev := newMockDevice()
	pools := NewCmdPoolManager(dev, cfg)
	b.Lock()
	require.NoError(t, b.CommitIndirectBuffers(context.Background(), pools, 0, dev, ReplayTransferComputeGraphics))

	cmds, err := b.GetCommands()
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	require.Equal(t, []string{"BeginCommandBuffer", "FillBuffer", "CopyBuffer", "EndCommandBuffer"}, dev.calls)
}
