// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCmdPoolManager_LeasesDistinctBuffers(t *testing.T) {
	dev := newMockDevice()
	cfg := DefaultConfig()
	cfg.CmdBufPerPool = 2
	m := NewCmdPoolManager(dev, cfg)

	seen := map[NativeHandle]bool{}
	for i := 0; i < 10; i++ {
		lease, err := m.GetCommandBuffer(context.Background(), 0, QueueGraphics)
		require.NoError(t, err)
		require.False(t, seen[lease.CmdBuf], "leased the same command buffer twice without a NextFrame reset")
		seen[lease.CmdBuf] = true
	}
}

func TestCmdPoolManager_NextFrameResetsCursor(t *testing.T) {
	dev := newMockDevice()
	m := NewCmdPoolManager(dev, DefaultConfig())

	first, err := m.GetCommandBuffer(context.Background(), 0, QueueGraphics)
	require.NoError(t, err)

	require.NoError(t, m.NextFrame(0))

	// After a reset, leasing from frame 0 hands back the same native
	// handle, since NextFrame rewinds the pool cell's lease cursor.
	second, err := m.GetCommandBuffer(context.Background(), 0, QueueGraphics)
	require.NoError(t, err)
	require.Equal(t, first.CmdBuf, second.CmdBuf)
}

func TestCmdPoolManager_ReleaseResourcesDestroysPools(t *testing.T) {
	dev := newMockDevice()
	m := NewCmdPoolManager(dev, DefaultConfig())
	_, err := m.GetCommandBuffer(context.Background(), 0, QueueGraphics)
	require.NoError(t, err)
	m.ReleaseResources()
	for _, row := range m.cells {
		for _, cell := range row {
			require.False(t, cell.created)
		}
	}
}
