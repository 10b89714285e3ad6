// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeReplay_TransferRoundTrip(t *testing.T) {
	enc := NewEncoder(4096)
	enc.FillBuffer(buf1, 0, 128, 0xDEADBEEF)
	enc.CopyBuffer(buf1, buf1+1, 0, 128, 64)
	enc.DebugMarker("upload")
	baked := enc.Prepare(CmdEnd)
	require.Equal(t, 3, baked.Count)

	dev := newMockDevice()
	require.NoError(t, ReplayTransferComputeGraphics(dev, 1, baked))
	require.Equal(t, []string{"FillBuffer", "CopyBuffer", "DebugMarker:upload"}, dev.calls)
}

func TestEncodeReplay_StopsAtEndSentinel(t *testing.T) {
	enc := NewEncoder(4096)
	enc.Dispatch(1, 1, 1)
	baked := enc.Prepare(CmdEnd)

	// Manually append a bogus record after End to prove replay never
	// reaches it.
	baked.cmds = append(baked.cmds, encodedCommand{id: CmdDispatch, payload: cmdDispatch{X: 9, Y: 9, Z: 9}})

	dev := newMockDevice()
	require.NoError(t, ReplayTransferComputeGraphics(dev, 1, baked))
	require.Equal(t, []string{"Dispatch"}, dev.calls)
}

func TestEncodeReplay_FillBarrierDispatchRoundTrip(t *testing.T) {
	enc := NewEncoder(4096)
	enc.FillBuffer(buf1, 0, 256, 0)
	enc.PipelineBarrier(PipelineBarrier{
		SrcStage: StageTransfer,
		DstStage: StageComputeShader,
		Buffer: []BufferBarrier{{
			SrcAccess: AccessTransferWrite,
			DstAccess: AccessShaderRead,
			Buffer:    buf1,
			Offset:    0,
			Size:      256,
		}},
	})
	enc.Dispatch(1, 1, 1)
	baked := enc.Prepare(CmdEnd)
	require.Equal(t, 3, baked.Count)

	dev := newMockDevice()
	require.NoError(t, ReplayTransferComputeGraphics(dev, 1, baked))
	require.Equal(t, []string{"FillBuffer", "Dispatch"}, dev.calls)
	require.Len(t, dev.barriers, 1)
	require.Len(t, dev.barriers[0].Buffer, 1)
	require.Equal(t, AccessTransferWrite, dev.barriers[0].Buffer[0].SrcAccess)
	require.Equal(t, AccessShaderRead, dev.barriers[0].Buffer[0].DstAccess)
}

func TestEncodeReplay_DrawFamilyIsDisjoint(t *testing.T) {
	enc := NewEncoder(16384)
	enc.BindGraphicsPipeline(1)
	enc.SetViewport(0, 0, 1920, 1080)
	enc.DrawIndexed(36, 1, 0, 0, 0)
	baked := enc.Prepare(CmdDrawEnd)

	dev := newMockDevice()
	require.NoError(t, ReplayDraw(dev, 1, baked))
	require.Equal(t, []string{"BindGraphicsPipeline", "SetViewport", "DrawIndexed"}, dev.calls)
}
