// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestImageTracker_WriteThenMultipleReadersThenWriteAgain walks scenarios
// 2 and 3 end to end: a clear (transfer write) transitions the image to
// TRANSFER_DST, two shader stages then sample it in the same draw
// (one barrier, shared by both readers), a second identical draw sees
// nothing, and a subsequent clear barriers back from the readers' stage
// union with no src access (nothing to make visible, only ordering).
func TestImageTracker_WriteThenMultipleReadersThenWriteAgain(t *testing.T) {
	tr := NewImageTracker("I", LayoutTransferDst)
	agg := NewAggregator()

	// ClearColorImage: a transfer write targeting LayoutTransferDst, the
	// tracker's default layout, so seeding it emits no barrier.
	tr.AddPendingState(Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst, 1)
	tr.CommitBarrier(agg, img1, 1, 1)
	_, ok := agg.GetBarriers()
	require.False(t, ok, "seeding the first write at the default layout needs no barrier")

	// First draw: vertex and fragment shaders both sample I.
	tr.AddPendingState(Access{Stages: StageVertexShader, Access: AccessShaderRead}, LayoutShaderReadOnly, 2)
	tr.AddPendingState(Access{Stages: StageFragmentShader, Access: AccessShaderRead}, LayoutDontCare, 2)
	tr.CommitBarrier(agg, img1, 1, 1)
	pb, ok := agg.GetBarriers()
	require.True(t, ok)
	require.Len(t, pb.Image, 1)
	ib := pb.Image[0]
	require.Equal(t, LayoutTransferDst, ib.OldLayout)
	require.Equal(t, LayoutShaderReadOnly, ib.NewLayout)
	require.Equal(t, StageVertexShader|StageFragmentShader, pb.DstStage)
	agg.ClearBarriers()

	// Second draw with the same binding: layout already matches and the
	// read-cache bit for AccessShaderRead is already available.
	tr.AddPendingState(Access{Stages: StageVertexShader, Access: AccessShaderRead}, LayoutShaderReadOnly, 3)
	tr.AddPendingState(Access{Stages: StageFragmentShader, Access: AccessShaderRead}, LayoutDontCare, 3)
	tr.CommitBarrier(agg, img1, 1, 1)
	_, ok = agg.GetBarriers()
	require.False(t, ok, "second draw with the same binding needs no barrier")

	// Writer after readers: clear I again. Source is the readers' stage
	// union with no access bits (nothing to flush, only to order after).
	tr.AddPendingState(Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst, 4)
	tr.CommitBarrier(agg, img1, 1, 1)
	pb, ok = agg.GetBarriers()
	require.True(t, ok)
	require.Len(t, pb.Image, 1)
	ib = pb.Image[0]
	require.Equal(t, StageVertexShader|StageFragmentShader, pb.SrcStage)
	require.Equal(t, AccessNone, ib.SrcAccess)
	require.Equal(t, AccessTransferWrite, ib.DstAccess)
	require.Equal(t, LayoutShaderReadOnly, ib.OldLayout)
	require.Equal(t, LayoutTransferDst, ib.NewLayout)
}
