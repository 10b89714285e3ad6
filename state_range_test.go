// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	buf1 NativeHandle = 1
	img1 NativeHandle = 2
)

func TestRangedBufferTracker_DisjointRangesNoBarrier(t *testing.T) {
	tr := NewRangedBufferTracker("arena")
	agg := NewAggregator()

	tr.AddPendingState(0, 64, Access{Stages: StageTransfer, Access: AccessTransferWrite}, 1)
	tr.AddPendingState(128, 192, Access{Stages: StageTransfer, Access: AccessTransferWrite}, 1)
	tr.CommitBarrier(agg, buf1)

	_, ok := agg.GetBarriers()
	require.False(t, ok, "first use of disjoint ranges needs no barrier")
	require.Len(t, tr.current, 2)
}

func TestRangedBufferTracker_OverlapWriteThenRead(t *testing.T) {
	tr := NewRangedBufferTracker("arena")
	agg := NewAggregator()

	tr.AddPendingState(0, 256, Access{Stages: StageTransfer, Access: AccessTransferWrite}, 1)
	tr.CommitBarrier(agg, buf1)
	agg.ClearBarriers()

	// Read only the middle third; only that sub-range should see a barrier,
	// and the record list should now have three entries.
	tr.AddPendingState(64, 128, Access{Stages: StageVertexShader, Access: AccessShaderRead}, 2)
	tr.CommitBarrier(agg, buf1)

	pb, ok := agg.GetBarriers()
	require.True(t, ok)
	require.Len(t, pb.Buffer, 1)
	require.Equal(t, int64(64), pb.Buffer[0].Offset)
	require.Equal(t, int64(64), pb.Buffer[0].Size)
	require.Len(t, tr.current, 3)
}

func TestRangedBufferTracker_Forget(t *testing.T) {
	tr := NewRangedBufferTracker("arena")
	agg := NewAggregator()
	tr.AddPendingState(0, 64, Access{Stages: StageTransfer, Access: AccessTransferWrite}, 1)
	tr.CommitBarrier(agg, buf1)
	require.Len(t, tr.current, 1)

	tr.Forget(16, 32)
	require.Len(t, tr.current, 2)
	require.Equal(t, int64(0), tr.current[0].begin)
	require.Equal(t, int64(16), tr.current[0].end)
	require.Equal(t, int64(32), tr.current[1].begin)
	require.Equal(t, int64(64), tr.current[1].end)
}

func TestRangedImageTracker_LayoutTransitionPerSubresource(t *testing.T) {
	tr := NewRangedImageTracker("atlas", LayoutShaderReadOnly)
	agg := NewAggregator()

	// Mip 0 written as a render target (index 0); mip 1 left untouched.
	tr.AddPendingState(0, 1, Access{Stages: StageColorOutput, Access: AccessColorWrite}, LayoutColorTarget, 1)
	tr.CommitBarrier(agg, img1)
	agg.ClearBarriers()

	// Now sample mip 0: layout transition back to shader-read-only.
	tr.AddPendingState(0, 1, Access{Stages: StageFragmentShader, Access: AccessShaderRead}, LayoutShaderReadOnly, 2)
	tr.CommitBarrier(agg, img1)

	pb, ok := agg.GetBarriers()
	require.True(t, ok)
	require.Len(t, pb.Image, 1)
	require.Equal(t, LayoutColorTarget, pb.Image[0].OldLayout)
	require.Equal(t, LayoutShaderReadOnly, pb.Image[0].NewLayout)
}

func TestRangedImageTracker_Forget(t *testing.T) {
	tr := NewRangedImageTracker("atlas", LayoutShaderReadOnly)
	agg := NewAggregator()
	tr.AddPendingState(0, 4, Access{Stages: StageFragmentShader, Access: AccessShaderRead}, LayoutShaderReadOnly, 1)
	tr.CommitBarrier(agg, img1)
	require.Len(t, tr.current, 1)

	tr.Forget(1, 2)
	require.Len(t, tr.current, 2)
}
