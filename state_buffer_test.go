// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBufferTracker_UploadThenSample exercises the "upload then sample"
// scenario: a transfer write followed by a compute-shader uniform read
// of the same buffer must see exactly one barrier, and a second
// identical read must see none.
func TestBufferTracker_UploadThenSample(t *testing.T) {
	tr := NewBufferTracker("B")
	agg := NewAggregator()

	tr.AddPendingState(Access{Stages: StageTransfer, Access: AccessTransferWrite}, 1)
	tr.CommitBarrier(agg, buf1)
	_, ok := agg.GetBarriers()
	require.False(t, ok, "seeding the first write needs no barrier")

	tr.AddPendingState(Access{Stages: StageComputeShader, Access: AccessUniformRead}, 2)
	tr.CommitBarrier(agg, buf1)
	pb, ok := agg.GetBarriers()
	require.True(t, ok)
	require.Len(t, pb.Buffer, 1)
	b := pb.Buffer[0]
	require.Equal(t, AccessTransferWrite, b.SrcAccess)
	require.Equal(t, AccessUniformRead, b.DstAccess)
	require.Equal(t, StageTransfer, pb.SrcStage)
	require.Equal(t, StageComputeShader, pb.DstStage)
	agg.ClearBarriers()

	// A second dispatch binding the same buffer for the same read access
	// must not barrier again: the uniform-read cache bit is already
	// marked available.
	tr.AddPendingState(Access{Stages: StageComputeShader, Access: AccessUniformRead}, 3)
	tr.CommitBarrier(agg, buf1)
	_, ok = agg.GetBarriers()
	require.False(t, ok, "repeat read with no intervening write needs no barrier")
}

func TestBufferTracker_CommitWithNoPendingStateEmitsNothing(t *testing.T) {
	tr := NewBufferTracker("B")
	agg := NewAggregator()
	tr.CommitBarrier(agg, buf1)
	_, ok := agg.GetBarriers()
	require.False(t, ok)
}
