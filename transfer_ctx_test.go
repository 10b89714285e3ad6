// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransferContext_UpdateThenCopyBarrierOrdering(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	bufA := newBufferHandle(1)
	bufB := newBufferHandle(2)
	res.buffers[bufA] = BufferDesc{Native: 100, Size: 256}
	res.buffers[bufB] = BufferDesc{Native: 200, Size: 256}

	tc := NewTransferContext(dev, res, nil, SyncPerResource, 1, 0)
	require.NoError(t, tc.UpdateBuffer(bufA, 0, []byte("hello")))
	require.NoError(t, tc.CopyBuffer(bufA, bufB, 0, 0, 5))

	require.Equal(t, []string{"UpdateBuffer", "CopyBuffer"}, dev.calls)
	// A write followed by a read of the same buffer must barrier between
	// them.
	require.Len(t, dev.barriers, 1)
	require.Len(t, dev.barriers[0].Buffer, 1)
}

func TestTransferContext_IndirectEncodesInsteadOfCallingDevice(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	buf := newBufferHandle(1)
	res.buffers[buf] = BufferDesc{Native: 100, Size: 256}

	tc := NewTransferContext(dev, res, nil, SyncPerResource, 0, 4096)
	require.True(t, tc.(*transferContext).IsIndirect())
	require.NoError(t, tc.FillBuffer(buf, 0, 64, 0))

	require.Empty(t, dev.calls, "indirect context must not call the device directly")
}

func TestTransferContext_UploadBufferFillsStagingAndCopies(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	buf := newBufferHandle(1)
	res.buffers[buf] = BufferDesc{Native: 100, Size: 256}
	sched := &fakeScheduler{}

	tc := NewTransferContext(dev, res, sched, SyncPerResource, 1, 0)
	var filled []byte
	_, err := tc.UploadBuffer(buf, 0, 4, 0, func(b []byte) {
		copy(b, []byte{1, 2, 3, 4})
		filled = append([]byte(nil), b...)
	})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, filled)
	require.Contains(t, dev.calls, "CopyBuffer")
}

func TestComputeContext_BindDescriptorSetAddsResourceStates(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	buf := newBufferHandle(1)
	res.buffers[buf] = BufferDesc{Native: 100, Size: 256}
	set := DescSetHandle{NewHandle(1, 1)}
	res.descSets[set] = []DescBinding{{Kind: DescBindingUniformBuffer, Buffer: buf, Stages: StageComputeShader}}

	cc := NewComputeContext(dev, res, nil, SyncPerResource, 1, 0)
	require.NoError(t, cc.BindDescriptorSet(set, 0))
	require.NoError(t, cc.Dispatch(1, 1, 1))
	require.Contains(t, dev.calls, "BindDescriptorSetCompute")
	require.Contains(t, dev.calls, "Dispatch")
}

func TestDrawContext_ElidesRedundantPipelineBind(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	dc := NewDrawContext(dev, res, SyncManual, 1)

	pipe := PipelineHandle{NewHandle(5, 1)}
	dc.BindPipeline(pipe)
	dc.BindPipeline(pipe)
	count := 0
	for _, c := range dev.calls {
		if c == "BindGraphicsPipeline" {
			count++
		}
	}
	require.Equal(t, 1, count, "rebinding the same pipeline must be elided")
}

func TestDrawContext_VertexBufferChunking(t *testing.T) {
	dev := newMockDevice()
	res := newFakeResourceManager()
	bufs := make([]BufferHandle, 20)
	offsets := make([]int64, 20)
	for i := range bufs {
		h := newBufferHandle(int32(i + 1))
		res.buffers[h] = BufferDesc{Native: NativeHandle(i + 1), Size: 256}
		bufs[i] = h
	}

	dc := NewDrawContext(dev, res, SyncManual, 1)
	require.NoError(t, dc.BindVertexBuffers(0, bufs, offsets))

	count := 0
	for _, c := range dev.calls {
		if c == "BindVertexBuffers" {
			count++
		}
	}
	require.Equal(t, 3, count, "20 buffers at chunk size 8 should issue 3 binds")
}
