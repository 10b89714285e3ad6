// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vkdevice

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/require"

	"github.com/gviegas/rendergraph"
)

func TestHandleOf_NonDispatchableRoundTrips(t *testing.T) {
	require.Equal(t, rendergraph.NativeHandle(42), handleOf(vk.Fence(42)))
	require.Equal(t, rendergraph.NativeHandle(7), handleOf(vk.Semaphore(7)))
	require.Equal(t, rendergraph.NativeHandle(9), handleOf(vk.Buffer(9)))
	require.Equal(t, uint64(42), toHandle(handleOf(vk.Fence(42))))
}

func TestStageFlags_PicksFirstSetBit(t *testing.T) {
	require.Equal(t, vk.PipelineStageTransferBit, stageFlags(rendergraph.StageTopOfPipe|rendergraph.StageTransfer))
	require.Equal(t, vk.PipelineStageComputeShaderBit, stageFlags(rendergraph.StageComputeShader))
	require.Equal(t, vk.PipelineStageAllCommandsBit, stageFlags(rendergraph.StageNone))
}

func TestAccessFlags_OrsEveryMatchingBit(t *testing.T) {
	got := accessFlags(rendergraph.AccessTransferWrite | rendergraph.AccessShaderRead)
	want := vk.AccessFlags(vk.AccessTransferWriteBit) | vk.AccessFlags(vk.AccessShaderReadBit)
	require.Equal(t, want, got)
}

func TestImageLayout_MapsEveryCoreLayout(t *testing.T) {
	cases := map[rendergraph.ImageLayout]vk.ImageLayout{
		rendergraph.LayoutUndefined:          vk.ImageLayoutUndefined,
		rendergraph.LayoutGeneral:            vk.ImageLayoutGeneral,
		rendergraph.LayoutColorTarget:        vk.ImageLayoutColorAttachmentOptimal,
		rendergraph.LayoutShaderReadOnly:     vk.ImageLayoutShaderReadOnlyOptimal,
		rendergraph.LayoutTransferSrc:        vk.ImageLayoutTransferSrcOptimal,
		rendergraph.LayoutTransferDst:        vk.ImageLayoutTransferDstOptimal,
		rendergraph.LayoutPresent:            vk.ImageLayoutPresentSrc,
		rendergraph.LayoutDepthStencilTarget: vk.ImageLayoutDepthStencilAttachmentOptimal,
		rendergraph.LayoutDepthStencilRead:   vk.ImageLayoutDepthStencilReadOnlyOptimal,
	}
	for core, want := range cases {
		require.Equal(t, want, imageLayout(core), "core layout %v", core)
	}
}

func TestIndexType_MapsBothFormats(t *testing.T) {
	require.Equal(t, vk.IndexTypeUint16, indexType(rendergraph.Index16))
	require.Equal(t, vk.IndexTypeUint32, indexType(rendergraph.Index32))
}
