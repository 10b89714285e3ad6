// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vkdevice implements rendergraph.Device against a real Vulkan
// logical device via github.com/goki/vulkan, the binding the teacher's
// vgpu package is built on. It is grounded on vgpu/device.go's
// queue/device ownership and vgpu/renderframe.go's fence/semaphore/
// submit call shapes (ResetFences → QueueSubmit → WaitForFences).
package vkdevice

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/gviegas/rendergraph"
)

// Device adapts a live Vulkan logical device and one queue per
// rendergraph.QueueType to the rendergraph.Device interface.
type Device struct {
	dev     vk.Device
	queues  [3]vk.Queue // indexed by QueueType
	feats   rendergraph.FeatureSet
	apiVers string
}

// New wraps an already-created Vulkan device. queues must have one
// entry per rendergraph.QueueType (graphics, compute, transfer),
// typically all the same vk.Queue on GPUs with a single combined
// queue family, matching vgpu.Device's single-queue model generalized
// to the render graph's three logical queues.
func New(dev vk.Device, queues [3]vk.Queue, feats rendergraph.FeatureSet, apiVersion string) *Device {
	return &Device{dev: dev, queues: queues, feats: feats, apiVers: apiVersion}
}

func (d *Device) Features() rendergraph.FeatureSet { return d.feats }
func (d *Device) APIVersion() string               { return d.apiVers }

func (d *Device) Queue(qt rendergraph.QueueType) rendergraph.NativeHandle {
	return handleOf(d.queues[qt])
}

// -- Fences --

func (d *Device) CreateFence(signaled bool) (rendergraph.NativeHandle, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if ret := vk.CreateFence(d.dev, &info, nil, &fence); ret != vk.Success {
		return 0, fmt.Errorf("vkCreateFence: %v", ret)
	}
	return handleOf(fence), nil
}

func (d *Device) WaitFences(fences []rendergraph.NativeHandle, waitAll bool, timeoutNanos int64) error {
	vf := toFenceSlice(fences)
	wait := vk.False
	if waitAll {
		wait = vk.True
	}
	timeout := uint64(timeoutNanos)
	if timeoutNanos < 0 {
		timeout = ^uint64(0) // VK_WHOLE_SIZE-style "wait forever" sentinel.
	}
	if ret := vk.WaitForFences(d.dev, uint32(len(vf)), vf, vk.Bool32(wait), timeout); ret != vk.Success {
		return fmt.Errorf("vkWaitForFences: %v", ret)
	}
	return nil
}

func (d *Device) ResetFences(fences []rendergraph.NativeHandle) error {
	vf := toFenceSlice(fences)
	if ret := vk.ResetFences(d.dev, uint32(len(vf)), vf); ret != vk.Success {
		return fmt.Errorf("vkResetFences: %v", ret)
	}
	return nil
}

func (d *Device) FenceSignaled(fence rendergraph.NativeHandle) (bool, error) {
	ret := vk.GetFenceStatus(d.dev, vk.Fence(toHandle(fence)))
	switch ret {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, fmt.Errorf("vkGetFenceStatus: %v", ret)
	}
}

func (d *Device) DestroyFence(fence rendergraph.NativeHandle) {
	vk.DestroyFence(d.dev, vk.Fence(toHandle(fence)), nil)
}

// -- Semaphores --

func (d *Device) CreateSemaphore() (rendergraph.NativeHandle, error) {
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	var sem vk.Semaphore
	if ret := vk.CreateSemaphore(d.dev, &info, nil, &sem); ret != vk.Success {
		return 0, fmt.Errorf("vkCreateSemaphore: %v", ret)
	}
	return handleOf(sem), nil
}

func (d *Device) DestroySemaphore(sem rendergraph.NativeHandle) {
	vk.DestroySemaphore(d.dev, vk.Semaphore(toHandle(sem)), nil)
}

// -- Command pools --

func queueFamily(qt rendergraph.QueueType) uint32 {
	// A single-queue-family device (the common vgpu configuration) routes
	// every logical queue type through family 0; a device exposing
	// dedicated compute/transfer families overrides this via a richer
	// constructor once one is needed.
	return 0
}

func (d *Device) CreateCommandPool(qt rendergraph.QueueType) (rendergraph.NativeHandle, error) {
	info := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: queueFamily(qt),
	}
	var pool vk.CommandPool
	if ret := vk.CreateCommandPool(d.dev, &info, nil, &pool); ret != vk.Success {
		return 0, fmt.Errorf("vkCreateCommandPool: %v", ret)
	}
	return handleOf(pool), nil
}

func (d *Device) ResetCommandPool(pool rendergraph.NativeHandle, releaseResources bool) error {
	var flags vk.CommandPoolResetFlags
	if releaseResources {
		flags = vk.CommandPoolResetFlags(vk.CommandPoolResetReleaseResourcesBit)
	}
	if ret := vk.ResetCommandPool(d.dev, vk.CommandPool(toHandle(pool)), flags); ret != vk.Success {
		return fmt.Errorf("vkResetCommandPool: %v", ret)
	}
	return nil
}

func (d *Device) DestroyCommandPool(pool rendergraph.NativeHandle) {
	vk.DestroyCommandPool(d.dev, vk.CommandPool(toHandle(pool)), nil)
}

// -- Command buffers --

func (d *Device) AllocateCommandBuffer(pool rendergraph.NativeHandle, secondary bool) (rendergraph.NativeHandle, error) {
	level := vk.CommandBufferLevelPrimary
	if secondary {
		level = vk.CommandBufferLevelSecondary
	}
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vk.CommandPool(toHandle(pool)),
		Level:              level,
		CommandBufferCount: 1,
	}
	bufs := make([]vk.CommandBuffer, 1)
	if ret := vk.AllocateCommandBuffers(d.dev, &info, bufs); ret != vk.Success {
		return 0, fmt.Errorf("vkAllocateCommandBuffers: %v", ret)
	}
	return handleOf(bufs[0]), nil
}

func (d *Device) FreeCommandBuffers(pool rendergraph.NativeHandle, cmdbufs []rendergraph.NativeHandle) {
	bufs := make([]vk.CommandBuffer, len(cmdbufs))
	for i, h := range cmdbufs {
		bufs[i] = toCommandBuffer(h)
	}
	vk.FreeCommandBuffers(d.dev, vk.CommandPool(toHandle(pool)), uint32(len(bufs)), bufs)
}

func (d *Device) BeginCommandBuffer(cb rendergraph.NativeHandle) error {
	info := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if ret := vk.BeginCommandBuffer(toCommandBuffer(cb), &info); ret != vk.Success {
		return fmt.Errorf("vkBeginCommandBuffer: %v", ret)
	}
	return nil
}

func (d *Device) EndCommandBuffer(cb rendergraph.NativeHandle) error {
	if ret := vk.EndCommandBuffer(toCommandBuffer(cb)); ret != vk.Success {
		return fmt.Errorf("vkEndCommandBuffer: %v", ret)
	}
	return nil
}

// -- Submission --

func (d *Device) Submit(qt rendergraph.QueueType, batches []rendergraph.SubmitBatch, fence rendergraph.NativeHandle) error {
	infos := make([]vk.SubmitInfo, len(batches))
	for i, b := range batches {
		cmds := make([]vk.CommandBuffer, len(b.CmdBuffers))
		for j, h := range b.CmdBuffers {
			cmds[j] = toCommandBuffer(h)
		}
		wait := make([]vk.Semaphore, len(b.Wait))
		waitStage := make([]vk.PipelineStageFlags, len(b.Wait))
		for j, h := range b.Wait {
			wait[j] = vk.Semaphore(toHandle(h))
			stage := vk.PipelineStageFlagBits(vk.PipelineStageAllCommandsBit)
			if j < len(b.WaitStage) {
				stage = stageFlags(b.WaitStage[j])
			}
			waitStage[j] = vk.PipelineStageFlags(stage)
		}
		signal := make([]vk.Semaphore, len(b.Signal))
		for j, h := range b.Signal {
			signal[j] = vk.Semaphore(toHandle(h))
		}
		infos[i] = vk.SubmitInfo{
			SType:                vk.StructureTypeSubmitInfo,
			CommandBufferCount:   uint32(len(cmds)),
			PCommandBuffers:      cmds,
			WaitSemaphoreCount:   uint32(len(wait)),
			PWaitSemaphores:      wait,
			PWaitDstStageMask:    waitStage,
			SignalSemaphoreCount: uint32(len(signal)),
			PSignalSemaphores:    signal,
		}
	}
	if ret := vk.QueueSubmit(d.queues[qt], uint32(len(infos)), infos, vk.Fence(toHandle(fence))); ret != vk.Success {
		return fmt.Errorf("vkQueueSubmit: %v", ret)
	}
	return nil
}

// -- Barriers --

func (d *Device) CmdPipelineBarrier(cb rendergraph.NativeHandle, b *rendergraph.PipelineBarrier) {
	if b.Empty() {
		return
	}
	mem := make([]vk.MemoryBarrier, len(b.Memory))
	for i, m := range b.Memory {
		mem[i] = vk.MemoryBarrier{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: accessFlags(m.SrcAccess),
			DstAccessMask: accessFlags(m.DstAccess),
		}
	}
	buf := make([]vk.BufferMemoryBarrier, len(b.Buffer))
	for i, bb := range b.Buffer {
		size := vk.DeviceSize(bb.Size)
		if bb.Size < 0 {
			size = vk.WholeSize
		}
		buf[i] = vk.BufferMemoryBarrier{
			SType:         vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask: accessFlags(bb.SrcAccess),
			DstAccessMask: accessFlags(bb.DstAccess),
			Buffer:        vk.Buffer(toHandle(bb.Buffer)),
			Offset:        vk.DeviceSize(bb.Offset),
			Size:          size,
		}
	}
	img := make([]vk.ImageMemoryBarrier, len(b.Image))
	for i, ib := range b.Image {
		img[i] = vk.ImageMemoryBarrier{
			SType:         vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask: accessFlags(ib.SrcAccess),
			DstAccessMask: accessFlags(ib.DstAccess),
			OldLayout:     imageLayout(ib.OldLayout),
			NewLayout:     imageLayout(ib.NewLayout),
			Image:         vk.Image(toHandle(ib.Image)),
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseArrayLayer: uint32(ib.BaseLayer),
				LayerCount:     uint32(ib.LayerCount),
				BaseMipLevel:   uint32(ib.BaseLevel),
				LevelCount:     uint32(ib.LevelCount),
			},
		}
	}
	vk.CmdPipelineBarrier(toCommandBuffer(cb), stageFlags(b.SrcStage), stageFlags(b.DstStage), 0,
		uint32(len(mem)), mem, uint32(len(buf)), buf, uint32(len(img)), img)
}
