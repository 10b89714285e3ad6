// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Compute-tier command payloads, appended after the transfer prefix per
// spec.md §4.4.

type cmdBindComputePipeline struct{ Pipeline NativeHandle }

func (e *Encoder) BindComputePipeline(pipeline NativeHandle) {
	e.push(CmdBindComputePipeline, cmdBindComputePipeline{Pipeline: pipeline})
}

type cmdBindDescriptorSetCompute struct {
	Set   NativeHandle
	Index int
}

func (e *Encoder) BindDescriptorSetCompute(set NativeHandle, index int) {
	e.push(CmdBindDescriptorSetCompute, cmdBindDescriptorSetCompute{Set: set, Index: index})
}

type cmdPushConstants struct {
	Stage  PipelineStage
	Offset int
	Data   []byte
}

func (e *Encoder) PushConstants(stage PipelineStage, offset int, data []byte) {
	owned := append([]byte(nil), data...)
	e.push(CmdPushConstants, cmdPushConstants{Stage: stage, Offset: offset, Data: owned})
}

type cmdDispatch struct{ X, Y, Z int }

func (e *Encoder) Dispatch(x, y, z int) { e.push(CmdDispatch, cmdDispatch{X: x, Y: y, Z: z}) }

type cmdDispatchBase struct{ BaseX, BaseY, BaseZ, X, Y, Z int }

func (e *Encoder) DispatchBase(baseX, baseY, baseZ, x, y, z int) {
	e.push(CmdDispatchBase, cmdDispatchBase{BaseX: baseX, BaseY: baseY, BaseZ: baseZ, X: x, Y: y, Z: z})
}

type cmdDispatchIndirect struct {
	Buffer NativeHandle
	Offset int64
}

func (e *Encoder) DispatchIndirect(buf NativeHandle, offset int64) {
	e.push(CmdDispatchIndirect, cmdDispatchIndirect{Buffer: buf, Offset: offset})
}
