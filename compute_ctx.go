// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// ComputeRecorder is the public contract of spec.md §4.5's compute tier:
// everything TransferRecorder offers, plus pipeline/descriptor-set binds
// and dispatch.
type ComputeRecorder interface {
	TransferRecorder

	BindPipeline(pipeline PipelineHandle)
	// BindDescriptorSet walks the set's declared bindings and adds their
	// resource states as pending uses before binding (spec.md §4.5).
	BindDescriptorSet(set DescSetHandle, index int) error
	PushConstants(stage PipelineStage, offset int, data []byte)
	Dispatch(x, y, z int) error
	DispatchBase(baseX, baseY, baseZ, x, y, z int) error
	DispatchIndirect(buf BufferHandle, offset int64) error
}

type computeContext struct {
	*transferContext
}

// NewComputeContext returns a compute-tier recorder.
func NewComputeContext(dev Device, resources ResourceManager, scheduler Scheduler, policy SyncPolicy, cmdbuf NativeHandle, encoderBlockSize int) ComputeRecorder {
	c := newContext(dev, resources, policy, cmdbuf, encoderBlockSize)
	c.IsTransfer = true
	c.IsCompute = true
	return &computeContext{transferContext: &transferContext{Context: c, scheduler: scheduler}}
}

func (c *computeContext) BindPipeline(pipeline PipelineHandle) {
	native := NativeHandle(pipeline.Index())
	if c.enc != nil {
		c.enc.BindComputePipeline(native)
	} else {
		c.dev.CmdBindComputePipeline(c.cmdbuf, native)
	}
}

func (c *computeContext) BindDescriptorSet(set DescSetHandle, index int) error {
	bindings, ok := c.resources.DescSetBindings(set)
	if !ok {
		return ErrResourceLookup
	}
	for _, b := range bindings {
		access := Access{Stages: b.Stages, Access: AccessShaderRead}
		if b.Write {
			access.Access = AccessShaderWrite
		}
		switch b.Kind {
		case DescBindingBuffer, DescBindingUniformBuffer:
			if b.Kind == DescBindingUniformBuffer {
				access.Access = AccessUniformRead
			}
			if err := c.addBufferUse(b.Buffer, access); err != nil {
				return err
			}
		case DescBindingImage, DescBindingSampledImage:
			layout := LayoutShaderReadOnly
			if b.Write {
				layout = LayoutGeneral
			}
			if err := c.addImageUse(b.Image, access, layout); err != nil {
				return err
			}
		}
	}
	native := NativeHandle(set.Index())
	if c.enc != nil {
		c.enc.BindDescriptorSetCompute(native, index)
	} else {
		c.dev.CmdBindDescriptorSetCompute(c.cmdbuf, native, index)
	}
	return nil
}

func (c *computeContext) PushConstants(stage PipelineStage, offset int, data []byte) {
	if c.enc != nil {
		c.enc.PushConstants(stage, offset, data)
	} else {
		c.dev.CmdPushConstants(c.cmdbuf, stage, offset, data)
	}
}

func (c *computeContext) Dispatch(x, y, z int) error {
	c.flushBarriers()
	if c.enc != nil {
		c.enc.Dispatch(x, y, z)
	} else {
		c.dev.CmdDispatch(c.cmdbuf, x, y, z)
	}
	return nil
}

func (c *computeContext) DispatchBase(baseX, baseY, baseZ, x, y, z int) error {
	if !c.dev.Features().DispatchBase {
		return ErrUnsupported
	}
	c.flushBarriers()
	if c.enc != nil {
		c.enc.DispatchBase(baseX, baseY, baseZ, x, y, z)
	} else {
		c.dev.CmdDispatchBase(c.cmdbuf, baseX, baseY, baseZ, x, y, z)
	}
	return nil
}

func (c *computeContext) DispatchIndirect(buf BufferHandle, offset int64) error {
	native, err := c.resolveBuffer(buf)
	if err != nil {
		return err
	}
	if err := c.addBufferUse(buf, Access{Stages: StageDrawIndirect, Access: AccessIndirectCommandRead}); err != nil {
		return err
	}
	c.flushBarriers()
	if c.enc != nil {
		c.enc.DispatchIndirect(native, offset)
	} else {
		c.dev.CmdDispatchIndirect(c.cmdbuf, native, offset)
	}
	return nil
}
