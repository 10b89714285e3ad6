// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// GraphicsRecorder is the public contract of spec.md §4.5's graphics
// tier: everything ComputeRecorder offers, plus blit/resolve. It
// reserves, but does not expose, begin/next/end render-pass (see
// DESIGN.md's Open Question decisions).
type GraphicsRecorder interface {
	ComputeRecorder

	BlitImage(src, dst ImageHandle, linear bool) error
	ResolveImage(src, dst ImageHandle, size Dim3D) error

	// BeginRenderPass is a documented extension point: this core does not
	// implement render-pass objects, so it always returns ErrUnsupported.
	BeginRenderPass() error
}

type graphicsContext struct {
	*computeContext
}

// NewGraphicsContext returns a graphics-tier recorder.
func NewGraphicsContext(dev Device, resources ResourceManager, scheduler Scheduler, policy SyncPolicy, cmdbuf NativeHandle, encoderBlockSize int) GraphicsRecorder {
	c := newContext(dev, resources, policy, cmdbuf, encoderBlockSize)
	c.IsTransfer = true
	c.IsCompute = true
	c.IsGraphics = true
	return &graphicsContext{computeContext: &computeContext{transferContext: &transferContext{Context: c, scheduler: scheduler}}}
}

func (g *graphicsContext) BlitImage(src, dst ImageHandle, linear bool) error {
	nsrc, _, err := g.resolveImage(src)
	if err != nil {
		return err
	}
	ndst, _, err := g.resolveImage(dst)
	if err != nil {
		return err
	}
	if err := g.addImageUse(src, Access{Stages: StageTransfer, Access: AccessTransferRead}, LayoutTransferSrc); err != nil {
		return err
	}
	if err := g.addImageUse(dst, Access{Stages: StageTransfer, Access: AccessTransferWrite}, LayoutTransferDst); err != nil {
		return err
	}
	g.flushBarriers()
	if g.enc != nil {
		g.enc.BlitImage(nsrc, ndst, linear)
	} else {
		g.dev.CmdBlitImage(g.cmdbuf, nsrc, ndst, linear)
	}
	return nil
}

func (g *graphicsContext) ResolveImage(src, dst ImageHandle, size Dim3D) error {
	nsrc, _, err := g.resolveImage(src)
	if err != nil {
		return err
	}
	ndst, _, err := g.resolveImage(dst)
	if err != nil {
		return err
	}
	if err := g.addImageUse(src, Access{Stages: StageResolve, Access: AccessColorRead}, LayoutTransferSrc); err != nil {
		return err
	}
	if err := g.addImageUse(dst, Access{Stages: StageResolve, Access: AccessColorWrite}, LayoutTransferDst); err != nil {
		return err
	}
	g.flushBarriers()
	if g.enc != nil {
		g.enc.ResolveImage(nsrc, ndst, size)
	} else {
		g.dev.CmdResolveImage(g.cmdbuf, nsrc, ndst, size)
	}
	return nil
}

func (g *graphicsContext) BeginRenderPass() error { return ErrUnsupported }
