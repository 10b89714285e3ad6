// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "fmt"

// Context is the shared recording state behind every tier-specific
// recorder (TransferRecorder, ComputeRecorder, GraphicsRecorder). It is
// composed from two orthogonal choices (spec.md §4.5): back-end (direct
// writes straight to a native command buffer; indirect encodes into an
// Encoder for later replay) and sync policy (manual/per-resource/
// per-range). A Context is single-threaded: exeOrder and the tracker
// maps are accessed without locking.
type Context struct {
	dev       Device
	resources ResourceManager
	log       Logger

	cmdbuf NativeHandle // valid when enc == nil (direct backend)
	enc    *Encoder     // valid when indirect

	policy SyncPolicy
	agg    *Aggregator

	exeOrder uint32

	bufTrack      map[BufferHandle]*BufferTracker
	imgTrack      map[ImageHandle]*ImageTracker
	rangeBufTrack map[BufferHandle]*RangedBufferTracker
	rangeImgTrack map[ImageHandle]*RangedImageTracker

	// IsTransfer/IsCompute/IsGraphics/IsRender are the statically-visible
	// capability flags of spec.md §4.5. Each New*Context constructor sets
	// its own tier's flag plus those of the tiers it builds on (graphics
	// sets IsTransfer, IsCompute and IsGraphics); draw sets IsGraphics and
	// IsRender.
	IsTransfer bool
	IsCompute  bool
	IsGraphics bool
	IsRender   bool
}

// newContext builds the shared state for a direct-backend context when
// cmdbuf != 0, or an indirect one when encoderBlockSize > 0.
func newContext(dev Device, resources ResourceManager, policy SyncPolicy, cmdbuf NativeHandle, encoderBlockSize int) *Context {
	c := &Context{
		dev:       dev,
		resources: resources,
		log:       newComponentLogger("context"),
		cmdbuf:    cmdbuf,
		policy:    policy,
		agg:       NewAggregator(),
	}
	if encoderBlockSize > 0 {
		c.enc = NewEncoder(encoderBlockSize)
	}
	if policy == SyncPerResource {
		c.bufTrack = make(map[BufferHandle]*BufferTracker)
		c.imgTrack = make(map[ImageHandle]*ImageTracker)
	} else if policy == SyncPerRange {
		c.rangeBufTrack = make(map[BufferHandle]*RangedBufferTracker)
		c.rangeImgTrack = make(map[ImageHandle]*RangedImageTracker)
	}
	return c
}

// HasAutoSync reports whether this context derives barriers
// automatically (any policy but SyncManual).
func (c *Context) HasAutoSync() bool { return c.policy != SyncManual }

// IsIndirect reports whether this context encodes for later replay
// instead of writing straight to a native command buffer.
func (c *Context) IsIndirect() bool { return c.enc != nil }

// Encoder exposes the underlying Encoder for indirect contexts; callers
// building a CommandBatch call Prepare on it once recording is done. It
// is nil for direct-backend contexts.
func (c *Context) Encoder() *Encoder { return c.enc }

func (c *Context) bufferTracker(h BufferHandle) (*BufferTracker, BufferDesc, error) {
	desc, ok := c.resources.BufferDesc(h)
	if !ok {
		return nil, BufferDesc{}, fmt.Errorf("%w: buffer handle %v", ErrResourceLookup, h)
	}
	t, ok := c.bufTrack[h]
	if !ok {
		t = NewBufferTracker(fmt.Sprintf("buffer#%d", h.Index()))
		c.bufTrack[h] = t
	}
	return t, desc, nil
}

func (c *Context) imageTracker(h ImageHandle) (*ImageTracker, ImageDesc, error) {
	desc, ok := c.resources.ImageDesc(h)
	if !ok {
		return nil, ImageDesc{}, fmt.Errorf("%w: image handle %v", ErrResourceLookup, h)
	}
	t, ok := c.imgTrack[h]
	if !ok {
		t = NewImageTracker(fmt.Sprintf("image#%d", h.Index()), desc.DefaultLayout)
		c.imgTrack[h] = t
	}
	return t, desc, nil
}

func (c *Context) rangedBufferTracker(h BufferHandle) (*RangedBufferTracker, BufferDesc, error) {
	desc, ok := c.resources.BufferDesc(h)
	if !ok {
		return nil, BufferDesc{}, fmt.Errorf("%w: buffer handle %v", ErrResourceLookup, h)
	}
	t, ok := c.rangeBufTrack[h]
	if !ok {
		t = NewRangedBufferTracker(fmt.Sprintf("buffer#%d", h.Index()))
		c.rangeBufTrack[h] = t
	}
	return t, desc, nil
}

func (c *Context) rangedImageTracker(h ImageHandle) (*RangedImageTracker, ImageDesc, error) {
	desc, ok := c.resources.ImageDesc(h)
	if !ok {
		return nil, ImageDesc{}, fmt.Errorf("%w: image handle %v", ErrResourceLookup, h)
	}
	t, ok := c.rangeImgTrack[h]
	if !ok {
		t = NewRangedImageTracker(fmt.Sprintf("image#%d", h.Index()), desc.DefaultLayout)
		c.rangeImgTrack[h] = t
	}
	return t, desc, nil
}

// addBufferUse records a pending use of the whole buffer h, under
// per-resource sync.
func (c *Context) addBufferUse(h BufferHandle, state Access) error {
	if c.policy != SyncPerResource {
		return nil
	}
	t, _, err := c.bufferTracker(h)
	if err != nil {
		return err
	}
	t.AddPendingState(state, c.exeOrder)
	return nil
}

// addBufferRangeUse records a pending use of [begin,end) of buffer h,
// under per-range sync.
func (c *Context) addBufferRangeUse(h BufferHandle, begin, end int64, state Access) error {
	if c.policy != SyncPerRange {
		return nil
	}
	t, _, err := c.rangedBufferTracker(h)
	if err != nil {
		return err
	}
	t.AddPendingState(begin, end, state, c.exeOrder)
	return nil
}

// addImageUse records a pending use of the whole image h.
func (c *Context) addImageUse(h ImageHandle, state Access, layout ImageLayout) error {
	if c.policy != SyncPerResource {
		return nil
	}
	t, _, err := c.imageTracker(h)
	if err != nil {
		return err
	}
	t.AddPendingState(state, layout, c.exeOrder)
	return nil
}

// addImageRangeUse records a pending use of subresource indices
// [begin,end) of image h.
func (c *Context) addImageRangeUse(h ImageHandle, begin, end int64, state Access, layout ImageLayout) error {
	if c.policy != SyncPerRange {
		return nil
	}
	t, _, err := c.rangedImageTracker(h)
	if err != nil {
		return err
	}
	t.AddPendingState(begin, end, state, layout, c.exeOrder)
	return nil
}

// resolveBuffer resolves h to its native handle without touching the
// sync policy, for manual-sync contexts.
func (c *Context) resolveBuffer(h BufferHandle) (NativeHandle, error) {
	desc, ok := c.resources.BufferDesc(h)
	if !ok {
		return 0, fmt.Errorf("%w: buffer handle %v", ErrResourceLookup, h)
	}
	return desc.Native, nil
}

func (c *Context) resolveImage(h ImageHandle) (NativeHandle, ImageDesc, error) {
	desc, ok := c.resources.ImageDesc(h)
	if !ok {
		return 0, ImageDesc{}, fmt.Errorf("%w: image handle %v", ErrResourceLookup, h)
	}
	return desc.Native, desc, nil
}

// flushBarriers commits every tracker's pending state into the shared
// Aggregator, issues the resulting PipelineBarrier (direct call or
// encoded record) if non-empty, then advances exe_order — spec.md §4.5:
// "a monotonic 32-bit counter incremented on flush_barriers()".
func (c *Context) flushBarriers() {
	switch c.policy {
	case SyncPerResource:
		for h, t := range c.bufTrack {
			desc, _ := c.resources.BufferDesc(h)
			t.CommitBarrier(c.agg, desc.Native)
		}
		for h, t := range c.imgTrack {
			desc, _ := c.resources.ImageDesc(h)
			layers, levels := subresourceExtent(desc)
			t.CommitBarrier(c.agg, desc.Native, layers, levels)
		}
	case SyncPerRange:
		for h, t := range c.rangeBufTrack {
			desc, _ := c.resources.BufferDesc(h)
			t.CommitBarrier(c.agg, desc.Native)
		}
		for h, t := range c.rangeImgTrack {
			desc, _ := c.resources.ImageDesc(h)
			t.CommitBarrier(c.agg, desc.Native)
		}
	}

	if pb, ok := c.agg.GetBarriers(); ok {
		if c.enc != nil {
			c.enc.PipelineBarrier(pb)
		} else {
			c.dev.CmdPipelineBarrier(c.cmdbuf, &pb)
		}
		c.agg.ClearBarriers()
	}
	c.exeOrder++
}

func subresourceExtent(desc ImageDesc) (layers, levels int) {
	return desc.ArrayLayers, desc.MipLevels
}
