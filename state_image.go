// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "fmt"

// LayoutDontCare is a pending-layout sentinel meaning "whatever the
// current layout already is"; used by calls that do not change layout
// (e.g. a shader read that tolerates either LayoutGeneral or whatever is
// already set).
const LayoutDontCare ImageLayout = -1

// imageCurrent extends bufferCurrent with the image's current layout.
type imageCurrent struct {
	bufferCurrent
	layout ImageLayout
}

type imagePending struct {
	active bool
	access Access
	layout ImageLayout
	order  uint32
}

// ImageTracker implements the whole-resource image variant of spec.md
// §4.1: as BufferTracker, plus layout-transition derivation.
type ImageTracker struct {
	name          string
	defaultLayout ImageLayout
	current       imageCurrent
	pending       imagePending
}

// NewImageTracker returns a tracker whose default layout (the
// end-of-frame/destroy target) is defaultLayout.
func NewImageTracker(name string, defaultLayout ImageLayout) *ImageTracker {
	return &ImageTracker{name: name, defaultLayout: defaultLayout}
}

// SetInitialState seeds the current record (and layout) without
// emitting a barrier.
func (t *ImageTracker) SetInitialState(state Access, layout ImageLayout) {
	if t.pending.active {
		panic(fmt.Sprintf("rendergraph: ImageTracker(%s).SetInitialState: pending record outstanding", t.name))
	}
	t.current = imageCurrent{layout: layout}
	t.current.seeded = true
	if state.isWrite() {
		t.current.write = state
		t.current.unavailable = AccessAnyRead
	} else {
		t.current.read = state
	}
}

// AddPendingState accumulates a use. Successive calls within one commit
// cycle must agree on layout unless the later call passes LayoutDontCare.
func (t *ImageTracker) AddPendingState(state Access, layout ImageLayout, exeOrder uint32) {
	if !t.pending.active {
		l := layout
		if !t.current.seeded && l == LayoutDontCare {
			l = t.defaultLayout
		}
		t.pending = imagePending{active: true, access: state, layout: l, order: exeOrder}
		return
	}
	if layout != LayoutDontCare {
		if t.pending.layout != LayoutDontCare && t.pending.layout != layout {
			panic(fmt.Sprintf("rendergraph: ImageTracker(%s).AddPendingState: conflicting pending layout", t.name))
		}
		t.pending.layout = layout
	}
	t.pending.access.merge(state)
	if exeOrder > t.pending.order {
		t.pending.order = exeOrder
	}
}

// CommitBarrier reduces pending into current, emitting at most one
// barrier record into agg.
func (t *ImageTracker) CommitBarrier(agg *Aggregator, img NativeHandle, layers, levels int) {
	if !t.pending.active {
		return
	}
	p := t.pending.access
	order := t.pending.order
	layout := t.pending.layout
	if layout == LayoutDontCare {
		layout = t.current.layout
	}
	t.pending = imagePending{}

	newLayout := deriveImageAccess(agg, img, 0, layers, 0, levels, &t.current.bufferCurrent, &t.current.layout, t.defaultLayout, p, order, layout)
	t.current.layout = newLayout
}

// deriveImageAccess implements spec.md §4.1's whole-resource image barrier
// derivation rule (write / layout-transition / cache-invalidation /
// parallel-reader, in that priority order) for a single sub-range keyed by
// [baseLayer,layerCount)x[baseLevel,levelCount). It mutates c in place and
// returns the sub-range's new layout; shared by ImageTracker.CommitBarrier
// and the ranged variant in state_range.go.
func deriveImageAccess(agg *Aggregator, img NativeHandle, baseLayer, layerCount, baseLevel, levelCount int, c *bufferCurrent, curLayoutPtr *ImageLayout, defaultLayout ImageLayout, p Access, order uint32, layout ImageLayout) ImageLayout {
	curLayout := *curLayoutPtr
	if !c.seeded {
		curLayout = defaultLayout
	}

	imgBarrier := func(srcAccess, dstAccess AccessMask, oldLayout, newLayout ImageLayout) ImageBarrier {
		return ImageBarrier{
			SrcAccess:  srcAccess,
			DstAccess:  dstAccess,
			OldLayout:  oldLayout,
			NewLayout:  newLayout,
			Image:      img,
			BaseLayer:  baseLayer,
			LayerCount: layerCount,
			BaseLevel:  baseLevel,
			LevelCount: levelCount,
		}
	}

	switch {
	case p.isWrite():
		srcStage, srcAccess := readAwareSource(c)
		if srcStage != StageNone || curLayout != layout {
			agg.AddImage(srcStage, p.Stages, imgBarrier(srcAccess, p.Access, curLayout, layout))
		}
		c.write = p
		c.writeOrder = order
		c.read = Access{}
		c.unavailable = AccessAnyRead
		c.seeded = true
		curLayout = layout

	case curLayout != layout:
		srcStage, srcAccess := readAwareSource(c)
		agg.AddImage(srcStage, p.Stages, imgBarrier(srcAccess, p.Access, curLayout, layout))
		curLayout = layout
		c.unavailable &^= p.Access
		c.read.merge(p)
		c.seeded = true

	case c.unavailable&p.Access != 0:
		agg.AddImage(c.write.Stages, p.Stages, imgBarrier(c.write.Access, p.Access, curLayout, layout))
		c.unavailable &^= p.Access
		c.read.merge(p)

	default:
		c.read.merge(p)
	}
	return curLayout
}

// Destroy emits a final barrier back to the default layout/state if
// current state differs (layout mismatch, or any read-cache bit still
// unavailable). Destination stage is StageBottomOfPipe.
func (t *ImageTracker) Destroy(agg *Aggregator, img NativeHandle, layers, levels int, defaultState Access) {
	if t.pending.active {
		panic(fmt.Sprintf("rendergraph: ImageTracker(%s).Destroy: pending record outstanding", t.name))
	}
	c := &t.current.bufferCurrent
	if !c.seeded {
		return
	}
	if t.current.layout == t.defaultLayout && c.unavailable == 0 {
		return
	}
	agg.AddImage(c.write.Stages, StageBottomOfPipe, ImageBarrier{
		SrcAccess:  c.write.Access,
		DstAccess:  defaultState.Access,
		OldLayout:  t.current.layout,
		NewLayout:  t.defaultLayout,
		Image:      img,
		LayerCount: layers,
		LevelCount: levels,
	})
	t.current = imageCurrent{}
}

// CurrentLayout returns the tracker's current layout, for diagnostics
// and for callers composing manual barriers alongside automatic ones.
func (t *ImageTracker) CurrentLayout() ImageLayout {
	if !t.current.seeded {
		return t.defaultLayout
	}
	return t.current.layout
}
