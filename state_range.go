// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// bufRangeRecord is one entry of a RangedBufferTracker's current list: a
// non-overlapping [begin,end) byte range and the state committed over it.
type bufRangeRecord struct {
	begin, end int64
	state      bufferCurrent
}

// bufRangePending is one entry of the pending list accumulated within a
// single recording span, before splitting against current.
type bufRangePending struct {
	begin, end int64
	access     Access
	order      uint32
}

// RangedBufferTracker implements the ranged buffer variant of spec.md
// §4.1: a sorted, non-overlapping list of [begin,end) access records
// instead of one whole-resource record, for buffers large enough that
// sub-range tracking avoids false-sharing barriers (e.g. a big vertex
// arena written by many disjoint upload tasks per frame).
type RangedBufferTracker struct {
	name    string
	current []bufRangeRecord // sorted by begin, non-overlapping
	pending []bufRangePending // sorted by begin, non-overlapping
}

// NewRangedBufferTracker returns an empty ranged tracker; no range is
// seeded until AddPendingState/CommitBarrier or SetInitialState runs.
func NewRangedBufferTracker(name string) *RangedBufferTracker {
	return &RangedBufferTracker{name: name}
}

// SetInitialState seeds a single range without emitting a barrier.
func (t *RangedBufferTracker) SetInitialState(begin, end int64, state Access) {
	if len(t.pending) != 0 {
		panic(fmt.Sprintf("rendergraph: RangedBufferTracker(%s).SetInitialState: pending record outstanding", t.name))
	}
	c := bufferCurrent{seeded: true}
	if state.isWrite() {
		c.write = state
		c.unavailable = AccessAnyRead
	} else {
		c.read = state
	}
	t.current = replaceBufferRange(t.current, begin, end, c)
}

// AddPendingState splits the incoming [begin,end) range against the
// pending list, merging (OR) where it overlaps an existing pending entry
// and inserting fresh entries where it does not (spec.md §4.1: "splits
// the incoming range against the pending list").
func (t *RangedBufferTracker) AddPendingState(begin, end int64, state Access, exeOrder uint32) {
	if begin >= end {
		return
	}
	t.pending = mergeBufferPending(t.pending, begin, end, state, exeOrder)
}

// mergeBufferPending inserts [begin,end) with (acc,order) into a sorted,
// non-overlapping pending list, OR-ing stage/access flags and taking the
// max order over any overlapped sub-range.
func mergeBufferPending(list []bufRangePending, begin, end int64, acc Access, order uint32) []bufRangePending {
	// Locate the first entry whose end is past begin: earlier entries are
	// wholly disjoint and copied through untouched.
	idx, _ := slices.BinarySearchFunc(list, begin, func(e bufRangePending, target int64) int {
		if e.end <= target {
			return -1
		}
		return 1
	})

	result := append([]bufRangePending(nil), list[:idx]...)
	cur := begin
	i := idx
	for i < len(list) && list[i].begin < end {
		e := list[i]
		if e.begin > cur {
			result = append(result, bufRangePending{begin: cur, end: e.begin, access: acc, order: order})
			cur = e.begin
		}
		ovBegin, ovEnd := max64(cur, e.begin), min64(end, e.end)
		if e.begin < ovBegin {
			result = append(result, bufRangePending{begin: e.begin, end: ovBegin, access: e.access, order: e.order})
		}
		merged := e.access
		merged.merge(acc)
		mergedOrder := e.order
		if order > mergedOrder {
			mergedOrder = order
		}
		result = append(result, bufRangePending{begin: ovBegin, end: ovEnd, access: merged, order: mergedOrder})
		if e.end > ovEnd {
			result = append(result, bufRangePending{begin: ovEnd, end: e.end, access: e.access, order: e.order})
		}
		cur = ovEnd
		i++
	}
	if cur < end {
		result = append(result, bufRangePending{begin: cur, end: end, access: acc, order: order})
	}
	result = append(result, list[i:]...)
	return result
}

// CommitBarrier reduces the pending list into current, emitting one
// barrier per intersected sub-range (spec.md §4.1), then clears pending.
func (t *RangedBufferTracker) CommitBarrier(agg *Aggregator, buf NativeHandle) {
	if len(t.pending) == 0 {
		return
	}
	pending := t.pending
	t.pending = nil

	for _, p := range pending {
		idx, _ := slices.BinarySearchFunc(t.current, p.begin, func(e bufRangeRecord, target int64) int {
			if e.end <= target {
				return -1
			}
			return 1
		})

		cur := p.begin
		var spliced []bufRangeRecord
		j := idx
		for j < len(t.current) && t.current[j].begin < p.end {
			e := t.current[j]
			if e.begin > cur {
				// untouched gap: first use, no prior state to invalidate against.
				var fresh bufferCurrent
				deriveBufferAccess(agg, buf, cur, e.begin-cur, &fresh, p.access, p.order)
				spliced = append(spliced, bufRangeRecord{begin: cur, end: e.begin, state: fresh})
				cur = e.begin
			}
			ovBegin, ovEnd := max64(cur, e.begin), min64(p.end, e.end)
			if e.begin < ovBegin {
				spliced = append(spliced, bufRangeRecord{begin: e.begin, end: ovBegin, state: e.state})
			}
			state := e.state
			deriveBufferAccess(agg, buf, ovBegin, ovEnd-ovBegin, &state, p.access, p.order)
			spliced = append(spliced, bufRangeRecord{begin: ovBegin, end: ovEnd, state: state})
			if e.end > ovEnd {
				spliced = append(spliced, bufRangeRecord{begin: ovEnd, end: e.end, state: e.state})
			}
			cur = ovEnd
			j++
		}
		if cur < p.end {
			var fresh bufferCurrent
			deriveBufferAccess(agg, buf, cur, p.end-cur, &fresh, p.access, p.order)
			spliced = append(spliced, bufRangeRecord{begin: cur, end: p.end, state: fresh})
		}

		merged := append([]bufRangeRecord(nil), t.current[:idx]...)
		merged = append(merged, spliced...)
		merged = append(merged, t.current[j:]...)
		t.current = merged
	}
}

// replaceBufferRange splices a single record over [begin,end), used by
// SetInitialState; it does not derive barriers, only installs state.
func replaceBufferRange(list []bufRangeRecord, begin, end int64, state bufferCurrent) []bufRangeRecord {
	idx, _ := slices.BinarySearchFunc(list, begin, func(e bufRangeRecord, target int64) int {
		if e.end <= target {
			return -1
		}
		return 1
	})
	j := idx
	for j < len(list) && list[j].begin < end {
		j++
	}
	out := append([]bufRangeRecord(nil), list[:idx]...)
	out = append(out, bufRangeRecord{begin: begin, end: end, state: state})
	out = append(out, list[j:]...)
	return out
}

// Forget erases any access records covering [begin,end), the supplemented
// operation from SPEC_FULL.md §5 grounded on the original engine's
// VLocalResRangesManager erase-on-destroy path: callers use it when a
// sub-allocation within a larger arena buffer is freed and its range must
// stop accumulating barriers on behalf of resources that no longer exist.
func (t *RangedBufferTracker) Forget(begin, end int64) {
	if begin >= end || len(t.current) == 0 {
		return
	}
	idx, _ := slices.BinarySearchFunc(t.current, begin, func(e bufRangeRecord, target int64) int {
		if e.end <= target {
			return -1
		}
		return 1
	})
	var out []bufRangeRecord
	out = append(out, t.current[:idx]...)
	j := idx
	for j < len(t.current) && t.current[j].begin < end {
		e := t.current[j]
		if e.begin < begin {
			out = append(out, bufRangeRecord{begin: e.begin, end: begin, state: e.state})
		}
		if e.end > end {
			out = append(out, bufRangeRecord{begin: end, end: e.end, state: e.state})
		}
		j++
	}
	out = append(out, t.current[j:]...)
	t.current = out
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// imgRangeRecord is one entry of a RangedImageTracker's current list,
// keyed by a [begin,end) linear subresource-index range (spec.md §4.1:
// "keyed by a linear mip*arrayLayers+layer index").
type imgRangeRecord struct {
	begin, end int64
	state      bufferCurrent
	layout     ImageLayout
}

type imgRangePending struct {
	begin, end int64
	access     Access
	layout     ImageLayout
	order      uint32
}

// RangedImageTracker implements the ranged image variant of spec.md §4.1:
// per-subresource (mip,layer) tracking instead of one whole-resource
// record, needed when different mips/layers of the same image are bound
// with independent layouts within a single frame (e.g. mip 0 as a render
// target while mip 1..N are sampled as mip-mapped input).
type RangedImageTracker struct {
	name          string
	defaultLayout ImageLayout
	current       []imgRangeRecord
	pending       []imgRangePending
}

// NewRangedImageTracker returns an empty ranged image tracker.
func NewRangedImageTracker(name string, defaultLayout ImageLayout) *RangedImageTracker {
	return &RangedImageTracker{name: name, defaultLayout: defaultLayout}
}

// SetInitialState seeds a single subresource range without emitting a
// barrier.
func (t *RangedImageTracker) SetInitialState(begin, end int64, state Access, layout ImageLayout) {
	if len(t.pending) != 0 {
		panic(fmt.Sprintf("rendergraph: RangedImageTracker(%s).SetInitialState: pending record outstanding", t.name))
	}
	c := bufferCurrent{seeded: true}
	if state.isWrite() {
		c.write = state
		c.unavailable = AccessAnyRead
	} else {
		c.read = state
	}
	t.current = replaceImageRange(t.current, begin, end, c, layout)
}

// AddPendingState splits the incoming subresource range against the
// pending list as RangedBufferTracker.AddPendingState does, additionally
// carrying a target layout; overlapping entries must agree on layout
// unless one side is LayoutDontCare.
func (t *RangedImageTracker) AddPendingState(begin, end int64, state Access, layout ImageLayout, exeOrder uint32) {
	if begin >= end {
		return
	}
	t.pending = mergeImagePending(t.pending, begin, end, state, layout, exeOrder, t.name)
}

func mergeImagePending(list []imgRangePending, begin, end int64, acc Access, layout ImageLayout, order uint32, name string) []imgRangePending {
	idx, _ := slices.BinarySearchFunc(list, begin, func(e imgRangePending, target int64) int {
		if e.end <= target {
			return -1
		}
		return 1
	})

	result := append([]imgRangePending(nil), list[:idx]...)
	cur := begin
	i := idx
	for i < len(list) && list[i].begin < end {
		e := list[i]
		if e.begin > cur {
			result = append(result, imgRangePending{begin: cur, end: e.begin, access: acc, layout: layout, order: order})
			cur = e.begin
		}
		ovBegin, ovEnd := max64(cur, e.begin), min64(end, e.end)
		if e.begin < ovBegin {
			result = append(result, imgRangePending{begin: e.begin, end: ovBegin, access: e.access, layout: e.layout, order: e.order})
		}
		merged := e.access
		merged.merge(acc)
		mergedOrder := e.order
		if order > mergedOrder {
			mergedOrder = order
		}
		mergedLayout := e.layout
		if layout != LayoutDontCare {
			if mergedLayout != LayoutDontCare && mergedLayout != layout {
				panic(fmt.Sprintf("rendergraph: RangedImageTracker(%s).AddPendingState: conflicting pending layout", name))
			}
			mergedLayout = layout
		}
		result = append(result, imgRangePending{begin: ovBegin, end: ovEnd, access: merged, layout: mergedLayout, order: mergedOrder})
		if e.end > ovEnd {
			result = append(result, imgRangePending{begin: ovEnd, end: e.end, access: e.access, layout: e.layout, order: e.order})
		}
		cur = ovEnd
		i++
	}
	if cur < end {
		result = append(result, imgRangePending{begin: cur, end: end, access: acc, layout: layout, order: order})
	}
	result = append(result, list[i:]...)
	return result
}

// CommitBarrier reduces the pending list into current, emitting one
// barrier per intersected subresource sub-range, then clears pending.
func (t *RangedImageTracker) CommitBarrier(agg *Aggregator, img NativeHandle) {
	if len(t.pending) == 0 {
		return
	}
	pending := t.pending
	t.pending = nil

	for _, p := range pending {
		layout := p.layout
		idx, _ := slices.BinarySearchFunc(t.current, p.begin, func(e imgRangeRecord, target int64) int {
			if e.end <= target {
				return -1
			}
			return 1
		})

		cur := p.begin
		var spliced []imgRangeRecord
		j := idx
		for j < len(t.current) && t.current[j].begin < p.end {
			e := t.current[j]
			if e.begin > cur {
				var fresh bufferCurrent
				curL := t.defaultLayout
				targetL := layout
				if targetL == LayoutDontCare {
					targetL = t.defaultLayout
				}
				newLayout := deriveImageAccess(agg, img, 0, 1, int(cur), int(e.begin-cur), &fresh, &curL, t.defaultLayout, p.access, p.order, targetL)
				spliced = append(spliced, imgRangeRecord{begin: cur, end: e.begin, state: fresh, layout: newLayout})
				cur = e.begin
			}
			ovBegin, ovEnd := max64(cur, e.begin), min64(p.end, e.end)
			if e.begin < ovBegin {
				spliced = append(spliced, imgRangeRecord{begin: e.begin, end: ovBegin, state: e.state, layout: e.layout})
			}
			targetL := layout
			if targetL == LayoutDontCare {
				targetL = e.layout
			}
			state := e.state
			curL := e.layout
			newLayout := deriveImageAccess(agg, img, 0, 1, int(ovBegin), int(ovEnd-ovBegin), &state, &curL, t.defaultLayout, p.access, p.order, targetL)
			spliced = append(spliced, imgRangeRecord{begin: ovBegin, end: ovEnd, state: state, layout: newLayout})
			if e.end > ovEnd {
				spliced = append(spliced, imgRangeRecord{begin: ovEnd, end: e.end, state: e.state, layout: e.layout})
			}
			cur = ovEnd
			j++
		}
		if cur < p.end {
			var fresh bufferCurrent
			curL := t.defaultLayout
			targetL := layout
			if targetL == LayoutDontCare {
				targetL = t.defaultLayout
			}
			newLayout := deriveImageAccess(agg, img, 0, 1, int(cur), int(p.end-cur), &fresh, &curL, t.defaultLayout, p.access, p.order, targetL)
			spliced = append(spliced, imgRangeRecord{begin: cur, end: p.end, state: fresh, layout: newLayout})
		}

		merged := append([]imgRangeRecord(nil), t.current[:idx]...)
		merged = append(merged, spliced...)
		merged = append(merged, t.current[j:]...)
		t.current = merged
	}
}

func replaceImageRange(list []imgRangeRecord, begin, end int64, state bufferCurrent, layout ImageLayout) []imgRangeRecord {
	idx, _ := slices.BinarySearchFunc(list, begin, func(e imgRangeRecord, target int64) int {
		if e.end <= target {
			return -1
		}
		return 1
	})
	j := idx
	for j < len(list) && list[j].begin < end {
		j++
	}
	out := append([]imgRangeRecord(nil), list[:idx]...)
	out = append(out, imgRangeRecord{begin: begin, end: end, state: state, layout: layout})
	out = append(out, list[j:]...)
	return out
}

// Forget erases any access records covering the subresource index range
// [startIdx,endIdx), mirroring RangedBufferTracker.Forget for images
// (spec.md §5 supplement: an image view over a freed sub-allocation, e.g.
// a texture-atlas slot, stops contributing barriers once released).
func (t *RangedImageTracker) Forget(startIdx, endIdx int) {
	begin, end := int64(startIdx), int64(endIdx)
	if begin >= end || len(t.current) == 0 {
		return
	}
	idx, _ := slices.BinarySearchFunc(t.current, begin, func(e imgRangeRecord, target int64) int {
		if e.end <= target {
			return -1
		}
		return 1
	})
	var out []imgRangeRecord
	out = append(out, t.current[:idx]...)
	j := idx
	for j < len(t.current) && t.current[j].begin < end {
		e := t.current[j]
		if e.begin < begin {
			out = append(out, imgRangeRecord{begin: e.begin, end: begin, state: e.state, layout: e.layout})
		}
		if e.end > end {
			out = append(out, imgRangeRecord{begin: end, end: e.end, state: e.state, layout: e.layout})
		}
		j++
	}
	out = append(out, t.current[j:]...)
	t.current = out
}
