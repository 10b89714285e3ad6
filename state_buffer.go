// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "fmt"

// Access bundles a pipeline-stage mask with the memory-access mask used
// at that stage, the unit of "state" tracked for a resource use.
type Access struct {
	Stages PipelineStage
	Access AccessMask
}

// isWrite reports whether a holds any write access bit.
func (a Access) isWrite() bool { return a.Access.IsWrite() }

// merge ORs stage/access flags in place, the accumulation rule used by
// AddPendingState when called multiple times within one recording span.
func (a *Access) merge(b Access) {
	a.Stages |= b.Stages
	a.Access |= b.Access
}

// bufferCurrent is the committed state of a whole-resource buffer
// tracker: the last write, the union of readers since that write, and
// which read-cache bits still need invalidation before the next read.
type bufferCurrent struct {
	write       Access
	writeOrder  uint32
	read        Access
	unavailable AccessMask
	seeded      bool // set by SetInitialState or a prior commit
}

// bufferPending accumulates uses within a single recording span, merged
// into bufferCurrent by CommitBarrier.
type bufferPending struct {
	active bool
	access Access
	order  uint32
}

// BufferTracker implements the whole-resource buffer variant of spec.md
// §4.1: per-resource last-writer/reader bookkeeping and the minimal
// barrier needed before each use.
type BufferTracker struct {
	name    string // for diagnostics only
	current bufferCurrent
	pending bufferPending
}

// NewBufferTracker returns a tracker with no seeded state; callers must
// call SetInitialState before the first AddPendingState/CommitBarrier
// cycle, or the first use is treated as needing no prior-state barrier.
func NewBufferTracker(name string) *BufferTracker {
	return &BufferTracker{name: name}
}

// SetInitialState seeds the current record without emitting a barrier.
// It panics if a pending record is outstanding (spec.md §4.1
// precondition: "no pending record outstanding").
func (t *BufferTracker) SetInitialState(state Access) {
	if t.pending.active {
		panic(fmt.Sprintf("rendergraph: BufferTracker(%s).SetInitialState: pending record outstanding", t.name))
	}
	t.current = bufferCurrent{seeded: true}
	if state.isWrite() {
		t.current.write = state
		t.current.unavailable = AccessAnyRead
	} else {
		t.current.read = state
	}
}

// AddPendingState accumulates a use. It may be called many times per
// commit cycle; repeated calls OR stage/access flags and take the max of
// exeOrder.
func (t *BufferTracker) AddPendingState(state Access, exeOrder uint32) {
	if !t.pending.active {
		t.pending = bufferPending{active: true, access: state, order: exeOrder}
		return
	}
	t.pending.access.merge(state)
	if exeOrder > t.pending.order {
		t.pending.order = exeOrder
	}
}

// CommitBarrier reduces pending into current, emitting at most one
// barrier record into agg, then clears pending.
func (t *BufferTracker) CommitBarrier(agg *Aggregator, buf NativeHandle) {
	if !t.pending.active {
		return
	}
	p := t.pending.access
	order := t.pending.order
	t.pending = bufferPending{}

	deriveBufferAccess(agg, buf, 0, -1, &t.current, p, order)
}

// deriveBufferAccess implements spec.md §4.1's whole-resource barrier
// derivation rule for a single sub-range [offset, offset+size) (size==-1
// meaning "whole buffer"), shared by BufferTracker.CommitBarrier and the
// ranged variant in state_range.go.
func deriveBufferAccess(agg *Aggregator, buf NativeHandle, offset, size int64, c *bufferCurrent, p Access, order uint32) {
	switch {
	case p.isWrite():
		srcStage, srcAccess := readAwareSource(c)
		if srcStage != StageNone {
			agg.AddBuffer(srcStage, p.Stages, BufferBarrier{
				SrcAccess: srcAccess,
				DstAccess: p.Access,
				Buffer:    buf,
				Offset:    offset,
				Size:      size,
			})
		}
		c.write = p
		c.writeOrder = order
		c.read = Access{}
		c.unavailable = AccessAnyRead
		c.seeded = true

	case c.unavailable&p.Access != 0:
		agg.AddBuffer(c.write.Stages, p.Stages, BufferBarrier{
			SrcAccess: c.write.Access,
			DstAccess: p.Access,
			Buffer:    buf,
			Offset:    offset,
			Size:      size,
		})
		c.unavailable &^= p.Access
		c.read.merge(p)

	default:
		c.read.merge(p)
	}
	c.seeded = true
}

// readAwareSource implements the "unless writes already made visible to
// readers" src-stage selection shared by the write case of buffer/image
// trackers and the image layout-transition case.
func readAwareSource(c *bufferCurrent) (PipelineStage, AccessMask) {
	if c.read.Stages != 0 {
		return c.read.Stages, AccessNone
	}
	return c.write.Stages, c.write.Access
}

// Destroy emits a final barrier back to defaultState if current state
// differs from it (any read-cache bit still unavailable, since buffers
// have no layout). Destination stage is StageBottomOfPipe.
func (t *BufferTracker) Destroy(agg *Aggregator, buf NativeHandle, defaultState Access) {
	if t.pending.active {
		panic(fmt.Sprintf("rendergraph: BufferTracker(%s).Destroy: pending record outstanding", t.name))
	}
	c := &t.current
	if !c.seeded || c.unavailable == 0 {
		return
	}
	agg.AddBuffer(c.write.Stages, StageBottomOfPipe, BufferBarrier{
		SrcAccess: c.write.Access,
		DstAccess: defaultState.Access,
		Buffer:    buf,
		Offset:    0,
		Size:      -1,
	})
	*c = bufferCurrent{}
}
