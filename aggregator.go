// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "github.com/jinzhu/copier"

// AggregatorStats counts barriers emitted into an Aggregator since it
// was created, broken down by kind. It is always compiled (spec.md §5's
// supplemented "barrier aggregator stat counters", grounded on the
// original engine's DEBUG_SYNC profiling counters) since introspection
// is never excluded by a Non-goal.
type AggregatorStats struct {
	Memory int
	Buffer int
	Image  int
}

// Aggregator accumulates per-pipeline-stage barriers from one or more
// resource-state trackers and flushes them as a single native call
// (spec.md §4.2). It is single-writer: owned by exactly one recording
// Context, never shared across goroutines.
type Aggregator struct {
	srcStage PipelineStage
	dstStage PipelineStage
	memory   MemoryBarrier // OR of src/dst access across all memory barriers added.
	hasMem   bool
	buffer   []BufferBarrier
	image    []ImageBarrier
	stats    AggregatorStats
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator { return &Aggregator{} }

// AddMemory accumulates a global memory barrier, merging it into the
// aggregator's single memory-barrier record (an OR of src/dst access
// across every call).
func (a *Aggregator) AddMemory(src, dst PipelineStage, b MemoryBarrier) {
	a.srcStage |= src
	a.dstStage |= dst
	a.memory.SrcAccess |= b.SrcAccess
	a.memory.DstAccess |= b.DstAccess
	a.hasMem = true
	a.stats.Memory++
}

// AddBuffer accumulates a buffer-memory barrier.
func (a *Aggregator) AddBuffer(src, dst PipelineStage, b BufferBarrier) {
	a.srcStage |= src
	a.dstStage |= dst
	a.buffer = append(a.buffer, b)
	a.stats.Buffer++
}

// AddImage accumulates an image-memory barrier (possibly a layout
// transition).
func (a *Aggregator) AddImage(src, dst PipelineStage, b ImageBarrier) {
	a.srcStage |= src
	a.dstStage |= dst
	a.image = append(a.image, b)
	a.stats.Image++
}

// GetBarriers returns a PipelineBarrier view of everything accumulated
// so far, and ok=false if nothing is pending (spec.md §4.2: "Empty when
// all three counts are zero").
func (a *Aggregator) GetBarriers() (PipelineBarrier, bool) {
	if !a.hasMem && len(a.buffer) == 0 && len(a.image) == 0 {
		return PipelineBarrier{}, false
	}
	pb := PipelineBarrier{
		SrcStage: a.srcStage,
		DstStage: a.dstStage,
		Buffer:   a.buffer,
		Image:    a.image,
	}
	if a.hasMem {
		pb.Memory = []MemoryBarrier{a.memory}
	}
	return pb, true
}

// ClearBarriers resets the aggregator to empty. Stats are left intact:
// the counters are cumulative, and no method resets them.
func (a *Aggregator) ClearBarriers() {
	a.srcStage = StageNone
	a.dstStage = StageNone
	a.memory = MemoryBarrier{}
	a.hasMem = false
	a.buffer = a.buffer[:0]
	a.image = a.image[:0]
}

// Stats returns the running emission counters.
func (a *Aggregator) Stats() AggregatorStats { return a.stats }

// Snapshot returns a deep copy of the aggregator's currently-pending
// barrier state, for debug logging that must outlive a subsequent
// ClearBarriers call. It uses copier.Copy so that growing PipelineBarrier
// with new slice fields does not require touching every call site.
func (a *Aggregator) Snapshot() PipelineBarrier {
	pb, _ := a.GetBarriers()
	var out PipelineBarrier
	if err := copier.CopyWithOption(&out, &pb, copier.Option{DeepCopy: true}); err != nil {
		return pb
	}
	return out
}
