// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "fmt"

// CommandID identifies the concrete type of an encoded command record
// (spec.md §4.4's "static index of T in the command type list"). The
// transfer tier's IDs are a prefix of compute's, which are a prefix of
// graphics's; draw is a disjoint family with its own numbering.
type CommandID uint16

// Transfer-tier command IDs.
const (
	CmdClearColorImage CommandID = iota
	CmdClearDepthStencilImage
	CmdFillBuffer
	CmdUpdateBuffer
	CmdCopyBuffer
	CmdCopyImage
	CmdCopyBufferToImage
	CmdCopyImageToBuffer
	CmdDebugMarker
	CmdPushDebugGroup
	CmdPopDebugGroup
	CmdPipelineBarrier

	// Compute-tier command IDs, appended after the transfer prefix.
	CmdBindComputePipeline
	CmdBindDescriptorSetCompute
	CmdPushConstants
	CmdDispatch
	CmdDispatchBase
	CmdDispatchIndirect

	// Graphics-tier command IDs, appended after the compute prefix.
	CmdBlitImage
	CmdResolveImage

	// CmdEnd is the sentinel every Encoder.Prepare appends; the replayer
	// stops at the first one it sees.
	CmdEnd
)

// Draw-tier command IDs, a disjoint family from the transfer/compute/
// graphics catalogue above (spec.md §4.4: "Draw records are a disjoint
// family").
const (
	CmdBindGraphicsPipeline CommandID = iota
	CmdBindDescriptorSetGraphics
	CmdSetViewport
	CmdSetScissor
	CmdBindIndexBuffer
	CmdBindVertexBuffers
	CmdDraw
	CmdDrawIndexed
	CmdDrawIndirect
	CmdDrawIndexedIndirect
	CmdDrawMeshTasks
	CmdDrawEnd
)

// encodedCommand is one record in an Encoder's backing slice: a command
// ID plus its payload. Go's garbage-collected slice of tagged payloads
// stands in for the bump-allocated byte buffer of spec.md §4.4 — the
// byte-level packing that buffer exists for (cache-friendly, single
// contiguous allocation, fixed max record size) is a C++-specific
// concern; the replay contract it serves (record now, dispatch by ID
// later, stop at a sentinel) is preserved exactly.
type encodedCommand struct {
	id      CommandID
	payload any
}

// Encoder is a bump-style command recorder: BlockSize, in bytes, governs
// how many records are reserved per grow step (one per 64 bytes),
// mirroring spec.md §4.4's configurable block size (default 4 KiB, enlarged for draw) even though
// Go's slice growth does the actual allocation.
type Encoder struct {
	blockSize int
	cmds      []encodedCommand
}

// NewEncoder returns an Encoder that reserves blockSize/64 records up
// front and grows its backing slice by blockSize/64+1 records at a time.
func NewEncoder(blockSize int) *Encoder {
	if blockSize <= 0 {
		blockSize = 4096
	}
	return &Encoder{blockSize: blockSize, cmds: make([]encodedCommand, 0, blockSize/64)}
}

// push appends one record, growing the backing slice by blockSize/64+1
// records when capacity runs out (spec.md §4.4: "allocate within the
// current block; fall forward on overflow").
func (e *Encoder) push(id CommandID, payload any) {
	if len(e.cmds) == cap(e.cmds) {
		grown := make([]encodedCommand, len(e.cmds), cap(e.cmds)+e.blockSize/64+1)
		copy(grown, e.cmds)
		e.cmds = grown
	}
	e.cmds = append(e.cmds, encodedCommand{id: id, payload: payload})
}

// BakedCommands is the result of Encoder.Prepare: an owned, ordered
// command stream ready for a Replayer (spec.md §4.4: "raw pointer +
// execute function pointer"). Count reports how many real commands
// (excluding the trailing End sentinel) were encoded.
type BakedCommands struct {
	cmds  []encodedCommand
	Count int
}

// Prepare finalizes the encoder: it appends the End sentinel and returns
// the baked command stream. The Encoder must not be reused afterward.
func (e *Encoder) Prepare(endID CommandID) BakedCommands {
	count := len(e.cmds)
	e.cmds = append(e.cmds, encodedCommand{id: endID})
	baked := BakedCommands{cmds: e.cmds, Count: count}
	e.cmds = nil
	return baked
}

// ErrTruncatedCommand is returned by ReplayTransferComputeGraphics and
// ReplayDraw for a record whose command ID they do not handle, standing
// in for the C++ "size-driven cursor overrun" failure mode. A payload of
// the wrong type for a known ID is not checked; its type assertion panics.
var ErrTruncatedCommand = fmt.Errorf("%w: command payload type mismatch", ErrContractViolation)
