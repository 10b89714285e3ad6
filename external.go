// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "context"

// ResourceManager resolves generational Handles to resource
// descriptions. It is owned and implemented externally (spec.md §6); the
// core only reads through it, never creates or destroys resources.
type ResourceManager interface {
	// BufferDesc returns the description of the buffer identified by h,
	// or ok=false if the handle does not resolve (stale generation or
	// out-of-range index).
	BufferDesc(h BufferHandle) (BufferDesc, bool)

	// ImageDesc returns the description of the image identified by h.
	ImageDesc(h ImageHandle) (ImageDesc, bool)

	// DescSetBindings returns the resource bindings declared by a
	// descriptor set, so a ComputeRecorder/DrawRecorder can add their
	// pending states automatically on bind.
	DescSetBindings(h DescSetHandle) ([]DescBinding, bool)

	// Staging returns the staging buffer manager associated with this
	// resource manager.
	Staging() StagingManager
}

// BufferDesc is the subset of a buffer's creation-time description the
// core needs: its native handle and size.
type BufferDesc struct {
	Native NativeHandle
	Size   int64
}

// ImageDesc is the subset of an image's creation-time description the
// core needs for barrier derivation and subresource indexing.
type ImageDesc struct {
	Native       NativeHandle
	DefaultLayout ImageLayout
	AspectColor  bool
	MipLevels    int
	ArrayLayers  int
}

// SubresourceIndex returns the linear mip*arrayLayers+layer index used
// to key ranged image tracking (spec.md §4.1's "Image sub-range keying").
func (d ImageDesc) SubresourceIndex(mip, layer int) int {
	return mip*d.ArrayLayers + layer
}

// DescBindingKind distinguishes the resource kind of a descriptor
// binding, for purposes of adding the right pending state.
type DescBindingKind int

// Descriptor binding kinds.
const (
	DescBindingBuffer DescBindingKind = iota
	DescBindingUniformBuffer
	DescBindingImage
	DescBindingSampledImage
)

// DescBinding describes one resource referenced by a descriptor set, as
// returned by ResourceManager.DescSetBindings.
type DescBinding struct {
	Kind   DescBindingKind
	Buffer BufferHandle
	Image  ImageHandle
	// Stages is the shader-stage mask that may access this binding.
	Stages PipelineStage
	// Write reports whether the binding permits shader writes (storage
	// buffers/images bound for read-write access).
	Write bool
}

// StagingManager leases host-visible staging memory for upload/readback,
// bound to the frame it was leased in (spec.md §6).
type StagingManager interface {
	// GetStagingBuffer leases size bytes of staging memory aligned to
	// align, for use by queue qt in frame, optionally for writing
	// (write=true means the caller will write host data that the GPU
	// reads; write=false means the GPU writes and the host reads back).
	GetStagingBuffer(size int64, align int64, frame int, qt QueueType, write bool) (StagingAllocation, error)

	// NextFrame reclaims every staging allocation leased for frame,
	// called by the orchestrator's BeginFrame task alongside the
	// command-pool manager's NextFrame (spec.md §4.7).
	NextFrame(frame int) error
}

// StagingAllocation is a leased staging range.
type StagingAllocation struct {
	Buffer  NativeHandle
	Offset  int64
	Mapped  []byte
}

// Scheduler is the generic task system the core posts work to: BeginFrame
// and EndFrame run as tasks on the dedicated renderer thread, and render
// tasks run as tasks on worker threads (spec.md §6). The core calls only
// Post; it registers no dependency kind through RegisterDependency.
type Scheduler interface {
	// Post schedules fn to run, respecting deps (tasks that must
	// complete first). It returns a handle usable as a dependency for
	// later Post calls.
	Post(ctx context.Context, fn func(context.Context) error, deps ...TaskHandle) TaskHandle

	// RegisterDependency installs a dependency-manager callback for the
	// named kind; when a task depends on a TaskHandle tagged with kind,
	// the scheduler asks resolve whether the dependency is satisfied
	// instead of waiting on task completion directly.
	RegisterDependency(kind string, resolve func(TaskHandle) bool)
}

// TaskHandle identifies a posted task.
type TaskHandle uint64

// Logger is the minimal structured-logging surface the core uses. The
// default implementation wraps log/slog (see newComponentLogger).
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
