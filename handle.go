// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Handle is an opaque, generational reference to an externally-owned
// resource (buffer, image, pipeline, descriptor set, framebuffer, render
// pass). The core never dereferences a Handle itself; it reads resource
// descriptions through a ResourceManager. A zero Handle is never valid.
type Handle struct {
	index int32
	gen   uint32
}

// NewHandle packs an index and generation into a Handle. Resource
// managers external to this package are expected to construct handles
// this way when they hand resources to the render graph.
func NewHandle(index int32, gen uint32) Handle { return Handle{index, gen} }

// Index returns the packed index component.
func (h Handle) Index() int32 { return h.index }

// Generation returns the packed generation component.
func (h Handle) Generation() uint32 { return h.gen }

// IsValid reports whether h could plausibly identify a resource. It does
// not consult a ResourceManager, so a valid-looking Handle may still fail
// lookup (see ErrResourceLookup).
func (h Handle) IsValid() bool { return h.index >= 0 }

// BufferHandle identifies a GPU buffer.
type BufferHandle struct{ Handle }

// ImageHandle identifies a GPU image.
type ImageHandle struct{ Handle }

// PipelineHandle identifies a compiled pipeline.
type PipelineHandle struct{ Handle }

// DescSetHandle identifies a descriptor set.
type DescSetHandle struct{ Handle }

// FramebufHandle identifies a framebuffer.
type FramebufHandle struct{ Handle }

// RenderPassHandle identifies a render pass.
type RenderPassHandle struct{ Handle }
