// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rendergraph implements the render-graph execution core of a
// Vulkan-based graphics engine: it converts a frame's worth of recorded
// passes into a correctly ordered, correctly synchronized stream of
// command buffers submitted to GPU queues.
//
// The package does not create GPU resources, compile pipelines, or talk
// to a window system; it consumes those as external collaborators (see
// Device, ResourceManager, StagingManager, Scheduler) and concerns itself
// with four coupled pieces: automatic barrier derivation, the command
// batch lifecycle, indirect (deferred) command encoding, and the frame
// orchestrator that drives BeginFrame/EndFrame and multi-queue
// submission.
package rendergraph
