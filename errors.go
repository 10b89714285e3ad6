// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "errors"

// Sentinel errors surfaced by the core. Callers should use errors.Is to
// test for these rather than comparing error strings, since most call
// sites wrap the sentinel with call-specific context via fmt.Errorf.
var (
	// ErrCapacityExhausted is returned when a fixed-capacity pool has no
	// room left: the orchestrator's batch pool, or a CommandBatch's slots.
	// CommandBatch.Acquire reports the same condition as ok=false; nothing
	// logs it.
	ErrCapacityExhausted = errors.New("rendergraph: capacity exhausted")

	// ErrDriverCall means a Device method returned a non-success result.
	// The owning batch is escalated to a submission failure.
	ErrDriverCall = errors.New("rendergraph: driver call failed")

	// ErrResourceLookup means a ResourceManager lookup reported ok=false.
	// The recording call that triggered the lookup returns this error; the
	// failure is not logged.
	ErrResourceLookup = errors.New("rendergraph: resource lookup failed")

	// ErrContractViolation means the caller broke a recording-order
	// contract (recording to a submitted batch, nested begin/end, lock
	// ordering). Config.Debug does not change how it is reported.
	ErrContractViolation = errors.New("rendergraph: contract violation")

	// ErrUnsupported means the requested operation requires a feature
	// flag the Device does not advertise (mesh shading, dispatch-base) or
	// is the documented, unimplemented render-pass extension point
	// (GraphicsRecorder.BeginRenderPass).
	ErrUnsupported = errors.New("rendergraph: unsupported")
)
