// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"fmt"
	"os"

	"github.com/jinzhu/copier"
	"github.com/pelletier/go-toml/v2"
)

// Config holds the tunables of a render-graph instance. It is immutable
// once passed to CreateInstance; obtain a modified copy via Clone.
type Config struct {
	// MaxFrames is the number of frame slots cycled round-robin. Each
	// slot owns its own command pools and is reset before reuse.
	MaxFrames int `toml:"max_frames"`

	// QueueCount is the number of distinct GPU queues the orchestrator
	// submits to (e.g. graphics, compute, transfer).
	QueueCount int `toml:"queue_count"`

	// MaxPoolsPerQueue bounds the command-pool manager's POOL_COUNT: the
	// number of distinct native command pools a queue may create in each
	// frame slot.
	MaxPoolsPerQueue int `toml:"max_pools_per_queue"`

	// CmdBufPerPool is CMD_COUNT: the number of command buffers a pool
	// cell allocates at a time. A cell whose buffers are all leased
	// allocates another CmdBufPerPool, so a pool's buffer count has no cap.
	CmdBufPerPool int `toml:"cmd_buf_per_pool"`

	// MaxCmdBufPerBatch bounds the cooperative command-buffer pool size
	// of a single CommandBatch.
	MaxCmdBufPerBatch int `toml:"max_cmd_buf_per_batch"`

	// MaxBatchDeps is the number of upstream batch dependencies a single
	// CommandBatch may record. CommandBatch does not read it: its
	// dependency list has the fixed capacity maxBatchDeps (8).
	MaxBatchDeps int `toml:"max_batch_deps"`

	// BatchPoolSize bounds the number of live CommandBatch objects the
	// orchestrator pre-allocates.
	BatchPoolSize int `toml:"batch_pool_size"`

	// EncoderBlockSize is the default bump-allocator block size used by
	// the indirect command encoder, in bytes.
	EncoderBlockSize int `toml:"encoder_block_size"`

	// DrawEncoderBlockSize is a block size for indirect draw recording,
	// whose records tend to be larger/more numerous. Nothing in this
	// package reads it: NewDrawContext records directly, and RunIndirect
	// takes its block size as an argument.
	DrawEncoderBlockSize int `toml:"draw_encoder_block_size"`

	// FenceWaitPollMicros is the polling interval, in microseconds,
	// EndFrame uses while blocking on a frame slot's fences.
	FenceWaitPollMicros int `toml:"fence_wait_poll_micros"`

	// Debug wraps the command buffers of each named batch, recorded by
	// RunDirect or replayed by CommitIndirectBuffers, in a debug-utils
	// label scope when the device reports FeatureSet.DebugUtils.
	Debug bool `toml:"debug"`
}

// DefaultConfig returns the configuration used when none is supplied,
// mirroring the magnitudes spec.md uses in its worked examples (double
// buffering, small fixed pool bounds).
func DefaultConfig() Config {
	return Config{
		MaxFrames:            2,
		QueueCount:           3, // graphics, compute, transfer
		MaxPoolsPerQueue:     8,
		CmdBufPerPool:        16,
		MaxCmdBufPerBatch:    32,
		MaxBatchDeps:         8,
		BatchPoolSize:        64,
		EncoderBlockSize:     4096,
		DrawEncoderBlockSize: 16384,
		FenceWaitPollMicros:  1,
		Debug:                false,
	}
}

// Clone returns a deep copy of c. It uses copier.Copy rather than a
// literal struct copy so that adding a reference-typed field later
// (slices, maps) does not silently alias the original's backing storage.
func (c Config) Clone() Config {
	var out Config
	if err := copier.Copy(&out, &c); err != nil {
		// Config has no reference fields today, so copier cannot fail
		// in practice; fall back to a shallow copy rather than panic.
		return c
	}
	return out
}

// LoadConfig reads a TOML configuration file, applying it on top of
// DefaultConfig so omitted fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rendergraph: load config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("rendergraph: parse config: %w", err)
	}
	return cfg, nil
}

// Save writes c to path as TOML.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("rendergraph: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("rendergraph: save config: %w", err)
	}
	return nil
}

// validate checks that c's bounds are usable, returning a
// ErrContractViolation-wrapped error describing the first problem found.
func (c Config) validate() error {
	switch {
	case c.MaxFrames <= 0:
		return fmt.Errorf("%w: MaxFrames must be > 0", ErrContractViolation)
	case c.QueueCount <= 0:
		return fmt.Errorf("%w: QueueCount must be > 0", ErrContractViolation)
	case c.MaxPoolsPerQueue <= 0:
		return fmt.Errorf("%w: MaxPoolsPerQueue must be > 0", ErrContractViolation)
	case c.CmdBufPerPool <= 0:
		return fmt.Errorf("%w: CmdBufPerPool must be > 0", ErrContractViolation)
	case c.MaxCmdBufPerBatch <= 0:
		return fmt.Errorf("%w: MaxCmdBufPerBatch must be > 0", ErrContractViolation)
	case c.BatchPoolSize <= 0:
		return fmt.Errorf("%w: BatchPoolSize must be > 0", ErrContractViolation)
	case c.EncoderBlockSize <= 0:
		return fmt.Errorf("%w: EncoderBlockSize must be > 0", ErrContractViolation)
	}
	return nil
}
