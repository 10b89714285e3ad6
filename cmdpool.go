// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// cmdPoolCell owns one native command pool and the batch of command
// buffers allocated from it, lazily created on first lease (spec.md
// §4.3's per-frame × per-queue × per-pool grid cell).
type cmdPoolCell struct {
	mu      sync.Mutex
	pool    NativeHandle
	created bool
	bufs    []NativeHandle
	next    int32 // atomic index of the next free buffer in bufs
}

// CmdPoolManager owns a MaxFrames × QueueCount × MaxPoolsPerQueue grid of
// command pools and leases command buffers out of it, grounded on
// `vgpu/device.go`'s queue/pool ownership and generalized to spec.md
// §4.3's cooperative multi-pool-per-queue scheme so that concurrent
// recorders on the same queue never contend on a single pool's lock.
type CmdPoolManager struct {
	dev Device
	cfg Config
	log Logger

	cells [][]*cmdPoolCell // cells[frame*QueueCount+queue][poolIndex]
	round uint64           // atomic cursor picking the fall-through pool index to claim/create

	// createSem bounds the number of command pools under construction at
	// once, since pool creation is a comparatively expensive driver call
	// and an unbounded burst of first-use leases (e.g. at frame 0 across
	// every queue) would otherwise all race to create simultaneously.
	createSem *semaphore.Weighted
}

// NewCmdPoolManager builds the grid described by cfg but defers actual
// pool/command-buffer creation to first lease.
func NewCmdPoolManager(dev Device, cfg Config) *CmdPoolManager {
	m := &CmdPoolManager{
		dev:       dev,
		cfg:       cfg,
		log:       newComponentLogger("cmdpool"),
		createSem: semaphore.NewWeighted(4),
	}
	m.cells = make([][]*cmdPoolCell, cfg.MaxFrames*cfg.QueueCount)
	for i := range m.cells {
		row := make([]*cmdPoolCell, cfg.MaxPoolsPerQueue)
		for j := range row {
			row[j] = &cmdPoolCell{}
		}
		m.cells[i] = row
	}
	return m
}

func (m *CmdPoolManager) row(frame int, qt QueueType) []*cmdPoolCell {
	return m.cells[frame*m.cfg.QueueCount+int(qt)]
}

// CmdLease is a leased command buffer plus enough context to begin
// recording into it; it carries no Release method because command
// buffers are reclaimed in bulk by NextFrame's pool reset, not
// individually (spec.md §4.3: "pools, not buffers, are the unit of
// reclamation").
type CmdLease struct {
	CmdBuf NativeHandle
	Pool   NativeHandle
}

// GetCommandBuffer leases a primary command buffer for frame/qt,
// creating the backing pool and/or growing its buffer batch as needed.
// It is the two-pass contract of spec.md §4.3: callers first race
// through the row's already-created pools via try_lock (skipping any
// that are busy or not yet initialised), scan a second time in case a
// racing caller published a new pool in the meantime, and only then
// fall through to claiming the next pool index round-robin under an
// exclusive lock, creating its pool if it does not exist yet.
// Concurrent callers landing on different pools never block each
// other; only callers racing for the same pool, or the same freshly
// claimed index, serialise.
func (m *CmdPoolManager) GetCommandBuffer(ctx context.Context, frame int, qt QueueType) (CmdLease, error) {
	row := m.row(frame, qt)

	if lease, err, ok := m.scanRow(row); ok {
		return lease, err
	}
	if lease, err, ok := m.scanRow(row); ok {
		return lease, err
	}

	idx := atomic.AddUint64(&m.round, 1) % uint64(len(row))
	cell := row[idx]

	cell.mu.Lock()
	defer cell.mu.Unlock()

	if !cell.created {
		if err := m.createSem.Acquire(ctx, 1); err != nil {
			return CmdLease{}, fmt.Errorf("%w: acquire pool-create slot: %v", ErrDriverCall, err)
		}
		pool, err := m.dev.CreateCommandPool(qt)
		m.createSem.Release(1)
		if err != nil {
			return CmdLease{}, fmt.Errorf("%w: CreateCommandPool(%s): %v", ErrDriverCall, qt, err)
		}
		cell.pool = pool
		cell.created = true
	}
	return m.leaseLocked(cell)
}

// scanRow try_locks every cell of row in turn, skipping ones that are
// busy (held by a concurrent lease) or not yet created (null handle),
// and leases from the first one that is both free and initialised. ok
// is false when the scan found nothing to lease from, in which case
// the caller should fall through to claiming a new pool.
func (m *CmdPoolManager) scanRow(row []*cmdPoolCell) (lease CmdLease, err error, ok bool) {
	for _, cell := range row {
		if !cell.mu.TryLock() {
			continue
		}
		if !cell.created {
			cell.mu.Unlock()
			continue
		}
		lease, err = m.leaseLocked(cell)
		cell.mu.Unlock()
		return lease, err, true
	}
	return CmdLease{}, nil, false
}

// leaseLocked allocates (growing the pool first if it is exhausted)
// and returns the next command buffer from cell, which the caller must
// already hold locked.
func (m *CmdPoolManager) leaseLocked(cell *cmdPoolCell) (CmdLease, error) {
	if int(atomic.LoadInt32(&cell.next)) >= len(cell.bufs) {
		if err := m.growCellLocked(cell); err != nil {
			return CmdLease{}, err
		}
	}
	n := atomic.AddInt32(&cell.next, 1) - 1
	return CmdLease{CmdBuf: cell.bufs[n], Pool: cell.pool}, nil
}

func (m *CmdPoolManager) growCellLocked(cell *cmdPoolCell) error {
	for i := 0; i < m.cfg.CmdBufPerPool; i++ {
		cb, err := m.dev.AllocateCommandBuffer(cell.pool, false)
		if err != nil {
			return fmt.Errorf("%w: AllocateCommandBuffer: %v", ErrDriverCall, err)
		}
		cell.bufs = append(cell.bufs, cb)
	}
	return nil
}

// NextFrame resets every pool that belongs to frame, reclaiming every
// command buffer leased from it in a single driver call and rewinding
// the cell's lease cursor, so the frame's cells are ready for reuse
// MaxFrames frames later.
func (m *CmdPoolManager) NextFrame(frame int) error {
	for qt := QueueType(0); int(qt) < m.cfg.QueueCount; qt++ {
		for _, cell := range m.row(frame, qt) {
			cell.mu.Lock()
			if cell.created {
				if err := m.dev.ResetCommandPool(cell.pool, false); err != nil {
					cell.mu.Unlock()
					return fmt.Errorf("%w: ResetCommandPool: %v", ErrDriverCall, err)
				}
				atomic.StoreInt32(&cell.next, 0)
			}
			cell.mu.Unlock()
		}
	}
	return nil
}

// ReleaseResources destroys every command pool owned by the manager,
// called once during orchestrator shutdown.
func (m *CmdPoolManager) ReleaseResources() {
	for _, row := range m.cells {
		for _, cell := range row {
			cell.mu.Lock()
			if cell.created {
				m.dev.DestroyCommandPool(cell.pool)
				cell.created = false
				cell.bufs = nil
			}
			cell.mu.Unlock()
		}
	}
}
