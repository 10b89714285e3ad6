// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import (
	"fmt"
	"sync"
)

// queueState is one queue's FIFO of batches currently Submitted (not yet
// Complete), plus the semaphore most recently signaled by a submission
// on this queue (spec.md §4.7: "a per-queue most-recent-signal
// semaphore"). The pending list is guarded by a single coarse mutex —
// spec.md §5 notes this as "a future optimisation" on the source side
// too, not a correctness compromise.
type queueState struct {
	mu         sync.Mutex
	pending    []*CommandBatch
	lastSignal NativeHandle
}

func (q *queueState) push(b *CommandBatch, signal NativeHandle) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, b)
	q.lastSignal = signal
}

// drainComplete removes and returns every batch at the front of the
// FIFO whose fence has signaled, stopping at the first still-pending
// one (batches within a queue retire in submission order).
func (q *queueState) drainComplete(dev Device) ([]*CommandBatch, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var done []*CommandBatch
	i := 0
	for ; i < len(q.pending); i++ {
		signaled, err := dev.FenceSignaled(q.pending[i].Fence())
		if err != nil {
			return done, fmt.Errorf("%w: FenceSignaled: %v", ErrDriverCall, err)
		}
		if !signaled {
			break
		}
		done = append(done, q.pending[i])
	}
	q.pending = q.pending[i:]
	return done, nil
}

// batchPool is the indexed pool of CommandBatch objects spec.md §4.7
// reuses across frames, keyed by queue since a batch is permanently
// bound to the queue it was constructed for. A mutex-guarded free list
// stands in for the original's lock-free indexed-pool-with-generation-
// counter: batch acquisition happens once per render-task group per
// frame, not per command, so there is no hot-path contention to avoid.
type batchPool struct {
	mu    sync.Mutex
	cfg   Config
	free  map[QueueType][]*CommandBatch
	total int
}

func newBatchPool(cfg Config) *batchPool {
	return &batchPool{cfg: cfg, free: make(map[QueueType][]*CommandBatch)}
}

// Acquire returns a CommandBatch bound to queue, reusing a Reset one
// from the free list when available, or constructing a fresh one until
// cfg.BatchPoolSize objects have been allocated in total.
func (p *batchPool) Acquire(queue QueueType) (*CommandBatch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if list := p.free[queue]; len(list) > 0 {
		b := list[len(list)-1]
		p.free[queue] = list[:len(list)-1]
		return b, nil
	}
	if p.total >= p.cfg.BatchPoolSize {
		return nil, ErrCapacityExhausted
	}
	p.total++
	return NewCommandBatch(queue, p.cfg), nil
}

// Release returns a Complete, Reset batch to the free list for its
// queue.
func (p *batchPool) Release(b *CommandBatch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free[b.Queue()] = append(p.free[b.Queue()], b)
}
