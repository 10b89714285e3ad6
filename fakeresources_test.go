// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

import "context"

// fakeResourceManager is a static, test-only ResourceManager: buffers
// and images are pre-registered by handle, and descriptor-set bindings
// are whatever the test wired in.
type fakeResourceManager struct {
	buffers  map[BufferHandle]BufferDesc
	images   map[ImageHandle]ImageDesc
	descSets map[DescSetHandle][]DescBinding
	staging  StagingManager
}

func newFakeResourceManager() *fakeResourceManager {
	return &fakeResourceManager{
		buffers:  make(map[BufferHandle]BufferDesc),
		images:   make(map[ImageHandle]ImageDesc),
		descSets: make(map[DescSetHandle][]DescBinding),
		staging:  &fakeStagingManager{},
	}
}

func (f *fakeResourceManager) BufferDesc(h BufferHandle) (BufferDesc, bool) {
	d, ok := f.buffers[h]
	return d, ok
}

func (f *fakeResourceManager) ImageDesc(h ImageHandle) (ImageDesc, bool) {
	d, ok := f.images[h]
	return d, ok
}

func (f *fakeResourceManager) DescSetBindings(h DescSetHandle) ([]DescBinding, bool) {
	b, ok := f.descSets[h]
	return b, ok
}

func (f *fakeResourceManager) Staging() StagingManager { return f.staging }

type fakeStagingManager struct{}

func (f *fakeStagingManager) GetStagingBuffer(size, align int64, frame int, qt QueueType, write bool) (StagingAllocation, error) {
	return StagingAllocation{Buffer: 9000, Offset: 0, Mapped: make([]byte, size)}, nil
}

func (f *fakeStagingManager) NextFrame(frame int) error { return nil }

// fakeScheduler runs posted work synchronously, enough for tests that
// just want the completion callback to fire.
type fakeScheduler struct{ next TaskHandle }

func (f *fakeScheduler) Post(ctx context.Context, fn func(context.Context) error, deps ...TaskHandle) TaskHandle {
	fn(ctx)
	f.next++
	return f.next
}

func (f *fakeScheduler) RegisterDependency(kind string, resolve func(TaskHandle) bool) {}

func newBufferHandle(index int32) BufferHandle { return BufferHandle{NewHandle(index, 1)} }
func newImageHandle(index int32) ImageHandle   { return ImageHandle{NewHandle(index, 1)} }
