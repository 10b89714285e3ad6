// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package rendergraph

// Graphics-tier command payloads, appended after the compute prefix per
// spec.md §4.4.

type cmdBlitImage struct {
	Src, Dst NativeHandle
	Linear   bool
}

func (e *Encoder) BlitImage(src, dst NativeHandle, linear bool) {
	e.push(CmdBlitImage, cmdBlitImage{Src: src, Dst: dst, Linear: linear})
}

type cmdResolveImage struct {
	Src, Dst NativeHandle
	Size     Dim3D
}

func (e *Encoder) ResolveImage(src, dst NativeHandle, size Dim3D) {
	e.push(CmdResolveImage, cmdResolveImage{Src: src, Dst: dst, Size: size})
}
