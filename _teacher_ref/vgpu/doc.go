// Copyright (c) 2022, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package vgpu implements a convenient interface to the Vulkan GPU-based
graphics and compute framework, in Go, using the
https://github.com/goki/vulkan Go bindings.

The Cogent Core GUI framework runs on top if this, replacing the previous
OpenGL-based framework, and the compute engine is used for the
emergent neural network simulation framework.
*/
package vgpu
