// Copyright 2025 go-opticalflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kernels implements the per-pixel stages of the pyramidal
// Horn–Schunck optical flow pipeline.
//
// Every image kernel processes a half-open row range [y0, y1) of its output
// so a caller can split one launch across workers:
//
//	pool.ParallelFor(dst.Height(), func(y0, y1 int) {
//	    kernels.Warp(src, u, v, dst, y0, y1)
//	})
//
// Kernels never allocate their outputs and never read outside the logical
// width x height of their inputs: sample positions are clamped to the edge
// (replicated border). All images taking part in one call must share width,
// height and stride, except for Downscale and Upscale whose source and
// destination differ in size.
//
// # Stages
//
//	Downscale(src, dst)                      - 2x decimation with a box prefilter
//	Upscale(src, dst, scale)                 - bilinear prolongation, values * scale
//	Warp(src, u, v, dst)                     - dst(x,y) = src(x+u, y+v)
//	Derivatives(i0, warped, ix, iy, it)      - brightness constancy terms
//	SolveForUpdate(du0, dv0, ix, iy, it, a)  - one Jacobi sweep
//	Add(a, b, dst)                           - elementwise sum over flat slices
//
// Elementwise arithmetic uses go-highway vectors with a scalar tail.
package kernels
