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

// Package image provides the strided float planes that the optical flow
// pipeline stores frames, flow components and derivatives in.
//
// An Image has a logical width and height and a row stride in elements.
// Images created with NewImage get a stride rounded up to the SIMD vector
// width reported by go-highway, which is the alignment rule used for every
// pyramid level below the caller's input. Elements between width and stride
// are padding: they can be read and written safely but carry no pixel data.
//
// # Views
//
// FromSlice wraps an existing slice without copying. The device layer uses it
// to hand buffer contents to the kernels:
//
//	img, err := image.FromSlice(buf, width, height, stride)
//	for y := 0; y < img.Height(); y++ {
//	    row := img.RowSlice(y)
//	    // ...
//	}
//
// # Edge Handling
//
// All sampling in this module replicates edge pixels:
//
//	Clamp(index, size)      - repeat edge pixels
//	img.Bilinear(x, y)      - bilinear interpolation with clamped taps
package image
