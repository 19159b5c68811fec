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

package image

import "math"

// Bilinear samples the image at the continuous position (x, y), where
// integer coordinates are pixel centres. Positions outside the image take
// the value of the nearest edge, so any finite coordinate is safe.
func (img *Image[T]) Bilinear(x, y T) T {
	if img.data == nil {
		var zero T
		return zero
	}
	x = clampCoord(x, img.width)
	y = clampCoord(y, img.height)

	x0 := int(x)
	y0 := int(y)
	x1 := min(x0+1, img.width-1)
	y1 := min(y0+1, img.height-1)
	fx := x - T(x0)
	fy := y - T(y0)

	r0 := img.data[y0*img.stride:]
	r1 := img.data[y1*img.stride:]
	top := r0[x0] + fx*(r0[x1]-r0[x0])
	bottom := r1[x0] + fx*(r1[x1]-r1[x0])
	return top + fy*(bottom-top)
}

// clampCoord limits a sample coordinate to [0, size-1]. NaN maps to 0.
func clampCoord[T ~float32 | ~float64](c T, size int) T {
	if math.IsNaN(float64(c)) || c <= 0 {
		return 0
	}
	if hi := T(size - 1); c >= hi {
		return hi
	}
	return c
}
