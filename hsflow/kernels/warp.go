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

package kernels

import (
	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-opticalflow/hsflow/image"
)

// Warp fills rows [y0, y1) of dst with src resampled along the flow (u, v):
// dst(x, y) = src(x + u(x, y), y + v(x, y)). Samples that land outside src
// take the nearest edge value; there is no fill value or occlusion mask.
func Warp[T hwy.Floats](src, u, v, dst *image.Image[T], y0, y1 int) {
	if src == nil || u == nil || v == nil || dst == nil {
		return
	}

	y0, y1 = rowRange(y0, y1, dst.Height())
	for y := y0; y < y1; y++ {
		uRow := u.RowSlice(y)
		vRow := v.RowSlice(y)
		out := dst.RowSlice(y)
		fy := T(y)
		for x := range out {
			out[x] = src.Bilinear(T(x)+uRow[x], fy+vRow[x])
		}
	}
}
