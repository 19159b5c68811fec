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

// rowRange limits [y0, y1) to [0, height).
func rowRange(y0, y1, height int) (int, int) {
	return max(y0, 0), min(y1, height)
}

// Downscale fills rows [y0, y1) of dst with a low-pass filtered, decimated
// copy of src. Each output pixel is the mean of four bilinear taps placed a
// quarter of an output pixel left, right, above and below its centre. For an
// exact 2:1 ratio this is the 2x2 box average of the covered source pixels;
// odd source sizes are handled by the fractional ratio.
func Downscale[T hwy.Floats](src, dst *image.Image[T], y0, y1 int) {
	if src == nil || dst == nil || src.Width() == 0 || dst.Width() == 0 {
		return
	}
	sx := T(src.Width()) / T(dst.Width())
	sy := T(src.Height()) / T(dst.Height())
	qx, qy := sx/4, sy/4

	y0, y1 = rowRange(y0, y1, dst.Height())
	for y := y0; y < y1; y++ {
		cy := (T(y)+0.5)*sy - 0.5
		row := dst.RowSlice(y)
		for x := range row {
			cx := (T(x)+0.5)*sx - 0.5
			sum := src.Bilinear(cx-qx, cy) + src.Bilinear(cx+qx, cy) +
				src.Bilinear(cx, cy-qy) + src.Bilinear(cx, cy+qy)
			row[x] = sum * 0.25
		}
	}
}

// Upscale fills rows [y0, y1) of dst by bilinear resampling of the coarser
// field src and multiplies every value by scale, converting displacements
// measured in source pixels into destination pixels.
func Upscale[T hwy.Floats](src, dst *image.Image[T], scale T, y0, y1 int) {
	if src == nil || dst == nil || src.Width() == 0 || dst.Width() == 0 {
		return
	}
	sx := T(src.Width()) / T(dst.Width())
	sy := T(src.Height()) / T(dst.Height())

	y0, y1 = rowRange(y0, y1, dst.Height())
	for y := y0; y < y1; y++ {
		cy := (T(y)+0.5)*sy - 0.5
		row := dst.RowSlice(y)
		for x := range row {
			cx := (T(x)+0.5)*sx - 0.5
			row[x] = scale * src.Bilinear(cx, cy)
		}
	}
}
