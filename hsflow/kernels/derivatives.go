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

// Derivatives computes the brightness constancy terms for rows [y0, y1):
//
//	Ix, Iy = five-point derivative (1, -8, 0, 8, -1)/12 of (I0 + W)/2
//	It     = W - I0
//
// where W is the target frame warped by the current flow estimate. Taps past
// the image border repeat the edge row or column.
func Derivatives[T hwy.Floats](i0, warped, ix, iy, it *image.Image[T], y0, y1 int) {
	if i0 == nil || warped == nil || ix == nil || iy == nil || it == nil {
		return
	}
	width, height := i0.Width(), i0.Height()
	if width == 0 {
		return
	}

	lanes := hwy.MaxLanes[T]()
	avg := make([]T, width)
	half := hwy.Set(T(0.5))
	eight := hwy.Set(T(8))
	inv12 := hwy.Set(T(1.0 / 12))
	inv24 := hwy.Set(T(1.0 / 24))

	y0, y1 = rowRange(y0, y1, height)
	for y := y0; y < y1; y++ {
		src := i0.RowSlice(y)
		dst := warped.RowSlice(y)
		itRow := it.RowSlice(y)

		x := 0
		for ; x+lanes <= width; x += lanes {
			a := hwy.Load(src[x:])
			b := hwy.Load(dst[x:])
			hwy.Store(hwy.Sub(b, a), itRow[x:])
			hwy.Store(hwy.Mul(hwy.Add(a, b), half), avg[x:])
		}
		for ; x < width; x++ {
			itRow[x] = dst[x] - src[x]
			avg[x] = (src[x] + dst[x]) * 0.5
		}

		// Horizontal derivative of the averaged row.
		ixRow := ix.RowSlice(y)
		x = 0
		for ; x < min(2, width); x++ {
			ixRow[x] = stencil(avg, x) / 12
		}
		for ; x+2+lanes <= width; x += lanes {
			m2 := hwy.Load(avg[x-2:])
			m1 := hwy.Load(avg[x-1:])
			p1 := hwy.Load(avg[x+1:])
			p2 := hwy.Load(avg[x+2:])
			d := hwy.FMA(eight, hwy.Sub(p1, m1), hwy.Sub(m2, p2))
			hwy.Store(hwy.Mul(d, inv12), ixRow[x:])
		}
		for ; x < width; x++ {
			ixRow[x] = stencil(avg, x) / 12
		}

		// Vertical derivative over the sums of both frames, hence 1/24.
		a2, b2 := i0.RowSlice(image.Clamp(y-2, height)), warped.RowSlice(image.Clamp(y-2, height))
		a1, b1 := i0.RowSlice(image.Clamp(y-1, height)), warped.RowSlice(image.Clamp(y-1, height))
		c1, d1 := i0.RowSlice(image.Clamp(y+1, height)), warped.RowSlice(image.Clamp(y+1, height))
		c2, d2 := i0.RowSlice(image.Clamp(y+2, height)), warped.RowSlice(image.Clamp(y+2, height))
		iyRow := iy.RowSlice(y)
		x = 0
		for ; x+lanes <= width; x += lanes {
			m2 := hwy.Add(hwy.Load(a2[x:]), hwy.Load(b2[x:]))
			m1 := hwy.Add(hwy.Load(a1[x:]), hwy.Load(b1[x:]))
			p1 := hwy.Add(hwy.Load(c1[x:]), hwy.Load(d1[x:]))
			p2 := hwy.Add(hwy.Load(c2[x:]), hwy.Load(d2[x:]))
			d := hwy.FMA(eight, hwy.Sub(p1, m1), hwy.Sub(m2, p2))
			hwy.Store(hwy.Mul(d, inv24), iyRow[x:])
		}
		for ; x < width; x++ {
			m2 := a2[x] + b2[x]
			m1 := a1[x] + b1[x]
			p1 := c1[x] + d1[x]
			p2 := c2[x] + d2[x]
			iyRow[x] = (m2 - 8*m1 + 8*p1 - p2) / 24
		}
	}
}

// stencil evaluates f(x-2) - 8f(x-1) + 8f(x+1) - f(x+2) with clamped taps.
func stencil[T hwy.Floats](f []T, x int) T {
	n := len(f)
	return f[image.Clamp(x-2, n)] - 8*f[image.Clamp(x-1, n)] +
		8*f[image.Clamp(x+1, n)] - f[image.Clamp(x+2, n)]
}
