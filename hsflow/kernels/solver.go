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

// SolveForUpdate performs one Jacobi relaxation sweep over rows [y0, y1) of
// the Horn–Schunck system for the flow increment (du, dv):
//
//	ū, v̄  = mean of the 4-neighbourhood of du0, dv0 (edges replicated)
//	frac  = (Ix·ū + Iy·v̄ + It) / (Ix² + Iy² + alpha)
//	du1   = ū - Ix·frac
//	dv1   = v̄ - Iy·frac
//
// Only du0 and dv0 are read, so du1 and dv1 must be distinct buffers; the
// caller swaps the pair between sweeps. alpha must be positive.
func SolveForUpdate[T hwy.Floats](du0, dv0, ix, iy, it *image.Image[T], alpha T, du1, dv1 *image.Image[T], y0, y1 int) {
	if du0 == nil || dv0 == nil || ix == nil || iy == nil || it == nil || du1 == nil || dv1 == nil {
		return
	}
	width, height := du0.Width(), du0.Height()
	lanes := hwy.MaxLanes[T]()
	quarter := hwy.Set(T(0.25))
	alphaVec := hwy.Set(alpha)

	y0, y1 = rowRange(y0, y1, height)
	for y := y0; y < y1; y++ {
		s := relaxRows[T]{
			u:     du0.RowSlice(y),
			v:     dv0.RowSlice(y),
			uUp:   du0.RowSlice(image.Clamp(y-1, height)),
			vUp:   dv0.RowSlice(image.Clamp(y-1, height)),
			uDown: du0.RowSlice(image.Clamp(y+1, height)),
			vDown: dv0.RowSlice(image.Clamp(y+1, height)),
			ix:    ix.RowSlice(y),
			iy:    iy.RowSlice(y),
			it:    it.RowSlice(y),
			alpha: alpha,
		}
		outU := du1.RowSlice(y)
		outV := dv1.RowSlice(y)

		x := 0
		if width > 0 {
			outU[0], outV[0] = s.relax(0)
			x = 1
		}
		for ; x+1+lanes <= width; x += lanes {
			sumU := hwy.Add(hwy.Add(hwy.Load(s.u[x-1:]), hwy.Load(s.u[x+1:])),
				hwy.Add(hwy.Load(s.uUp[x:]), hwy.Load(s.uDown[x:])))
			sumV := hwy.Add(hwy.Add(hwy.Load(s.v[x-1:]), hwy.Load(s.v[x+1:])),
				hwy.Add(hwy.Load(s.vUp[x:]), hwy.Load(s.vDown[x:])))
			sumU = hwy.Mul(sumU, quarter)
			sumV = hwy.Mul(sumV, quarter)

			gx := hwy.Load(s.ix[x:])
			gy := hwy.Load(s.iy[x:])
			num := hwy.FMA(gx, sumU, hwy.FMA(gy, sumV, hwy.Load(s.it[x:])))
			den := hwy.FMA(gx, gx, hwy.FMA(gy, gy, alphaVec))
			frac := hwy.Div(num, den)

			hwy.Store(hwy.Sub(sumU, hwy.Mul(gx, frac)), outU[x:])
			hwy.Store(hwy.Sub(sumV, hwy.Mul(gy, frac)), outV[x:])
		}
		for ; x < width; x++ {
			outU[x], outV[x] = s.relax(x)
		}
	}
}

// relaxRows holds the rows one output row of a Jacobi sweep reads.
type relaxRows[T hwy.Floats] struct {
	u, v         []T
	uUp, vUp     []T
	uDown, vDown []T
	ix, iy, it   []T
	alpha        T
}

// relax is the scalar update for column x.
func (s *relaxRows[T]) relax(x int) (T, T) {
	n := len(s.u)
	l, r := image.Clamp(x-1, n), image.Clamp(x+1, n)
	sumU := (s.u[l] + s.u[r] + s.uUp[x] + s.uDown[x]) * 0.25
	sumV := (s.v[l] + s.v[r] + s.vUp[x] + s.vDown[x]) * 0.25

	gx, gy := s.ix[x], s.iy[x]
	frac := (gx*sumU + gy*sumV + s.it[x]) / (gx*gx + gy*gy + s.alpha)
	return sumU - gx*frac, sumV - gy*frac
}
