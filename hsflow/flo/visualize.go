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

package flo

import (
	goimage "image"
	"image/color"
	"math"
)

// Visualize renders f with direction as hue and magnitude as brightness.
// Magnitudes are normalised by maxMag; a non-positive maxMag uses the
// largest known magnitude in the field. Unknown pixels are black.
func Visualize(f *Field, maxMag float64) *goimage.RGBA {
	img := goimage.NewRGBA(goimage.Rect(0, 0, f.Width, f.Height))
	if maxMag <= 0 {
		for i := range f.U {
			if f.Known(i) {
				maxMag = max(maxMag, math.Hypot(float64(f.U[i]), float64(f.V[i])))
			}
		}
	}
	if maxMag == 0 {
		maxMag = 1
	}

	for y := range f.Height {
		for x := range f.Width {
			i := y*f.Width + x
			if !f.Known(i) {
				img.SetRGBA(x, y, color.RGBA{A: 0xff})
				continue
			}
			u, v := float64(f.U[i]), float64(f.V[i])
			hue := math.Atan2(-v, -u)/math.Pi*180 + 180
			val := min(math.Hypot(u, v)/maxMag, 1)
			img.SetRGBA(x, y, hsv(hue, 1, val))
		}
	}
	return img
}

// Magnitude renders the flow magnitude as a gray image, scaled so that
// maxMag maps to white. A non-positive maxMag uses the largest known
// magnitude. Unknown pixels are black.
func Magnitude(f *Field, maxMag float64) *goimage.Gray {
	img := goimage.NewGray(goimage.Rect(0, 0, f.Width, f.Height))
	if maxMag <= 0 {
		for i := range f.U {
			if f.Known(i) {
				maxMag = max(maxMag, math.Hypot(float64(f.U[i]), float64(f.V[i])))
			}
		}
	}
	if maxMag == 0 {
		return img
	}
	for i := range f.U {
		if !f.Known(i) {
			continue
		}
		m := min(math.Hypot(float64(f.U[i]), float64(f.V[i]))/maxMag, 1)
		y, x := i/f.Width, i%f.Width
		img.Pix[y*img.Stride+x] = uint8(math.Round(m * 255))
	}
	return img
}

// hsv converts hue in degrees and saturation, value in [0, 1].
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	c := v * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g = c, x
	case hp < 2:
		r, g = x, c
	case hp < 3:
		g, b = c, x
	case hp < 4:
		g, b = x, c
	case hp < 5:
		r, b = x, c
	default:
		r, b = c, x
	}
	m := v - c
	to8 := func(f float64) uint8 { return uint8(math.Round((f + m) * 255)) }
	return color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 0xff}
}
