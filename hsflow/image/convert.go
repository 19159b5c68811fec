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

import (
	goimage "image"
	"image/color"
)

// FromGoImage converts any Go image to a float32 gray plane with values in
// [0, 1]. Colour images are reduced with the standard luma weights of
// color.Gray16Model.
func FromGoImage(src goimage.Image) *Image[float32] {
	bounds := src.Bounds()
	img := NewImage[float32](bounds.Dx(), bounds.Dy())
	if img.data == nil {
		return img
	}

	for y := 0; y < img.height; y++ {
		row := img.RowSlice(y)
		for x := range row {
			c := color.Gray16Model.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			row[x] = float32(c.Y) / 0xffff
		}
	}
	return img
}
