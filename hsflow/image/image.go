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
	"errors"

	"github.com/ajroetker/go-highway/hwy"
)

// ErrShortBuffer is returned by FromSlice when the backing slice cannot hold
// height rows of stride elements.
var ErrShortBuffer = errors.New("image: buffer shorter than stride*height")

// ErrBadGeometry is returned by FromSlice for non-positive dimensions or a
// stride smaller than the width.
var ErrBadGeometry = errors.New("image: invalid width, height or stride")

// Image is a single-channel 2D array of floats with padded rows.
type Image[T hwy.Floats] struct {
	data   []T
	width  int
	height int
	stride int // elements per row (includes padding)
}

// AlignStride rounds width up to a multiple of the SIMD vector width for T.
func AlignStride[T hwy.Floats](width int) int {
	if width <= 0 {
		return 0
	}
	lanes := hwy.MaxLanes[T]()
	if lanes <= 0 {
		return width
	}
	return ((width + lanes - 1) / lanes) * lanes
}

// NewImage creates a zeroed image with an aligned stride.
func NewImage[T hwy.Floats](width, height int) *Image[T] {
	if width <= 0 || height <= 0 {
		return &Image[T]{}
	}
	stride := AlignStride[T](width)
	return &Image[T]{
		data:   make([]T, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}
}

// NewImageStride creates a zeroed image with an explicit stride.
// A stride smaller than width is raised to width.
func NewImageStride[T hwy.Floats](width, height, stride int) *Image[T] {
	if width <= 0 || height <= 0 {
		return &Image[T]{}
	}
	stride = max(stride, width)
	return &Image[T]{
		data:   make([]T, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}
}

// FromSlice wraps data as a width x height image with the given stride.
// The image shares memory with data.
func FromSlice[T hwy.Floats](data []T, width, height, stride int) (*Image[T], error) {
	if width <= 0 || height <= 0 || stride < width {
		return nil, ErrBadGeometry
	}
	if len(data) < stride*height {
		return nil, ErrShortBuffer
	}
	return &Image[T]{
		data:   data[:stride*height],
		width:  width,
		height: height,
		stride: stride,
	}, nil
}

// Width returns the image width in pixels.
func (img *Image[T]) Width() int {
	return img.width
}

// Height returns the image height in pixels.
func (img *Image[T]) Height() int {
	return img.height
}

// Stride returns the number of elements per row (including padding).
func (img *Image[T]) Stride() int {
	return img.stride
}

// Data returns the backing slice, stride*height elements long.
func (img *Image[T]) Data() []T {
	return img.data
}

// Row returns a mutable slice for the specified row, padding included.
func (img *Image[T]) Row(y int) []T {
	if y < 0 || y >= img.height || img.data == nil {
		return nil
	}
	start := y * img.stride
	return img.data[start : start+img.stride]
}

// RowSlice returns a mutable slice for the specified row,
// limited to the actual image width (excluding padding).
func (img *Image[T]) RowSlice(y int) []T {
	if y < 0 || y >= img.height || img.data == nil {
		return nil
	}
	start := y * img.stride
	return img.data[start : start+img.width]
}

// At returns the value at position (x, y), or zero outside the image.
func (img *Image[T]) At(x, y int) T {
	if x < 0 || x >= img.width || y < 0 || y >= img.height || img.data == nil {
		var zero T
		return zero
	}
	return img.data[y*img.stride+x]
}

// AtClamped returns the value at the nearest in-bounds position to (x, y).
func (img *Image[T]) AtClamped(x, y int) T {
	if img.data == nil {
		var zero T
		return zero
	}
	return img.data[Clamp(y, img.height)*img.stride+Clamp(x, img.width)]
}

// Set sets the value at position (x, y).
func (img *Image[T]) Set(x, y int, value T) {
	if x < 0 || x >= img.width || y < 0 || y >= img.height || img.data == nil {
		return
	}
	img.data[y*img.stride+x] = value
}

// SameShape reports whether both images have the same width, height and stride.
func SameShape[T, U hwy.Floats](a *Image[T], b *Image[U]) bool {
	return a.width == b.width && a.height == b.height && a.stride == b.stride
}

// Clone creates a deep copy of the image.
func (img *Image[T]) Clone() *Image[T] {
	clone := &Image[T]{
		width:  img.width,
		height: img.height,
		stride: img.stride,
	}
	if img.data != nil {
		clone.data = make([]T, len(img.data))
		copy(clone.data, img.data)
	}
	return clone
}

// Clear sets all elements, padding included, to zero.
func (img *Image[T]) Clear() {
	clear(img.data)
}

// Fill sets all pixels to the specified value. Padding is left untouched.
func (img *Image[T]) Fill(value T) {
	for y := 0; y < img.height; y++ {
		row := img.RowSlice(y)
		for i := range row {
			row[i] = value
		}
	}
}

// Clamp returns index clamped to [0, size-1].
func Clamp(index, size int) int {
	if index < 0 {
		return 0
	}
	if index >= size {
		return size - 1
	}
	return index
}
