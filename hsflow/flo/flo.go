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

// Package flo reads and writes dense flow fields in the Middlebury .flo
// format and provides the usual comparisons and a colour rendering.
//
// A .flo file is little endian: the float32 tag 202021.25 ("PIEH"), the
// int32 width and height, then width*height interleaved (u, v) float32
// pairs in row-major order. Components larger than UnknownThreshold mark a
// pixel whose flow is unknown.
package flo

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ajroetker/go-opticalflow/hsflow/image"
)

// Tag is the sanity value at the start of every .flo file.
const Tag float32 = 202021.25

// UnknownThreshold is the magnitude above which a component is unknown.
const UnknownThreshold = 1e9

// maxDim bounds the header dimensions accepted by Decode.
const maxDim = 1 << 15

var (
	// ErrBadTag indicates input that does not start with Tag.
	ErrBadTag = errors.New("flo: bad tag")
	// ErrBadSize indicates a header with non-positive or excessive dimensions.
	ErrBadSize = errors.New("flo: bad dimensions")
	// ErrSizeMismatch indicates fields of different dimensions.
	ErrSizeMismatch = errors.New("flo: size mismatch")
)

// Field is a dense flow field with tightly packed rows.
type Field struct {
	Width  int
	Height int
	U, V   []float32
}

// NewField allocates a zero field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		U:      make([]float32, width*height),
		V:      make([]float32, width*height),
	}
}

// FromStrided copies flow components stored with stride elements per row.
func FromStrided(width, height, stride int, u, v []float32) (*Field, error) {
	if width <= 0 || height <= 0 || stride < width {
		return nil, fmt.Errorf("%w: %dx%d stride %d", ErrBadSize, width, height, stride)
	}
	if need := (height-1)*stride + width; len(u) < need || len(v) < need {
		return nil, fmt.Errorf("%w: components hold %d and %d elements, need %d", ErrSizeMismatch, len(u), len(v), need)
	}
	f := NewField(width, height)
	for y := range height {
		copy(f.U[y*width:(y+1)*width], u[y*stride:])
		copy(f.V[y*width:(y+1)*width], v[y*stride:])
	}
	return f, nil
}

// FromImages copies two same-shaped component images.
func FromImages(u, v *image.Image[float32]) (*Field, error) {
	if u == nil || v == nil || !image.SameShape(u, v) {
		return nil, fmt.Errorf("%w: component images differ", ErrSizeMismatch)
	}
	return FromStrided(u.Width(), u.Height(), u.Stride(), u.Data(), v.Data())
}

// Known reports whether pixel i has a valid flow vector.
func (f *Field) Known(i int) bool {
	return known(f.U[i]) && known(f.V[i])
}

func known(c float32) bool {
	return !math.IsNaN(float64(c)) && math.Abs(float64(c)) <= UnknownThreshold
}

// Encode writes f to w.
func (f *Field) Encode(w io.Writer) error {
	if f.Width <= 0 || f.Height <= 0 || f.Width > maxDim || f.Height > maxDim {
		return fmt.Errorf("%w: %dx%d", ErrBadSize, f.Width, f.Height)
	}
	n := f.Width * f.Height
	if len(f.U) < n || len(f.V) < n {
		return fmt.Errorf("%w: components hold %d and %d elements, need %d", ErrSizeMismatch, len(f.U), len(f.V), n)
	}

	bw := bufio.NewWriter(w)
	header := []any{Tag, int32(f.Width), int32(f.Height)}
	for _, h := range header {
		if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
			return err
		}
	}
	var pair [8]byte
	for i := range n {
		binary.LittleEndian.PutUint32(pair[:4], math.Float32bits(f.U[i]))
		binary.LittleEndian.PutUint32(pair[4:], math.Float32bits(f.V[i]))
		if _, err := bw.Write(pair[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads one field from r.
func Decode(r io.Reader) (*Field, error) {
	br := bufio.NewReader(r)
	var header struct {
		Tag           float32
		Width, Height int32
	}
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("flo: read header: %w", err)
	}
	if header.Tag != Tag {
		return nil, fmt.Errorf("%w: %v", ErrBadTag, header.Tag)
	}
	if header.Width <= 0 || header.Height <= 0 || header.Width > maxDim || header.Height > maxDim {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadSize, header.Width, header.Height)
	}

	f := NewField(int(header.Width), int(header.Height))
	var pair [8]byte
	for i := range f.U {
		if _, err := io.ReadFull(br, pair[:]); err != nil {
			return nil, fmt.Errorf("flo: read pixel %d: %w", i, err)
		}
		f.U[i] = math.Float32frombits(binary.LittleEndian.Uint32(pair[:4]))
		f.V[i] = math.Float32frombits(binary.LittleEndian.Uint32(pair[4:]))
	}
	return f, nil
}

// WriteFile encodes f into the named file.
func WriteFile(name string, f *Field) (err error) {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	return f.Encode(file)
}

// ReadFile decodes the named file.
func ReadFile(name string) (*Field, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file)
}
