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

package hsflow

import (
	"errors"
	"fmt"

	"github.com/ajroetker/go-opticalflow/hsflow/device"
	"github.com/ajroetker/go-opticalflow/hsflow/image"
)

// levelShapes returns the shape of every pyramid level, coarsest first. The
// last entry is the input geometry; each coarser level halves width and
// height and realigns the stride.
func levelShapes(p Params) []device.Shape {
	shapes := make([]device.Shape, p.Levels)
	top := p.Levels - 1
	shapes[top] = device.Shape{Width: p.Width, Height: p.Height, Stride: p.Stride}
	for k := top; k > 0; k-- {
		w := shapes[k].Width / 2
		shapes[k-1] = device.Shape{
			Width:  w,
			Height: shapes[k].Height / 2,
			Stride: image.AlignStride[float32](w),
		}
	}
	return shapes
}

// pyramid owns the device buffers of one multi-resolution frame.
// Levels are immutable once built.
type pyramid struct {
	q      device.Queue
	shapes []device.Shape
	levels []device.Buffer
}

// buildPyramid uploads host into the finest level and derives the coarser
// levels by repeated Downscale. On failure every level allocated so far is
// released and no pyramid is returned.
func buildPyramid(q device.Queue, host []float32, shapes []device.Shape) (*pyramid, error) {
	p := &pyramid{
		q:      q,
		shapes: shapes,
		levels: make([]device.Buffer, len(shapes)),
	}
	if err := p.build(host); err != nil {
		return nil, errors.Join(err, p.release())
	}
	return p, nil
}

func (p *pyramid) build(host []float32) error {
	top := len(p.shapes) - 1
	buf, err := p.q.Malloc(p.shapes[top].Len())
	if err != nil {
		return deviceError("allocate pyramid level", err)
	}
	p.levels[top] = buf
	if err := p.q.Upload(buf, host[:p.shapes[top].Len()]); err != nil {
		return deviceError("upload frame", err)
	}

	for k := top; k > 0; k-- {
		child, err := p.q.Malloc(p.shapes[k-1].Len())
		if err != nil {
			return deviceError("allocate pyramid level", err)
		}
		p.levels[k-1] = child
		if err := p.q.Downscale(p.levels[k], p.shapes[k], child, p.shapes[k-1]); err != nil {
			return deviceError(fmt.Sprintf("downscale level %d", k), err)
		}
	}
	return nil
}

// level returns the buffer of level k. Out-of-range levels yield the zero
// Buffer, which every device rejects.
func (p *pyramid) level(k int) device.Buffer {
	if k < 0 || k >= len(p.levels) {
		return device.Buffer{}
	}
	return p.levels[k]
}

// release frees every level exactly once.
func (p *pyramid) release() error {
	var errs []error
	for k, buf := range p.levels {
		if !buf.Valid() {
			continue
		}
		if err := p.q.Free(buf); err != nil {
			errs = append(errs, deviceError(fmt.Sprintf("free pyramid level %d", k), err))
		}
		p.levels[k] = device.Buffer{}
	}
	return errors.Join(errs...)
}
