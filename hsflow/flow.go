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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ajroetker/go-opticalflow/hsflow/device"
	"github.com/ajroetker/go-opticalflow/hsflow/image"
	"github.com/ajroetker/go-opticalflow/internal/logutil"
)

// Option configures a flow computation.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for progress and timing records. The default
// is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// ComputeFlow estimates the displacement field (u, v) that maps frame i0 onto
// frame i1, so that i1(x+u, y+v) ≈ i0(x, y).
//
// i0, i1, u and v are host buffers of at least p.Stride*p.Height elements
// laid out with p.Stride elements per row. u and v are written only when the
// call succeeds. All device memory is allocated on a queue opened for this
// call and released before it returns; a failure to close that queue is
// reported as ErrDeviceFailure.
func ComputeFlow(dev device.Device, i0, i1 []float32, p Params, u, v []float32, opts ...Option) error {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := p.Validate(); err != nil {
		return err
	}
	n := p.Len()
	if len(i0) < n || len(i1) < n {
		return fmt.Errorf("%w: frames hold %d and %d elements, need %d", ErrInvalidParameter, len(i0), len(i1), n)
	}
	if len(u) < n || len(v) < n {
		return fmt.Errorf("%w: outputs hold %d and %d elements, need %d", ErrInvalidParameter, len(u), len(v), n)
	}

	q, err := dev.NewQueue()
	if err != nil {
		return deviceError("open queue", err)
	}
	// Idempotent; the checked Close below is the normal path.
	defer q.Close()

	o.logger.Debug("computing optical flow", "device", dev.Name(),
		"width", p.Width, "height", p.Height, "stride", p.Stride, "alpha", p.Alpha,
		"levels", p.Levels, "warp_iters", p.WarpIters, "solver_iters", p.SolverIters)

	f := &flow{q: q, p: p, log: o.logger, shapes: levelShapes(p)}
	hostU, hostV, err := f.run(i0, i1)
	if cerr := q.Close(); cerr != nil {
		err = errors.Join(err, deviceError("close queue", cerr))
	}
	if err != nil {
		return err
	}
	copy(u, hostU)
	copy(v, hostV)
	return nil
}

// ComputeImages runs ComputeFlow on two same-shaped images and returns the
// flow components as new images with the same geometry.
func ComputeImages(dev device.Device, i0, i1 *image.Image[float32], cfg Config, opts ...Option) (u, v *image.Image[float32], err error) {
	if i0 == nil || i1 == nil || !image.SameShape(i0, i1) {
		return nil, nil, fmt.Errorf("%w: frames must have the same shape", ErrInvalidParameter)
	}
	p := Params{Width: i0.Width(), Height: i0.Height(), Stride: i0.Stride(), Config: cfg}
	u = image.NewImageStride[float32](p.Width, p.Height, p.Stride)
	v = image.NewImageStride[float32](p.Width, p.Height, p.Stride)
	if err := ComputeFlow(dev, i0.Data(), i1.Data(), p, u.Data(), v.Data(), opts...); err != nil {
		return nil, nil, err
	}
	return u, v, nil
}

// flow is the state of one ComputeFlow call.
type flow struct {
	q      device.Queue
	p      Params
	log    *slog.Logger
	shapes []device.Shape // coarsest first

	ref, tgt *pyramid
	s        *scratch
}

// run builds both pyramids, sweeps the levels and downloads the result.
// Every buffer is released before run returns.
func (f *flow) run(i0, i1 []float32) (u, v []float32, err error) {
	defer func() {
		err = errors.Join(err, f.release())
	}()

	start := time.Now()
	if f.ref, err = buildPyramid(f.q, i0, f.shapes); err != nil {
		return nil, nil, err
	}
	if f.tgt, err = buildPyramid(f.q, i1, f.shapes); err != nil {
		return nil, nil, err
	}
	if f.s, err = newScratch(f.q, f.p.Len()); err != nil {
		return nil, nil, err
	}
	if err := f.q.Wait(); err != nil {
		return nil, nil, deviceError("build pyramids", err)
	}
	f.log.Debug("pyramids built", "levels", len(f.shapes), "elapsed", time.Since(start))

	if err := f.zero(f.s.u.front(), f.s.v.front()); err != nil {
		return nil, nil, err
	}
	for level := range f.shapes {
		if err := f.refine(level); err != nil {
			return nil, nil, err
		}
		if level < len(f.shapes)-1 {
			if err := f.prolongate(level); err != nil {
				return nil, nil, err
			}
		}
	}

	n := f.p.Len()
	u, v = make([]float32, n), make([]float32, n)
	if err := f.q.Download(u, f.s.u.front()); err != nil {
		return nil, nil, deviceError("download u", err)
	}
	if err := f.q.Download(v, f.s.v.front()); err != nil {
		return nil, nil, deviceError("download v", err)
	}
	if err := f.q.Wait(); err != nil {
		return nil, nil, deviceError("download flow", err)
	}
	f.log.Debug("optical flow computed", "elapsed", time.Since(start))
	return u, v, nil
}

// refine runs the warp iterations of one level.
func (f *flow) refine(level int) error {
	start := time.Now()
	shape := f.shapes[level]
	s := f.s
	for iter := range f.p.WarpIters {
		if err := f.zero(s.du.front(), s.du.back(), s.dv.front(), s.dv.back()); err != nil {
			return err
		}
		if err := f.q.Warp(f.tgt.level(level), s.u.front(), s.v.front(), shape, s.warped); err != nil {
			return deviceError("warp", err)
		}
		if err := f.q.Derivatives(f.ref.level(level), s.warped, shape, s.ix, s.iy, s.it); err != nil {
			return deviceError("derivatives", err)
		}
		for range f.p.SolverIters {
			err := f.q.SolveForUpdate(s.du.front(), s.dv.front(), s.ix, s.iy, s.it, shape, f.p.Alpha, s.du.back(), s.dv.back())
			if err != nil {
				return deviceError("solve", err)
			}
			s.du.swap()
			s.dv.swap()
		}
		if err := f.q.Add(s.u.front(), s.du.front(), shape.Len(), s.u.front()); err != nil {
			return deviceError("accumulate u", err)
		}
		if err := f.q.Add(s.v.front(), s.dv.front(), shape.Len(), s.v.front()); err != nil {
			return deviceError("accumulate v", err)
		}
		f.log.Log(context.Background(), logutil.LevelTrace, "warp iteration done", "level", level, "iter", iter)
	}
	f.log.Debug("level refined", "level", level, "width", shape.Width, "height", shape.Height, "elapsed", time.Since(start))
	return nil
}

// prolongate upscales the flow of level into the resolution of level+1.
func (f *flow) prolongate(level int) error {
	from, to := f.shapes[level], f.shapes[level+1]
	s := f.s
	scaleX := float32(to.Width) / float32(from.Width)
	scaleY := float32(to.Height) / float32(from.Height)
	if err := f.q.Upscale(s.u.front(), from, s.u.back(), to, scaleX); err != nil {
		return deviceError("upscale u", err)
	}
	if err := f.q.Upscale(s.v.front(), from, s.v.back(), to, scaleY); err != nil {
		return deviceError("upscale v", err)
	}
	s.u.swap()
	s.v.swap()
	return nil
}

func (f *flow) zero(bufs ...device.Buffer) error {
	for _, b := range bufs {
		if err := f.q.Zero(b); err != nil {
			return deviceError("zero", err)
		}
	}
	return nil
}

func (f *flow) release() error {
	var errs []error
	if f.s != nil {
		errs = append(errs, f.s.release())
	}
	if f.tgt != nil {
		errs = append(errs, f.tgt.release())
	}
	if f.ref != nil {
		errs = append(errs, f.ref.release())
	}
	return errors.Join(errs...)
}
