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
	"math"
	"sync"
	"testing"

	"github.com/ajroetker/go-opticalflow/hsflow/device"
)

var errInjected = errors.New("injected fault")

// faultDevice wraps the CPU device and fails the named queue operation once
// it has succeeded `after` times.
type faultDevice struct {
	*device.CPU
	failOp string
	after  int

	mu     sync.Mutex
	opened int
}

func newFaultDevice(t *testing.T, failOp string, after int, opts ...device.CPUOption) *faultDevice {
	t.Helper()
	d := &faultDevice{CPU: device.NewCPU(opts...), failOp: failOp, after: after}
	t.Cleanup(d.CPU.Close)
	return d
}

func (d *faultDevice) NewQueue() (device.Queue, error) {
	d.mu.Lock()
	d.opened++
	d.mu.Unlock()
	if d.failOp == "open" {
		return nil, errInjected
	}
	q, err := d.CPU.NewQueue()
	if err != nil {
		return nil, err
	}
	return &faultQueue{Queue: q, failOp: d.failOp, after: d.after}, nil
}

func (d *faultDevice) queuesOpened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

type faultQueue struct {
	device.Queue
	failOp string
	after  int
	calls  int
}

func (q *faultQueue) check(op string) error {
	if op != q.failOp {
		return nil
	}
	q.calls++
	if q.calls > q.after {
		return errInjected
	}
	return nil
}

func (q *faultQueue) Close() error {
	err := q.Queue.Close()
	if cerr := q.check("close"); cerr != nil {
		return cerr
	}
	return err
}

func (q *faultQueue) Upload(dst device.Buffer, src []float32) error {
	if err := q.check("upload"); err != nil {
		return err
	}
	return q.Queue.Upload(dst, src)
}

func (q *faultQueue) Download(dst []float32, src device.Buffer) error {
	if err := q.check("download"); err != nil {
		return err
	}
	return q.Queue.Download(dst, src)
}

func (q *faultQueue) Wait() error {
	if err := q.check("wait"); err != nil {
		return err
	}
	return q.Queue.Wait()
}

func (q *faultQueue) Warp(src, u, v device.Buffer, s device.Shape, dst device.Buffer) error {
	if err := q.check("warp"); err != nil {
		return err
	}
	return q.Queue.Warp(src, u, v, s, dst)
}

func (q *faultQueue) SolveForUpdate(du0, dv0, ix, iy, it device.Buffer, s device.Shape, alpha float32, du1, dv1 device.Buffer) error {
	if err := q.check("solve"); err != nil {
		return err
	}
	return q.Queue.SolveForUpdate(du0, dv0, ix, iy, it, s, alpha, du1, dv1)
}

func (q *faultQueue) Upscale(src device.Buffer, from device.Shape, dst device.Buffer, to device.Shape, scale float32) error {
	if err := q.check("upscale"); err != nil {
		return err
	}
	return q.Queue.Upscale(src, from, dst, to, scale)
}

// sinusoid fills a stride-major frame with 0.5 + 0.25 sin(2πx/period) +
// 0.25 sin(2πy/period) sampled at (x - dx, y - dy).
func sinusoid(width, height, stride int, period, dx, dy float64) []float32 {
	out := make([]float32, stride*height)
	k := 2 * math.Pi / period
	for y := range height {
		for x := range width {
			fx := float64(x) - dx
			fy := float64(y) - dy
			out[y*stride+x] = float32(0.5 + 0.25*math.Sin(k*fx) + 0.25*math.Sin(k*fy))
		}
	}
	return out
}

// meanInterior averages f over the pixels at least margin away from every
// edge.
func meanInterior(f []float32, width, height, stride, margin int) float64 {
	var sum float64
	var n int
	for y := margin; y < height-margin; y++ {
		for x := margin; x < width-margin; x++ {
			sum += float64(f[y*stride+x])
			n++
		}
	}
	return sum / float64(n)
}

func filled(n int, value float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = value
	}
	return out
}
