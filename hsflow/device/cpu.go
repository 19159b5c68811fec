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

package device

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-opticalflow/hsflow/image"
	"github.com/ajroetker/go-opticalflow/hsflow/kernels"
)

const bytesPerElement = 4

// rowsPerChunk is the smallest number of image rows a worker receives.
const rowsPerChunk = 8

// CPU is a Device that keeps buffers in host memory and runs kernels on a
// worker pool. Queues complete every operation before returning, which
// trivially satisfies the in-order contract.
type CPU struct {
	pool   *Pool
	limit  int64
	used   atomic.Int64
	nextID atomic.Uint64
}

// CPUOption configures a CPU device.
type CPUOption func(*cpuConfig)

type cpuConfig struct {
	workers int
	limit   int64
}

// WithWorkers sets the number of kernel workers. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) CPUOption {
	return func(c *cpuConfig) { c.workers = n }
}

// WithMemoryLimit caps the bytes that may be allocated at once across all
// queues of the device. Allocations beyond the cap fail with
// ErrOutOfMemory. limit <= 0 means unlimited.
func WithMemoryLimit(limit int64) CPUOption {
	return func(c *cpuConfig) { c.limit = limit }
}

// NewCPU creates a CPU device. Close it to stop its workers.
func NewCPU(opts ...CPUOption) *CPU {
	var cfg cpuConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &CPU{
		pool:  NewPool(cfg.workers, rowsPerChunk),
		limit: cfg.limit,
	}
}

// Name reports the SIMD target, worker count and host vector features.
func (d *CPU) Name() string {
	name := fmt.Sprintf("cpu/%s (%d workers", hwy.CurrentName(), d.pool.NumWorkers())
	if features := cpuFeatures(); len(features) > 0 {
		name += ", " + strings.Join(features, " ")
	}
	return name + ")"
}

// InUse returns the number of bytes currently allocated on the device.
func (d *CPU) InUse() int64 {
	return d.used.Load()
}

// Close stops the device workers.
func (d *CPU) Close() {
	d.pool.Close()
}

// NewQueue opens a queue on the device.
func (d *CPU) NewQueue() (Queue, error) {
	return &cpuQueue{
		dev:     d,
		buffers: make(map[uint64][]float32),
	}, nil
}

func (d *CPU) reserve(n int) error {
	size := int64(n) * bytesPerElement
	if d.limit <= 0 {
		d.used.Add(size)
		return nil
	}
	for {
		used := d.used.Load()
		if used+size > d.limit {
			return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, used, d.limit)
		}
		if d.used.CompareAndSwap(used, used+size) {
			return nil
		}
	}
}

func (d *CPU) release(n int) {
	d.used.Add(-int64(n) * bytesPerElement)
}

type cpuQueue struct {
	dev     *CPU
	mu      sync.Mutex
	buffers map[uint64][]float32
	closed  bool
}

func (q *cpuQueue) Malloc(n int) (Buffer, error) {
	if n <= 0 {
		return Buffer{}, fmt.Errorf("%w: %d elements", ErrInvalidSize, n)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return Buffer{}, ErrQueueClosed
	}
	if err := q.dev.reserve(n); err != nil {
		return Buffer{}, err
	}
	id := q.dev.nextID.Add(1)
	q.buffers[id] = make([]float32, n)
	return Buffer{id: id, len: n}, nil
}

func (q *cpuQueue) Free(b Buffer) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	data, ok := q.buffers[b.id]
	if !ok {
		return fmt.Errorf("%w: free of buffer %d", ErrInvalidBuffer, b.id)
	}
	delete(q.buffers, b.id)
	q.dev.release(len(data))
	return nil
}

// lookup returns the storage behind each handle, in order.
func (q *cpuQueue) lookup(bufs ...Buffer) ([][]float32, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	out := make([][]float32, len(bufs))
	for i, b := range bufs {
		data, ok := q.buffers[b.id]
		if !ok {
			return nil, fmt.Errorf("%w: buffer %d", ErrInvalidBuffer, b.id)
		}
		out[i] = data
	}
	return out, nil
}

// views wraps each buffer as an image of shape s.
func (q *cpuQueue) views(s Shape, bufs ...Buffer) ([]*image.Image[float32], error) {
	data, err := q.lookup(bufs...)
	if err != nil {
		return nil, err
	}
	imgs := make([]*image.Image[float32], len(data))
	for i, d := range data {
		img, err := image.FromSlice(d, s.Width, s.Height, s.Stride)
		if err != nil {
			return nil, fmt.Errorf("%w: %dx%d stride %d on %d elements: %w", ErrShapeMismatch, s.Width, s.Height, s.Stride, len(d), err)
		}
		imgs[i] = img
	}
	return imgs, nil
}

func (q *cpuQueue) Upload(dst Buffer, src []float32) error {
	data, err := q.lookup(dst)
	if err != nil {
		return err
	}
	if len(src) > len(data[0]) {
		return fmt.Errorf("%w: upload of %d elements into %d", ErrShapeMismatch, len(src), len(data[0]))
	}
	copy(data[0], src)
	return nil
}

func (q *cpuQueue) Download(dst []float32, src Buffer) error {
	data, err := q.lookup(src)
	if err != nil {
		return err
	}
	if len(dst) > len(data[0]) {
		return fmt.Errorf("%w: download of %d elements from %d", ErrShapeMismatch, len(dst), len(data[0]))
	}
	copy(dst, data[0])
	return nil
}

func (q *cpuQueue) Zero(b Buffer) error {
	data, err := q.lookup(b)
	if err != nil {
		return err
	}
	clear(data[0])
	return nil
}

func (q *cpuQueue) Wait() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

func (q *cpuQueue) Downscale(src Buffer, from Shape, dst Buffer, to Shape) error {
	in, err := q.views(from, src)
	if err != nil {
		return err
	}
	out, err := q.views(to, dst)
	if err != nil {
		return err
	}
	q.dev.pool.ParallelFor(to.Height, func(y0, y1 int) {
		kernels.Downscale(in[0], out[0], y0, y1)
	})
	return nil
}

func (q *cpuQueue) Upscale(src Buffer, from Shape, dst Buffer, to Shape, scale float32) error {
	in, err := q.views(from, src)
	if err != nil {
		return err
	}
	out, err := q.views(to, dst)
	if err != nil {
		return err
	}
	q.dev.pool.ParallelFor(to.Height, func(y0, y1 int) {
		kernels.Upscale(in[0], out[0], scale, y0, y1)
	})
	return nil
}

func (q *cpuQueue) Warp(src, u, v Buffer, s Shape, dst Buffer) error {
	img, err := q.views(s, src, u, v, dst)
	if err != nil {
		return err
	}
	q.dev.pool.ParallelFor(s.Height, func(y0, y1 int) {
		kernels.Warp(img[0], img[1], img[2], img[3], y0, y1)
	})
	return nil
}

func (q *cpuQueue) Derivatives(i0, warped Buffer, s Shape, ix, iy, it Buffer) error {
	img, err := q.views(s, i0, warped, ix, iy, it)
	if err != nil {
		return err
	}
	q.dev.pool.ParallelFor(s.Height, func(y0, y1 int) {
		kernels.Derivatives(img[0], img[1], img[2], img[3], img[4], y0, y1)
	})
	return nil
}

func (q *cpuQueue) SolveForUpdate(du0, dv0, ix, iy, it Buffer, s Shape, alpha float32, du1, dv1 Buffer) error {
	if du1.id == dv1.id {
		return fmt.Errorf("%w: solver outputs must be distinct", ErrInvalidBuffer)
	}
	for _, in := range []Buffer{du0, dv0, ix, iy, it} {
		if in.id == du1.id || in.id == dv1.id {
			return fmt.Errorf("%w: solver input and output must not alias", ErrInvalidBuffer)
		}
	}
	img, err := q.views(s, du0, dv0, ix, iy, it, du1, dv1)
	if err != nil {
		return err
	}
	q.dev.pool.ParallelFor(s.Height, func(y0, y1 int) {
		kernels.SolveForUpdate(img[0], img[1], img[2], img[3], img[4], alpha, img[5], img[6], y0, y1)
	})
	return nil
}

func (q *cpuQueue) Add(a, b Buffer, n int, dst Buffer) error {
	data, err := q.lookup(a, b, dst)
	if err != nil {
		return err
	}
	for _, d := range data {
		if n > len(d) {
			return fmt.Errorf("%w: add of %d elements on %d", ErrShapeMismatch, n, len(d))
		}
	}
	q.dev.pool.ParallelFor(n, func(start, end int) {
		kernels.Add(data[0][start:end], data[1][start:end], data[2][start:end])
	})
	return nil
}

func (q *cpuQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	for id, data := range q.buffers {
		q.dev.release(len(data))
		delete(q.buffers, id)
	}
	q.closed = true
	return nil
}
