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

// Package device abstracts the compute device the optical flow pipeline runs
// on: float buffer allocation, host transfers, zero fill, synchronisation and
// the numerical kernels, all addressed through opaque Buffer handles.
//
// A Device is long lived. Each flow computation opens its own Queue, issues an
// in-order stream of operations on it and closes it, which releases every
// buffer the queue still owns:
//
//	dev := device.NewCPU()
//	defer dev.Close()
//
//	q, err := dev.NewQueue()
//	if err != nil {
//	    return err
//	}
//	defer q.Close()
//
//	buf, err := q.Malloc(shape.Len())
//
// Operations on a queue are never reordered: every call observes the results
// of all calls issued before it. Wait blocks until everything issued so far
// has completed and reports any deferred failure.
package device

// Shape describes a strided image stored in a buffer.
type Shape struct {
	Width  int
	Height int
	Stride int // elements per row, >= Width
}

// Len returns the number of elements the shape spans, padding included.
func (s Shape) Len() int {
	return s.Stride * s.Height
}

// Valid reports whether the shape has positive dimensions and a stride of at
// least its width.
func (s Shape) Valid() bool {
	return s.Width > 0 && s.Height > 0 && s.Stride >= s.Width
}

// Buffer is a handle to float32 storage owned by a Queue. The zero Buffer is
// not a valid handle.
type Buffer struct {
	id  uint64
	len int
}

// Len returns the buffer capacity in elements.
func (b Buffer) Len() int {
	return b.len
}

// Valid reports whether b was returned by Malloc.
func (b Buffer) Valid() bool {
	return b.id != 0
}

// Device creates execution queues.
type Device interface {
	// Name describes the device for logs.
	Name() string
	// NewQueue opens an in-order queue. The caller must Close it.
	NewQueue() (Queue, error)
}

// Queue is an in-order execution context on a Device.
//
// Kernel calls take the Shape of the images their buffers hold; every buffer
// must have at least Shape.Len() elements.
type Queue interface {
	// Malloc allocates a buffer of n float32 elements. Contents are undefined.
	Malloc(n int) (Buffer, error)
	// Free releases a buffer. Freeing a handle twice is an error.
	Free(b Buffer) error
	// Upload copies len(src) elements from host memory to the start of dst.
	Upload(dst Buffer, src []float32) error
	// Download copies len(dst) elements from the start of src to host memory.
	Download(dst []float32, src Buffer) error
	// Zero sets every element of b to zero.
	Zero(b Buffer) error
	// Wait blocks until all issued operations have completed.
	Wait() error

	// Downscale writes a low-pass filtered, decimated copy of src into dst.
	Downscale(src Buffer, from Shape, dst Buffer, to Shape) error
	// Upscale resamples the field src into dst and multiplies it by scale.
	Upscale(src Buffer, from Shape, dst Buffer, to Shape, scale float32) error
	// Warp writes src sampled at (x+u, y+v) into dst.
	Warp(src, u, v Buffer, s Shape, dst Buffer) error
	// Derivatives computes Ix, Iy and It from the reference and warped frames.
	Derivatives(i0, warped Buffer, s Shape, ix, iy, it Buffer) error
	// SolveForUpdate runs one Jacobi sweep from (du0, dv0) into (du1, dv1).
	SolveForUpdate(du0, dv0, ix, iy, it Buffer, s Shape, alpha float32, du1, dv1 Buffer) error
	// Add writes a+b into dst over the first n elements.
	Add(a, b Buffer, n int, dst Buffer) error

	// Close releases every buffer still owned by the queue. Further calls
	// fail with ErrQueueClosed. Close is idempotent.
	Close() error
}
