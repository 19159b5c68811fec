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
	"runtime"
	"sync"
)

// Pool is a persistent set of workers that executes data-parallel kernel
// launches. Workers are spawned once per device and shared by every queue
// the device opens.
type Pool struct {
	numWorkers int
	minChunk   int
	workC      chan workItem

	// mu is held shared by launches and exclusively by Close, so workC is
	// never closed while a launch is sending on it.
	mu     sync.RWMutex
	closed bool
}

// workItem is one chunk of a launch.
type workItem struct {
	fn      func()
	barrier *sync.WaitGroup
}

// NewPool creates a pool with numWorkers workers. If numWorkers <= 0 it uses
// GOMAXPROCS. minChunk is the smallest number of items handed to a worker;
// launches smaller than that run on the calling goroutine.
func NewPool(numWorkers, minChunk int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		numWorkers: numWorkers,
		minChunk:   max(minChunk, 1),
		workC:      make(chan workItem, numWorkers*2),
	}
	for range numWorkers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for item := range p.workC {
		item.fn()
		item.barrier.Done()
	}
}

// NumWorkers returns the number of workers in the pool.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// Close stops the workers once running launches have finished. Launches
// after Close run sequentially on the caller. Calling Close multiple times
// is safe.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.workC)
	}
}

// ParallelFor splits [0, n) into contiguous chunks, runs fn(start, end) for
// each on the workers and blocks until all chunks are done.
func (p *Pool) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}

	workers := min(p.numWorkers, (n+p.minChunk-1)/p.minChunk)
	if workers <= 1 {
		fn(0, n)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		fn(0, n)
		return
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		p.workC <- workItem{
			fn: func() {
				fn(start, end)
			},
			barrier: &wg,
		}
	}
	wg.Wait()
}
