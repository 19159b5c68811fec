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
	"sync/atomic"
	"testing"
)

func TestNewPool(t *testing.T) {
	pool := NewPool(4, 1)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewPoolDefault(t *testing.T) {
	pool := NewPool(0, 1)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

func TestParallelFor(t *testing.T) {
	pool := NewPool(4, 1)
	defer pool.Close()

	for _, n := range []int{1, 3, 4, 5, 100, 1001} {
		results := make([]int, n)
		pool.ParallelFor(n, func(start, end int) {
			for i := start; i < end; i++ {
				results[i] += i * 2
			}
		})
		for i := range n {
			if results[i] != i*2 {
				t.Errorf("n=%d: results[%d] = %d, want %d", n, i, results[i], i*2)
			}
		}
	}
}

func TestParallelFor_MinChunk(t *testing.T) {
	pool := NewPool(8, 10)
	defer pool.Close()

	var calls atomic.Int32
	var covered atomic.Int32
	pool.ParallelFor(25, func(start, end int) {
		calls.Add(1)
		covered.Add(int32(end - start))
	})
	if got := covered.Load(); got != 25 {
		t.Errorf("covered = %d, want 25", got)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("chunks = %d, want 3", got)
	}

	calls.Store(0)
	pool.ParallelFor(9, func(start, end int) {
		calls.Add(1)
		if start != 0 || end != 9 {
			t.Errorf("small launch split into [%d,%d)", start, end)
		}
	})
	if got := calls.Load(); got != 1 {
		t.Errorf("chunks = %d, want 1", got)
	}
}

func TestParallelFor_Empty(t *testing.T) {
	pool := NewPool(4, 1)
	defer pool.Close()

	called := false
	pool.ParallelFor(0, func(start, end int) {
		called = true
	})
	if called {
		t.Error("fn should not be called for n=0")
	}
}

func TestParallelFor_AfterClose(t *testing.T) {
	pool := NewPool(4, 1)
	pool.Close()
	pool.Close()

	var sum atomic.Int64
	pool.ParallelFor(100, func(start, end int) {
		for i := start; i < end; i++ {
			sum.Add(int64(i))
		}
	})
	if got := sum.Load(); got != 4950 {
		t.Errorf("sum = %d, want 4950", got)
	}
}

func TestParallelFor_ConcurrentClose(t *testing.T) {
	pool := NewPool(4, 1)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				var sum atomic.Int64
				pool.ParallelFor(64, func(start, end int) {
					for i := start; i < end; i++ {
						sum.Add(int64(i))
					}
				})
				if got := sum.Load(); got != 2016 {
					t.Errorf("sum = %d, want 2016", got)
					return
				}
			}
		}()
	}
	pool.Close()
	wg.Wait()
}
