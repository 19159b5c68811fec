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

package kernels

import "github.com/ajroetker/go-highway/hwy"

// Add computes dst = a + b over the common length of the three slices.
// Callers pass whole strided buffers, so padding columns are summed too;
// their values are never interpreted.
func Add[T hwy.Floats](a, b, dst []T) {
	n := min(len(a), len(b), len(dst))
	lanes := hwy.MaxLanes[T]()

	i := 0
	for ; i+lanes <= n; i += lanes {
		hwy.Store(hwy.Add(hwy.Load(a[i:]), hwy.Load(b[i:])), dst[i:])
	}
	for ; i < n; i++ {
		dst[i] = a[i] + b[i]
	}
}
