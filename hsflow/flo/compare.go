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

package flo

import (
	"fmt"
	"math"
)

// Stats summarises the difference between an estimate and a reference.
type Stats struct {
	// Endpoint is the mean Euclidean distance between flow vectors.
	Endpoint float64
	// L1 is the mean of |Δu| + |Δv|.
	L1 float64
	// Max is the largest endpoint error.
	Max float64
	// Pixels is the number of pixels with a known reference vector.
	Pixels int
}

// Compare measures got against ref, skipping pixels where ref is unknown.
func Compare(got, ref *Field) (Stats, error) {
	if got.Width != ref.Width || got.Height != ref.Height {
		return Stats{}, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch, got.Width, got.Height, ref.Width, ref.Height)
	}
	var s Stats
	for i := range ref.U {
		if !ref.Known(i) {
			continue
		}
		du := float64(got.U[i] - ref.U[i])
		dv := float64(got.V[i] - ref.V[i])
		epe := math.Hypot(du, dv)
		s.Endpoint += epe
		s.L1 += math.Abs(du) + math.Abs(dv)
		s.Max = max(s.Max, epe)
		s.Pixels++
	}
	if s.Pixels > 0 {
		s.Endpoint /= float64(s.Pixels)
		s.L1 /= float64(s.Pixels)
	}
	return s, nil
}

// EndpointError returns the mean endpoint error of got against ref.
func EndpointError(got, ref *Field) (float64, error) {
	s, err := Compare(got, ref)
	return s.Endpoint, err
}

// L1Error returns the mean L1 error of got against ref.
func L1Error(got, ref *Field) (float64, error) {
	s, err := Compare(got, ref)
	return s.L1, err
}
