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
	"fmt"
	"math"
)

// Config holds the solver settings of a flow computation.
type Config struct {
	// Alpha weights the smoothness term against the data term. Larger
	// values give smoother, less locally accurate fields. Must be positive.
	Alpha float32
	// Levels is the pyramid depth; 1 solves at full resolution only.
	Levels int
	// WarpIters is the number of warp/derivative/solve passes per level.
	WarpIters int
	// SolverIters is the number of Jacobi sweeps per warp pass.
	SolverIters int
}

// DefaultConfig returns settings suited to 8-bit frames normalised to [0, 1].
func DefaultConfig() Config {
	return Config{
		Alpha:       0.2,
		Levels:      5,
		WarpIters:   3,
		SolverIters: 500,
	}
}

// Params describes one flow computation over host frames stored row-major
// with Stride elements per row.
type Params struct {
	Width  int
	Height int
	Stride int
	Config
}

// Validate checks p without touching any device.
func (p Params) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidParameter, p.Width, p.Height)
	case p.Stride < p.Width:
		return fmt.Errorf("%w: stride %d < width %d", ErrInvalidParameter, p.Stride, p.Width)
	case p.Levels < 1:
		return fmt.Errorf("%w: levels %d < 1", ErrInvalidParameter, p.Levels)
	case p.WarpIters < 0 || p.SolverIters < 0:
		return fmt.Errorf("%w: negative iteration count (warp %d, solver %d)", ErrInvalidParameter, p.WarpIters, p.SolverIters)
	case !(p.Alpha > 0) || math.IsInf(float64(p.Alpha), 1):
		return fmt.Errorf("%w: alpha %v must be positive and finite", ErrInvalidParameter, p.Alpha)
	}
	// The coarsest level is the input halved Levels-1 times.
	if p.Levels > 31 || p.Width>>(p.Levels-1) == 0 || p.Height>>(p.Levels-1) == 0 {
		return fmt.Errorf("%w: %d levels leave an empty coarsest level for %dx%d", ErrInvalidParameter, p.Levels, p.Width, p.Height)
	}
	return nil
}

// Len returns the number of elements in one frame or flow component.
func (p Params) Len() int {
	return p.Stride * p.Height
}
