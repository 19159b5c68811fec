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

package hsflow_test

import (
	"errors"
	"fmt"
	"math"

	"github.com/ajroetker/go-opticalflow/hsflow"
	"github.com/ajroetker/go-opticalflow/hsflow/device"
)

func ExampleComputeFlow() {
	const size = 64
	frame := func(shift float64) []float32 {
		out := make([]float32, size*size)
		for y := range size {
			for x := range size {
				out[y*size+x] = float32(0.5 + 0.25*math.Sin(2*math.Pi*(float64(x)-shift)/16) +
					0.25*math.Sin(2*math.Pi*float64(y)/16))
			}
		}
		return out
	}

	dev := device.NewCPU()
	defer dev.Close()

	p := hsflow.Params{
		Width: size, Height: size, Stride: size,
		Config: hsflow.Config{Alpha: 0.005, Levels: 2, WarpIters: 3, SolverIters: 200},
	}
	u := make([]float32, p.Len())
	v := make([]float32, p.Len())
	if err := hsflow.ComputeFlow(dev, frame(0), frame(1), p, u, v); err != nil {
		fmt.Println(err)
		return
	}
	c := (size/2)*size + size/2
	fmt.Printf("u=%.0f v=%.0f\n", u[c], math.Abs(float64(v[c])))
	// Output: u=1 v=0
}

func ExampleComputeFlow_invalidParameter() {
	dev := device.NewCPU()
	defer dev.Close()

	p := hsflow.Params{Width: 8, Height: 8, Stride: 8, Config: hsflow.DefaultConfig()}
	buf := make([]float32, p.Len())
	err := hsflow.ComputeFlow(dev, buf, buf, p, buf, buf)
	fmt.Println(errors.Is(err, hsflow.ErrInvalidParameter))
	// Output: true
}
