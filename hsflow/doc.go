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

// Package hsflow computes dense optical flow between two grayscale frames
// with a coarse-to-fine Horn–Schunck method and incremental warping.
//
// Both frames are turned into image pyramids. Starting at the coarsest level
// the solver repeatedly warps the second frame by the current flow, computes
// the brightness constancy derivatives against the first frame, relaxes the
// linear system for a flow increment with a fixed number of Jacobi sweeps and
// adds the increment to the flow. Between levels the flow is upscaled
// bilinearly and rescaled to the finer pixel grid.
//
// # Usage
//
//	dev := device.NewCPU()
//	defer dev.Close()
//
//	p := hsflow.Params{Width: w, Height: h, Stride: w, Config: hsflow.DefaultConfig()}
//	u := make([]float32, p.Len())
//	v := make([]float32, p.Len())
//	if err := hsflow.ComputeFlow(dev, frame0, frame1, p, u, v); err != nil {
//	    return err
//	}
//
// The computation is deterministic for fixed parameters: there is no
// convergence test, only the configured iteration counts.
//
// # Errors
//
// Invalid parameters are reported as ErrInvalidParameter before any device
// work is issued. Device failures surface as ErrAllocationFailure or
// ErrDeviceFailure wrapping the device error. No partial result is ever
// written to the output buffers.
package hsflow
