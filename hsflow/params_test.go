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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Config{Alpha: 0.2, Levels: 5, WarpIters: 3, SolverIters: 500}, cfg)
}

func TestParams_Validate(t *testing.T) {
	valid := Params{Width: 64, Height: 48, Stride: 64, Config: DefaultConfig()}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{"zero width", func(p *Params) { p.Width = 0 }},
		{"negative height", func(p *Params) { p.Height = -1 }},
		{"stride below width", func(p *Params) { p.Stride = 63 }},
		{"zero levels", func(p *Params) { p.Levels = 0 }},
		{"negative warp iterations", func(p *Params) { p.WarpIters = -1 }},
		{"negative solver iterations", func(p *Params) { p.SolverIters = -3 }},
		{"zero alpha", func(p *Params) { p.Alpha = 0 }},
		{"negative alpha", func(p *Params) { p.Alpha = -0.1 }},
		{"NaN alpha", func(p *Params) { p.Alpha = float32(math.NaN()) }},
		{"infinite alpha", func(p *Params) { p.Alpha = float32(math.Inf(1)) }},
		{"coarsest level empty", func(p *Params) { p.Levels = 7 }},
		{"absurd level count", func(p *Params) { p.Levels = 64 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidParameter)
		})
	}
}

func TestParams_ValidateEdgeCases(t *testing.T) {
	// 48 >> 5 == 1: six levels still leave a 2x1 coarsest image.
	p := Params{Width: 64, Height: 48, Stride: 64, Config: Config{Alpha: 1, Levels: 6}}
	assert.NoError(t, p.Validate())

	p = Params{Width: 1, Height: 1, Stride: 1, Config: Config{Alpha: 1, Levels: 1}}
	assert.NoError(t, p.Validate(), "zero iteration counts are allowed")
	assert.Equal(t, 1, p.Len())
}
