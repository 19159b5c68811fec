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

// Package envconfig reads hsflow settings from HSFLOW_* environment
// variables. The command line tools use them as flag defaults.
package envconfig

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ajroetker/go-opticalflow/hsflow"
)

var (
	// Set via HSFLOW_DEBUG in the environment
	Debug bool
	// Set via HSFLOW_DEBUG=2 or higher; enables per-iteration logging
	Trace bool
	// Set via HSFLOW_ALPHA in the environment
	Alpha float32
	// Set via HSFLOW_LEVELS in the environment
	Levels int
	// Set via HSFLOW_WARP_ITERS in the environment
	WarpIters int
	// Set via HSFLOW_SOLVER_ITERS in the environment
	SolverIters int
	// Set via HSFLOW_NUM_WORKERS in the environment
	NumWorkers int
	// Set via HSFLOW_MAX_MEMORY in the environment
	MaxMemory int64
)

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"HSFLOW_DEBUG":        {"HSFLOW_DEBUG", Debug, "Show debug logging (e.g. HSFLOW_DEBUG=1, or 2 for per-iteration tracing)"},
		"HSFLOW_ALPHA":        {"HSFLOW_ALPHA", Alpha, "Smoothness weight (default 0.2)"},
		"HSFLOW_LEVELS":       {"HSFLOW_LEVELS", Levels, "Pyramid levels (default 5)"},
		"HSFLOW_WARP_ITERS":   {"HSFLOW_WARP_ITERS", WarpIters, "Warping iterations per level (default 3)"},
		"HSFLOW_SOLVER_ITERS": {"HSFLOW_SOLVER_ITERS", SolverIters, "Jacobi iterations per warp (default 500)"},
		"HSFLOW_NUM_WORKERS":  {"HSFLOW_NUM_WORKERS", NumWorkers, "Kernel worker goroutines (default GOMAXPROCS)"},
		"HSFLOW_MAX_MEMORY":   {"HSFLOW_MAX_MEMORY", MaxMemory, "Device memory cap in bytes (default unlimited)"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

// LoadConfig resets every setting to its default and applies the environment.
func LoadConfig() {
	defaults := hsflow.DefaultConfig()
	Debug, Trace = false, false
	Alpha = defaults.Alpha
	Levels = defaults.Levels
	WarpIters = defaults.WarpIters
	SolverIters = defaults.SolverIters
	NumWorkers = 0
	MaxMemory = 0

	if debug := clean("HSFLOW_DEBUG"); debug != "" {
		if level, err := strconv.Atoi(debug); err == nil {
			Debug = level > 0
			Trace = level > 1
		} else if d, err := strconv.ParseBool(debug); err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	if s := clean("HSFLOW_ALPHA"); s != "" {
		a, err := strconv.ParseFloat(s, 32)
		if err != nil || !(a > 0) || math.IsInf(a, 0) {
			slog.Warn("invalid setting must be positive and finite, ignoring", "HSFLOW_ALPHA", s, "error", err)
		} else {
			Alpha = float32(a)
		}
	}

	positive := func(key string, dst *int, allowZero bool) {
		s := clean(key)
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 || (n == 0 && !allowZero) {
			slog.Warn("invalid setting, ignoring", key, s, "error", err)
			return
		}
		*dst = n
	}
	positive("HSFLOW_LEVELS", &Levels, false)
	positive("HSFLOW_WARP_ITERS", &WarpIters, true)
	positive("HSFLOW_SOLVER_ITERS", &SolverIters, true)
	positive("HSFLOW_NUM_WORKERS", &NumWorkers, true)

	if s := clean("HSFLOW_MAX_MEMORY"); s != "" {
		m, err := strconv.ParseInt(s, 10, 64)
		if err != nil || m < 0 {
			slog.Warn("invalid setting, ignoring", "HSFLOW_MAX_MEMORY", s, "error", err)
		} else {
			MaxMemory = m
		}
	}
}

// Config returns the solver settings currently loaded.
func Config() hsflow.Config {
	return hsflow.Config{
		Alpha:       Alpha,
		Levels:      Levels,
		WarpIters:   WarpIters,
		SolverIters: SolverIters,
	}
}
