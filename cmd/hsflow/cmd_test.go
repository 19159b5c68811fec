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

package main

import (
	"bytes"
	"fmt"
	goimage "image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-opticalflow/hsflow/flo"
)

func writeFrame(t *testing.T, path string, size int, shift float64) {
	t.Helper()
	img := goimage.NewGray(goimage.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			val := 0.5 + 0.25*math.Sin(2*math.Pi*(float64(x)-shift)/16) + 0.25*math.Sin(2*math.Pi*float64(y)/16)
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(val * 255))})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// writePGMFrame writes a binary (P5) graymap of the same pattern as writeFrame.
func writePGMFrame(t *testing.T, path string, size int, shift float64) {
	t.Helper()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P5\n%d %d\n255\n", size, size)
	for y := range size {
		for x := range size {
			val := 0.5 + 0.25*math.Sin(2*math.Pi*(float64(x)-shift)/16) + 0.25*math.Sin(2*math.Pi*float64(y)/16)
			buf.WriteByte(uint8(math.Round(val * 255)))
		}
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newCLI()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()
	frame0 := filepath.Join(dir, "frame0.png")
	frame1 := filepath.Join(dir, "frame1.png")
	writeFrame(t, frame0, 48, 0)
	writeFrame(t, frame1, 48, 1)

	output := filepath.Join(dir, "flow.flo")
	rendering := filepath.Join(dir, "flow.png")
	_, err := run(t, "compute", frame0, frame1,
		"--levels", "2", "--warp-iters", "2", "--solver-iters", "100", "--alpha", "0.01",
		"-o", output, "--png", rendering)
	require.NoError(t, err)

	field, err := flo.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, 48, field.Width)
	assert.Equal(t, 48, field.Height)
	c := 24*48 + 24
	assert.InDelta(t, 1, field.U[c], 0.35)

	f, err := os.Open(rendering)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, goimage.Rect(0, 0, 48, 48), img.Bounds())

	// Comparing the output against itself reports zero error.
	out, err := run(t, "compute", frame0, frame1,
		"--levels", "2", "--warp-iters", "2", "--solver-iters", "100", "--alpha", "0.01",
		"-o", filepath.Join(dir, "again.flo"), "--ref", output)
	require.NoError(t, err)
	assert.Contains(t, out, "endpoint error 0.000000")
}

func TestCompute_PGMFrames(t *testing.T) {
	dir := t.TempDir()
	frame0 := filepath.Join(dir, "frame0.pgm")
	frame1 := filepath.Join(dir, "frame1.pgm")
	writePGMFrame(t, frame0, 48, 0)
	writePGMFrame(t, frame1, 48, 1)

	output := filepath.Join(dir, "flow.flo")
	magnitude := filepath.Join(dir, "magnitude.pgm")
	_, err := run(t, "compute", frame0, frame1,
		"--levels", "2", "--warp-iters", "2", "--solver-iters", "100", "--alpha", "0.01",
		"-o", output, "--mag", magnitude)
	require.NoError(t, err)

	field, err := flo.ReadFile(output)
	require.NoError(t, err)
	assert.InDelta(t, 1, field.U[24*48+24], 0.35)

	mag, err := os.ReadFile(magnitude)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(mag, []byte("P5")), "magnitude is a binary graymap")
	assert.GreaterOrEqual(t, len(mag), 48*48, "header plus one byte per pixel")
}

func TestIsPNM(t *testing.T) {
	assert.True(t, isPNM("a/b/frame.pgm"))
	assert.True(t, isPNM("FRAME.PPM"))
	assert.False(t, isPNM("frame.png"))
	assert.False(t, isPNM("pgm"))
}

func TestCompute_Errors(t *testing.T) {
	dir := t.TempDir()
	frame0 := filepath.Join(dir, "frame0.png")
	small := filepath.Join(dir, "small.png")
	writeFrame(t, frame0, 32, 0)
	writeFrame(t, small, 16, 0)

	_, err := run(t, "compute", frame0)
	assert.Error(t, err)

	_, err = run(t, "compute", frame0, filepath.Join(dir, "missing.png"), "-o", filepath.Join(dir, "x.flo"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = run(t, "compute", frame0, small, "-o", filepath.Join(dir, "x.flo"))
	assert.ErrorContains(t, err, "differ in size")

	_, err = run(t, "compute", frame0, frame0, "--alpha", "-1", "-o", filepath.Join(dir, "x.flo"))
	assert.ErrorContains(t, err, "invalid parameter")
}

func TestEnv(t *testing.T) {
	out, err := run(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "HSFLOW_ALPHA")
	assert.Contains(t, out, "HSFLOW_MAX_MEMORY")
}
