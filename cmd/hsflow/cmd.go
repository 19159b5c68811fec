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
	"context"
	"errors"
	"fmt"
	goimage "image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/harrydb/go/img/pnm"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ajroetker/go-opticalflow/hsflow"
	"github.com/ajroetker/go-opticalflow/hsflow/device"
	"github.com/ajroetker/go-opticalflow/hsflow/flo"
	"github.com/ajroetker/go-opticalflow/hsflow/image"
	"github.com/ajroetker/go-opticalflow/internal/envconfig"
	"github.com/ajroetker/go-opticalflow/internal/logutil"
)

func newCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hsflow",
		Short: "Horn-Schunck optical flow",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log progress and timings")

	cobra.EnableCommandSorting = false

	computeCmd := &cobra.Command{
		Use:   "compute FRAME0 FRAME1",
		Short: "Compute the flow from FRAME0 to FRAME1",
		Long:  "Compute the dense flow field that maps FRAME0 onto FRAME1 and write it as a Middlebury .flo file.",
		Args:  cobra.ExactArgs(2),
		RunE:  computeHandler,
	}
	computeCmd.Flags().Float32("alpha", envconfig.Alpha, "Smoothness weight")
	computeCmd.Flags().Int("levels", envconfig.Levels, "Pyramid levels")
	computeCmd.Flags().Int("warp-iters", envconfig.WarpIters, "Warping iterations per level")
	computeCmd.Flags().Int("solver-iters", envconfig.SolverIters, "Jacobi iterations per warp")
	computeCmd.Flags().Int("workers", envconfig.NumWorkers, "Kernel worker goroutines (0 for GOMAXPROCS)")
	computeCmd.Flags().Int64("max-memory", envconfig.MaxMemory, "Device memory cap in bytes (0 for unlimited)")
	computeCmd.Flags().StringP("output", "o", "flow.flo", "Flow file to write")
	computeCmd.Flags().String("png", "", "Also write a colour rendering of the flow to this PNG file")
	computeCmd.Flags().String("mag", "", "Also write the flow magnitude to this PGM file")
	computeCmd.Flags().String("ref", "", "Reference .flo file to compare against")

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "List environment configuration",
		Args:  cobra.NoArgs,
		RunE:  envHandler,
	}

	rootCmd.AddCommand(computeCmd, envCmd)
	return rootCmd
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose || envconfig.Debug {
		level = slog.LevelDebug
	}
	if envconfig.Trace {
		level = logutil.LevelTrace
	}
	return logutil.NewLogger(cmd.ErrOrStderr(), level)
}

func computeHandler(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	var cfg hsflow.Config
	var err error
	if cfg.Alpha, err = flags.GetFloat32("alpha"); err != nil {
		return err
	}
	if cfg.Levels, err = flags.GetInt("levels"); err != nil {
		return err
	}
	if cfg.WarpIters, err = flags.GetInt("warp-iters"); err != nil {
		return err
	}
	if cfg.SolverIters, err = flags.GetInt("solver-iters"); err != nil {
		return err
	}
	workers, err := flags.GetInt("workers")
	if err != nil {
		return err
	}
	maxMemory, err := flags.GetInt64("max-memory")
	if err != nil {
		return err
	}
	output, _ := flags.GetString("output")
	pngPath, _ := flags.GetString("png")
	refPath, _ := flags.GetString("ref")
	magPath, _ := flags.GetString("mag")

	logger := newLogger(cmd)

	frames, err := loadFrames(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if !image.SameShape(frames[0], frames[1]) {
		return fmt.Errorf("frames differ in size: %dx%d and %dx%d",
			frames[0].Width(), frames[0].Height(), frames[1].Width(), frames[1].Height())
	}

	dev := device.NewCPU(device.WithWorkers(workers), device.WithMemoryLimit(maxMemory))
	defer dev.Close()
	logger.Info("computing optical flow", "device", dev.Name(), "width", frames[0].Width(), "height", frames[0].Height())

	u, v, err := hsflow.ComputeImages(dev, frames[0], frames[1], cfg, hsflow.WithLogger(logger))
	if err != nil {
		return err
	}
	field, err := flo.FromImages(u, v)
	if err != nil {
		return err
	}
	if err := flo.WriteFile(output, field); err != nil {
		return err
	}
	logger.Info("wrote flow", "path", output)

	if pngPath != "" {
		if err := writePNG(pngPath, flo.Visualize(field, 0)); err != nil {
			return err
		}
		logger.Info("wrote rendering", "path", pngPath)
	}

	if magPath != "" {
		if err := writePGM(magPath, flo.Magnitude(field, 0)); err != nil {
			return err
		}
		logger.Info("wrote magnitude", "path", magPath)
	}

	if refPath != "" {
		ref, err := flo.ReadFile(refPath)
		if err != nil {
			return err
		}
		stats, err := flo.Compare(field, ref)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "endpoint error %.6f, L1 error %.6f, max %.6f over %d pixels\n",
			stats.Endpoint, stats.L1, stats.Max, stats.Pixels)
	}
	return nil
}

// loadFrames decodes both frames concurrently.
func loadFrames(ctx context.Context, paths ...string) ([]*image.Image[float32], error) {
	frames := make([]*image.Image[float32], len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			img, err := loadFrame(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			frames[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func loadFrame(ctx context.Context, path string) (*image.Image[float32], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var src goimage.Image
	if isPNM(path) {
		src, err = pnm.Decode(f)
	} else {
		src, _, err = goimage.Decode(f)
	}
	if err != nil {
		return nil, err
	}
	return image.FromGoImage(src), nil
}

// isPNM reports whether path names a Netpbm frame (PBM, PGM or PPM).
func isPNM(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pbm", ".pgm", ".ppm", ".pnm":
		return true
	}
	return false
}

func writePGM(path string, img *goimage.Gray) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return pnm.Encode(f, img, pnm.PGM)
}

func writePNG(path string, img goimage.Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return png.Encode(f, img)
}

func envHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var data [][]string
	for _, k := range keys {
		data = append(data, []string{k, fmt.Sprintf("%v", vars[k].Value), vars[k].Description})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"NAME", "VALUE", "DESCRIPTION"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
	return nil
}
