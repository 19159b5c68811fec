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

// Command hsflow estimates dense optical flow between two image frames.
//
//	hsflow compute frame0.png frame1.png -o flow.flo --png flow.png
//	hsflow compute frame0.pgm frame1.pgm --mag magnitude.pgm
//	hsflow compute frame0.png frame1.png --ref ground_truth.flo
//	hsflow env
//
// Defaults for the solver flags come from HSFLOW_* environment variables;
// run "hsflow env" to list them.
package main

import (
	"context"

	"github.com/spf13/cobra"
)

func main() {
	cobra.CheckErr(newCLI().ExecuteContext(context.Background()))
}
