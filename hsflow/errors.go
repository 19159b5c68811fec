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
	"errors"
	"fmt"

	"github.com/ajroetker/go-opticalflow/hsflow/device"
)

var (
	// ErrInvalidParameter indicates parameters rejected before any device
	// work was issued.
	ErrInvalidParameter = errors.New("hsflow: invalid parameter")
	// ErrAllocationFailure indicates the device ran out of memory.
	ErrAllocationFailure = errors.New("hsflow: allocation failure")
	// ErrDeviceFailure indicates a transfer, kernel or synchronisation error.
	ErrDeviceFailure = errors.New("hsflow: device operation failure")
)

// deviceError classifies err from the device operation op. The result
// matches both the hsflow sentinel and the device cause under errors.Is.
func deviceError(op string, err error) error {
	if errors.Is(err, device.ErrOutOfMemory) {
		return fmt.Errorf("%w: %s: %w", ErrAllocationFailure, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrDeviceFailure, op, err)
}
