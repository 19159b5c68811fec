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

package device

import "errors"

var (
	// ErrOutOfMemory indicates the device cannot satisfy an allocation.
	ErrOutOfMemory = errors.New("device: out of memory")
	// ErrInvalidBuffer indicates an unknown, freed or zero buffer handle.
	ErrInvalidBuffer = errors.New("device: invalid buffer handle")
	// ErrInvalidSize indicates a non-positive allocation size.
	ErrInvalidSize = errors.New("device: allocation size must be positive")
	// ErrShapeMismatch indicates a transfer or kernel that does not fit the
	// buffers it was given.
	ErrShapeMismatch = errors.New("device: shape does not fit buffer")
	// ErrQueueClosed indicates use of a queue after Close.
	ErrQueueClosed = errors.New("device: queue closed")
)
