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

	"github.com/ajroetker/go-opticalflow/hsflow/device"
)

// bufferPair is a fixed pair of same-sized buffers with one of them active.
// Swapping flips the active index; no data moves.
type bufferPair struct {
	bufs   [2]device.Buffer
	active int
}

func (b *bufferPair) front() device.Buffer { return b.bufs[b.active] }
func (b *bufferPair) back() device.Buffer  { return b.bufs[1-b.active] }
func (b *bufferPair) swap()                { b.active ^= 1 }

// scratch holds the full-resolution working buffers shared by all levels.
// Coarser levels use a prefix of each buffer; contents do not survive from
// one stage to another unless the driver says so.
type scratch struct {
	q device.Queue

	warped     device.Buffer
	ix, iy, it device.Buffer

	u, v   bufferPair // flow, back buffers receive the prolongation
	du, dv bufferPair // increment, back buffers receive each sweep

	owned []device.Buffer
}

func newScratch(q device.Queue, n int) (*scratch, error) {
	s := &scratch{q: q}
	targets := []*device.Buffer{
		&s.warped, &s.ix, &s.iy, &s.it,
		&s.u.bufs[0], &s.u.bufs[1], &s.v.bufs[0], &s.v.bufs[1],
		&s.du.bufs[0], &s.du.bufs[1], &s.dv.bufs[0], &s.dv.bufs[1],
	}
	for _, t := range targets {
		buf, err := q.Malloc(n)
		if err != nil {
			return nil, errors.Join(deviceError("allocate scratch", err), s.release())
		}
		*t = buf
		s.owned = append(s.owned, buf)
	}
	return s, nil
}

func (s *scratch) release() error {
	var errs []error
	for _, buf := range s.owned {
		if err := s.q.Free(buf); err != nil {
			errs = append(errs, deviceError("free scratch", err))
		}
	}
	s.owned = nil
	return errors.Join(errs...)
}
