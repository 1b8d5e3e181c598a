// Copyright 2024 The RepCRec Authors
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
//
// SPDX-License-Identifier: Apache-2.0

package site

import (
	"fmt"

	"github.com/Baeyeon/RepCRec/internal/types"
	"github.com/bits-and-blooms/bitset"
)

// Status is the lifecycle state of a Site.
type Status int

const (
	// Up sites serve reads and writes for everything they host.
	Up Status = iota
	// Down sites serve nothing; their readability mask is empty.
	Down
	// Recovering sites serve their single-replica (odd) variables
	// immediately, and each even (replicated) variable only once a
	// committed write has landed on it since the recovery.
	Recovering
)

func (s Status) String() string {
	switch s {
	case Up:
		return "up"
	case Down:
		return "down"
	case Recovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// Site is one replica host. Its readable mask, combined with its
// Status, implements the Available Copies tri-state the design notes
// describe (Up | Down | Recovering{unreadable evens}): readable is
// always empty while Down, by construction of fail/recover below,
// which makes that invariant structural rather than something every
// caller must remember to check.
type Site struct {
	id              int
	status          Status
	lastFailureTime int64 // logical time of the most recent fail(); -1 if never failed
	data            *DataManager
	readable        *bitset.BitSet // bit (idx-1) set iff x<idx> is currently readable here
}

// New constructs the site with the given 1-based id, fully Up, with
// every hosted variable at its initial value and readable.
func New(id int) *Site {
	s := &Site{
		id:              id,
		status:          Up,
		lastFailureTime: -1,
		data:            newDataManager(id),
		readable:        bitset.New(uint(types.NumVariables)),
	}
	for _, idx := range s.data.HostedIndices() {
		s.readable.Set(uint(idx - 1))
	}
	return s
}

// ID returns this site's 1-based identifier.
func (s *Site) ID() int { return s.id }

// Status returns the site's current lifecycle state.
func (s *Site) Status() Status { return s.status }

// LastFailureTime returns the logical time of the most recent fail(),
// or -1 if the site has never failed.
func (s *Site) LastFailureTime() int64 { return s.lastFailureTime }

// IsReadable reports whether the named variable currently has a
// readable copy at this site.
func (s *Site) IsReadable(name string) bool {
	idx, err := types.VarIndex(name)
	if err != nil {
		return false
	}
	return s.readable.Test(uint(idx - 1))
}

// Get returns the current value of a hosted, readable variable. The
// second bool is false if the site doesn't host the variable at all;
// callers that also care about readability should check IsReadable.
func (s *Site) Get(name string) (int, bool) {
	return s.data.Get(name)
}

// Has reports whether this site hosts the named variable at all,
// irrespective of current readability.
func (s *Site) Has(name string) bool {
	return s.data.Has(name)
}

// HostedIndices returns the 1-based indices of variables this site
// hosts, ascending.
func (s *Site) HostedIndices() []int {
	return s.data.HostedIndices()
}

// WriteVariable applies a committed write at this site under
// Available Copies semantics (spec §4.3). It returns false, with no
// effect, if the site is Down. If the site is Recovering and the
// variable is even-indexed (replicated), the write makes the variable
// readable here again.
func (s *Site) WriteVariable(name string, value int) bool {
	if s.status == Down {
		return false
	}
	if !s.data.Write(name, value) {
		return false
	}
	if s.status == Recovering {
		if idx, err := types.VarIndex(name); err == nil && types.IsEven(idx) {
			s.readable.Set(uint(idx - 1))
		}
	}
	return true
}

// Fail transitions the site to Down: no variable remains readable.
func (s *Site) Fail(now int64) {
	s.status = Down
	s.lastFailureTime = now
	s.readable.ClearAll()
}

// Recover transitions a Down site to Recovering. Odd-indexed (single
// replica) variables are immediately readable again, since they never
// lost consistency with the rest of the fleet: there was never another
// copy to diverge from. Even-indexed (replicated) variables remain
// unreadable until a committed write lands on them (see
// WriteVariable), since a replica that missed writes while it was down
// would otherwise serve stale values.
func (s *Site) Recover() {
	for _, idx := range s.data.HostedIndices() {
		if !types.IsEven(idx) {
			s.readable.Set(uint(idx - 1))
		}
	}
	s.status = Recovering
}

// DumpLines renders this site's state as the human-readable lines
// described in spec §4.3, e.g. for a test oracle or operator to read.
func (s *Site) DumpLines() []string {
	header := fmt.Sprintf("=== Site %d ===", s.id)
	if s.status == Down {
		return []string{header, fmt.Sprintf("this site is down (failed at time %d)", s.lastFailureTime)}
	}

	lines := []string{header}
	printed := 0
	for _, idx := range s.data.HostedIndices() {
		name := types.VarName(idx)
		value, _ := s.data.Get(name)

		if s.status == Recovering {
			printed++
			if !s.IsReadable(name) {
				lines = append(lines, fmt.Sprintf("%s: is not available for reading", name))
			} else {
				lines = append(lines, fmt.Sprintf(
					"%s: %d (available at site %d for reading as it is the only copy or has been written after recovery)",
					name, value, s.id))
			}
			continue
		}

		if value != types.InitialValue(idx) {
			printed++
			lines = append(lines, fmt.Sprintf("%s: %d at site %d", name, value, s.id))
		}
	}

	if printed != len(s.data.HostedIndices()) {
		lines = append(lines, "All other variables have their initial values.")
	}
	return lines
}
