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

// Package site implements the replica-facing half of the simulator:
// the static placement schema, per-site local storage, the site
// failure/recovery state machine, and fleet-wide operations
// (dump/fail/recover, and Snapshot Isolation's snapshot construction).
package site

import "github.com/Baeyeon/RepCRec/internal/types"

// Selector names the set of sites that host a given variable: either
// every site ("all", for even-indexed variables) or exactly one site
// (for odd-indexed variables).
type Selector struct {
	all  bool
	only int
}

// All reports whether the selector names every site.
func (s Selector) All() bool { return s.all }

// Only returns the single site id named by the selector. It is only
// meaningful when All() is false.
func (s Selector) Only() int { return s.only }

// Expand returns the concrete, ascending list of site ids the selector
// names.
func (s Selector) Expand() []int {
	if s.all {
		ids := make([]int, types.NumSites)
		for i := range ids {
			ids[i] = i + 1
		}
		return ids
	}
	return []int{s.only}
}

// SitesOf returns the replica placement for the variable at the given
// 1-based index, per the schema in spec §3:
//   - even-indexed variables are replicated to every site;
//   - odd-indexed variable x_i lives only at site (1 + i mod 10).
func SitesOf(index int) Selector {
	if types.IsEven(index) {
		return Selector{all: true}
	}
	return Selector{only: 1 + index%10}
}
