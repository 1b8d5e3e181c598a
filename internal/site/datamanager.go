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
	"github.com/Baeyeon/RepCRec/internal/types"
	"github.com/bits-and-blooms/bitset"
)

// DataManager holds the replicas physically stored at one site. It has
// no notion of site status; failure and readability live one layer up,
// in Site.
type DataManager struct {
	siteID int
	values map[string]int
	hosted *bitset.BitSet // bit (idx-1) set iff this site hosts x<idx>
}

// newDataManager populates a DataManager with exactly the variables
// the replication rule in spec §3 assigns to siteID.
func newDataManager(siteID int) *DataManager {
	dm := &DataManager{
		siteID: siteID,
		values: make(map[string]int, types.NumVariables),
		hosted: bitset.New(uint(types.NumVariables)),
	}
	for idx := 1; idx <= types.NumVariables; idx++ {
		if types.IsEven(idx) || SitesOf(idx).Only() == siteID {
			name := types.VarName(idx)
			dm.values[name] = types.InitialValue(idx)
			dm.hosted.Set(uint(idx - 1))
		}
	}
	return dm
}

// Has reports whether this site hosts the named variable.
func (dm *DataManager) Has(name string) bool {
	_, ok := dm.values[name]
	return ok
}

// Get returns the current value of the named variable and whether it
// is hosted here at all.
func (dm *DataManager) Get(name string) (int, bool) {
	v, ok := dm.values[name]
	return v, ok
}

// Write stores value under name. It returns false without effect if
// this site does not host the variable.
func (dm *DataManager) Write(name string, value int) bool {
	if !dm.Has(name) {
		return false
	}
	dm.values[name] = value
	return true
}

// HostedIndices returns the 1-based indices of every variable this
// site hosts, in ascending order, for deterministic iteration (dump
// output, commit fan-out).
func (dm *DataManager) HostedIndices() []int {
	out := make([]int, 0, dm.hosted.Count())
	for i, ok := dm.hosted.NextSet(0); ok; i, ok = dm.hosted.NextSet(i + 1) {
		out = append(out, int(i)+1)
	}
	return out
}
