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

// Package types contains the data types and sentinel errors shared by
// every other package in the simulator. Keeping them here, rather than
// in the packages that use them, lets internal/site, internal/txn and
// internal/engine refer to the same vocabulary without importing one
// another.
package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// NumSites is the fixed number of replication sites, s1..s10.
const NumSites = 10

// NumVariables is the fixed number of logical variables, x1..x20.
const NumVariables = 20

// SiteID identifies one of the NumSites replicas, 1-based.
type SiteID int

// VarName formats the logical variable at the given 1-based index,
// e.g. VarName(7) == "x7".
func VarName(index int) string {
	return fmt.Sprintf("x%d", index)
}

// VarIndex parses a variable name back into its 1-based index. It
// returns an error if name is not of the form "x<N>" for an N in
// [1, NumVariables].
func VarIndex(name string) (int, error) {
	var idx int
	if _, err := fmt.Sscanf(name, "x%d", &idx); err != nil {
		return 0, errors.Wrapf(err, "malformed variable name %q", name)
	}
	if idx < 1 || idx > NumVariables {
		return 0, errors.Errorf("variable index %d out of range [1, %d]", idx, NumVariables)
	}
	return idx, nil
}

// InitialValue is the bootstrapped value of variable xi: 10*i.
func InitialValue(index int) int {
	return 10 * index
}

// IsEven reports whether the variable at index is replicated to every
// site (even indices) as opposed to hosted by exactly one site (odd
// indices).
func IsEven(index int) bool {
	return index%2 == 0
}

// ErrSiteRange is returned when a site index named by an
// administrative command falls outside [1, NumSites]. Per spec this is
// a programmer error that terminates the run, not an ordinary abort.
var ErrSiteRange = errors.New("site index out of range")

// RangeError annotates ErrSiteRange with the offending index so callers
// can report it without re-deriving the bad value.
type RangeError struct {
	Index int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("site index %d out of range [1, %d]", e.Index, NumSites)
}

// Unwrap lets errors.Is(err, ErrSiteRange) succeed for a *RangeError.
func (e *RangeError) Unwrap() error { return ErrSiteRange }

// IsSiteRange reports whether err (or a wrapped cause) is a site index
// range error, and if so returns the offending index.
func IsSiteRange(err error) (index int, ok bool) {
	var rerr *RangeError
	if errors.As(err, &rerr) {
		return rerr.Index, true
	}
	return 0, false
}
