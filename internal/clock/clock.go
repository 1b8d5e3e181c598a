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

// Package clock provides the simulator's single logical time source.
//
// Unlike a hybrid-logical clock, which pairs a wall-clock component
// with a logical counter to order events across independent physical
// nodes, this simulator has exactly one thread of control and needs
// only a bare, monotonically increasing counter: current_time advances
// once per inbound command, and once more when a transaction is
// assigned a commit timestamp.
package clock

// Clock is a scalar logical clock. The zero value starts at time 0.
// Clock is not safe for concurrent use; the simulator is single
// threaded by design (see spec §5) and no synchronization is provided.
type Clock struct {
	now int64
}

// New returns a Clock starting at logical time 0.
func New() *Clock {
	return &Clock{}
}

// Now returns the current logical time without advancing it.
func (c *Clock) Now() int64 {
	return c.now
}

// Tick advances the clock by one and returns the new time.
func (c *Clock) Tick() int64 {
	c.now++
	return c.now
}
