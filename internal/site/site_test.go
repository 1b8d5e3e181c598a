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

package site_test

import (
	"testing"

	"github.com/Baeyeon/RepCRec/internal/site"
	"github.com/Baeyeon/RepCRec/internal/types"
	"github.com/stretchr/testify/require"
)

func TestSitesOfPlacement(t *testing.T) {
	require.True(t, site.SitesOf(2).All())
	require.True(t, site.SitesOf(20).All())

	require.False(t, site.SitesOf(1).All())
	require.Equal(t, 2, site.SitesOf(1).Only())
	require.Equal(t, 4, site.SitesOf(3).Only())
	require.Equal(t, 10, site.SitesOf(9).Only())
	require.Equal(t, 2, site.SitesOf(11).Only())
	require.Equal(t, 10, site.SitesOf(19).Only())
}

func TestEvenVariableHostedEverywhere(t *testing.T) {
	for id := 1; id <= types.NumSites; id++ {
		s := site.New(id)
		require.True(t, s.Has("x2"))
		require.True(t, s.IsReadable("x2"))
		v, ok := s.Get("x2")
		require.True(t, ok)
		require.Equal(t, 20, v)
	}
}

func TestOddVariableHostedOnce(t *testing.T) {
	hosts := 0
	for id := 1; id <= types.NumSites; id++ {
		s := site.New(id)
		if s.Has("x1") {
			hosts++
			require.Equal(t, 2, s.ID())
		}
	}
	require.Equal(t, 1, hosts)
}

func TestFailClearsReadability(t *testing.T) {
	s := site.New(2)
	require.True(t, s.IsReadable("x1"))
	s.Fail(5)
	require.Equal(t, site.Down, s.Status())
	require.False(t, s.IsReadable("x1"))
	require.False(t, s.IsReadable("x2"))
	require.Equal(t, int64(5), s.LastFailureTime())
}

func TestFailIsIdempotent(t *testing.T) {
	s := site.New(2)
	s.Fail(1)
	s.Fail(1)
	require.Equal(t, site.Down, s.Status())
	require.False(t, s.IsReadable("x1"))
}

func TestRecoverReadabilityRules(t *testing.T) {
	s := site.New(2) // hosts x1 (odd, exclusive) and all evens
	s.Fail(1)
	s.Recover()
	require.Equal(t, site.Recovering, s.Status())

	// Odd-hosted variable is immediately readable again.
	require.True(t, s.IsReadable("x1"))
	// Even-hosted variable is not readable until a post-recovery write.
	require.False(t, s.IsReadable("x2"))

	ok := s.WriteVariable("x2", 999)
	require.True(t, ok)
	require.True(t, s.IsReadable("x2"))
}

func TestRecoverIsIdempotent(t *testing.T) {
	s := site.New(2)
	s.Fail(1)
	s.Recover()
	s.Recover()
	require.Equal(t, site.Recovering, s.Status())
	require.True(t, s.IsReadable("x1"))
	require.False(t, s.IsReadable("x2"))
}

func TestWriteToDownSiteIsNoOp(t *testing.T) {
	s := site.New(2)
	s.Fail(1)
	ok := s.WriteVariable("x1", 42)
	require.False(t, ok)
	v, _ := s.Get("x1")
	require.NotEqual(t, 42, v)
}

func TestDumpDownSite(t *testing.T) {
	s := site.New(1)
	s.Fail(3)
	lines := s.DumpLines()
	require.Contains(t, lines, "this site is down (failed at time 3)")
}
