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

package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Baeyeon/RepCRec/internal/engine"
	"github.com/Baeyeon/RepCRec/internal/script"
	"github.com/Baeyeon/RepCRec/internal/txn"
	"github.com/Baeyeon/RepCRec/internal/types"
)

func run(t *testing.T, program string) *engine.Engine {
	t.Helper()
	e := engine.Inject(nil)
	r := script.NewReader(strings.NewReader(program))
	_, err := e.Run(r)
	require.NoError(t, err)
	return e
}

func TestScenario1BasicSnapshotIsolationCommit(t *testing.T) {
	e := run(t, "begin(T1); W(T1,x1,101); end(T1); begin(T2); R(T2,x1); end(T2)")

	t1, _ := e.Txns.Lookup("T1")
	t2, _ := e.Txns.Lookup("T2")
	require.Equal(t, txn.Committed, t1.Status)
	require.Equal(t, txn.Committed, t2.Status)
	require.Equal(t, []int{101}, t2.ReadHistory["x1"])
}

func TestScenario2WriteWriteConflict(t *testing.T) {
	e := run(t, "begin(T1); begin(T2); W(T1,x1,5); W(T2,x1,6); end(T1); end(T2)")

	t1, _ := e.Txns.Lookup("T1")
	t2, _ := e.Txns.Lookup("T2")
	require.Equal(t, txn.Committed, t1.Status)
	require.Equal(t, txn.Aborted, t2.Status)

	s, err := e.Sites.Site(2) // x1 lives only at site 2
	require.NoError(t, err)
	v, ok := s.Get("x1")
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestScenario3WriteSkewCycle(t *testing.T) {
	e := run(t, "begin(T1); begin(T2); R(T1,x1); R(T2,x2); W(T1,x2,22); W(T2,x1,11); end(T1); end(T2)")

	t1, _ := e.Txns.Lookup("T1")
	t2, _ := e.Txns.Lookup("T2")
	require.Equal(t, txn.Committed, t1.Status)
	require.Equal(t, txn.Aborted, t2.Status)
}

func TestScenario4SiteFailureAbortsWriter(t *testing.T) {
	e := run(t, "begin(T1); W(T1,x2,200); fail(2); end(T1)")

	t1, _ := e.Txns.Lookup("T1")
	require.Equal(t, txn.Aborted, t1.Status)
}

func TestScenario5AvailableCopiesOnRecovery(t *testing.T) {
	e := run(t, "fail(3); begin(T1); W(T1,x4,444); end(T1); recover(3); begin(T2); R(T2,x4); end(T2)")

	t1, _ := e.Txns.Lookup("T1")
	t2, _ := e.Txns.Lookup("T2")
	require.Equal(t, txn.Committed, t1.Status)
	require.Equal(t, txn.Committed, t2.Status)
	require.Equal(t, []int{444}, t2.ReadHistory["x4"])

	s3, err := e.Sites.Site(3)
	require.NoError(t, err)
	require.False(t, s3.IsReadable("x4"), "x4 should not be readable at recovering site 3 absent a post-recovery write")
}

func TestScenario6UnreplicatedVariableSurvivesFailureButSnapshotOmitsIt(t *testing.T) {
	e := run(t, "begin(T1); W(T1,x3,333); end(T1); fail(4); begin(T2); R(T2,x3); end(T2)")

	t1, _ := e.Txns.Lookup("T1")
	t2, _ := e.Txns.Lookup("T2")
	require.Equal(t, txn.Committed, t1.Status)
	require.Equal(t, txn.Aborted, t2.Status)
}

func TestFailIdempotence(t *testing.T) {
	e := run(t, "fail(5); fail(5)")
	s, err := e.Sites.Site(5)
	require.NoError(t, err)
	require.Equal(t, "down", s.Status().String())
}

func TestRecoverIdempotence(t *testing.T) {
	e := run(t, "fail(5); recover(5); recover(5)")
	s, err := e.Sites.Site(5)
	require.NoError(t, err)
	require.Equal(t, "recovering", s.Status().String())
}

func TestBeginEndWithNoReadsOrWritesAlwaysCommits(t *testing.T) {
	e := run(t, "begin(T1); end(T1)")
	t1, _ := e.Txns.Lookup("T1")
	require.Equal(t, txn.Committed, t1.Status)
}

func TestReadYourOwnWriteWithinOneTransaction(t *testing.T) {
	e := run(t, "begin(T1); W(T1,x1,77); R(T1,x1); end(T1)")
	t1, _ := e.Txns.Lookup("T1")
	require.Equal(t, []int{77}, t1.ReadHistory["x1"])
	require.Equal(t, txn.Committed, t1.Status)
}

func TestFailWithOutOfRangeSiteIndexTerminatesRun(t *testing.T) {
	e := engine.Inject(nil)
	r := script.NewReader(strings.NewReader("fail(11)"))
	_, err := e.Run(r)
	require.Error(t, err)
	_, ok := types.IsSiteRange(err)
	require.True(t, ok, "expected a *types.RangeError, got %v", err)
}

func TestRecoverWithOutOfRangeSiteIndexTerminatesRun(t *testing.T) {
	e := engine.Inject(nil)
	r := script.NewReader(strings.NewReader("recover(0)"))
	_, err := e.Run(r)
	require.Error(t, err)
	_, ok := types.IsSiteRange(err)
	require.True(t, ok, "expected a *types.RangeError, got %v", err)
}

func TestDumpWithOutOfRangeSiteIndexTerminatesRun(t *testing.T) {
	e := engine.Inject(nil)
	r := script.NewReader(strings.NewReader("dump(99)"))
	_, err := e.Run(r)
	require.Error(t, err)
	_, ok := types.IsSiteRange(err)
	require.True(t, ok, "expected a *types.RangeError, got %v", err)
}

func TestOutOfRangeFailStopsProcessingSubsequentCommands(t *testing.T) {
	e := engine.Inject(nil)
	r := script.NewReader(strings.NewReader("begin(T1); fail(11); W(T1,x1,9)"))
	_, err := e.Run(r)
	require.Error(t, err)

	t1, ok := e.Txns.Lookup("T1")
	require.True(t, ok)
	require.Empty(t, t1.Uncommitted, "command after the range error must not have executed")
}

func TestMalformedFailCommandLogsAndSkipsRatherThanTerminating(t *testing.T) {
	e := run(t, "fail(abc); fail(2)")
	s, err := e.Sites.Site(2)
	require.NoError(t, err)
	require.Equal(t, "down", s.Status().String())
}

func TestMalformedRecoverCommandLogsAndSkipsRatherThanTerminating(t *testing.T) {
	e := run(t, "fail(2); recover(abc); recover(2)")
	s, err := e.Sites.Site(2)
	require.NoError(t, err)
	require.Equal(t, "recovering", s.Status().String())
}

func TestDumpOfDownSiteReportsFailureTime(t *testing.T) {
	e := run(t, "fail(2); dump(2)")
	s, err := e.Sites.Site(2)
	require.NoError(t, err)
	lines := s.DumpLines()
	require.Len(t, lines, 2)
	require.Contains(t, lines[1], "down")
	require.Contains(t, lines[1], "1") // failed at logical time 1, the first tick
}

func TestDumpAllProducesOneHeaderPerSite(t *testing.T) {
	e := engine.Inject(nil)
	r := script.NewReader(strings.NewReader("dump()"))
	out, err := e.Run(r)
	require.NoError(t, err)

	headers := 0
	for _, line := range out {
		if strings.HasPrefix(line, "=== Site") {
			headers++
		}
	}
	require.Equal(t, 10, headers)
}
