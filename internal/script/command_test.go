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

package script_test

import (
	"strings"
	"testing"

	"github.com/Baeyeon/RepCRec/internal/script"
	"github.com/stretchr/testify/require"
)

func TestParseLineSingleCommand(t *testing.T) {
	cmds := script.ParseLine("begin(T1)")
	require.Len(t, cmds, 1)
	require.Equal(t, script.OpBegin, cmds[0].Op)
	require.Equal(t, []string{"T1"}, cmds[0].Params)
}

func TestParseLineMultipleCommandsSeparatedBySemicolon(t *testing.T) {
	cmds := script.ParseLine("begin(T1); W(T1, x2, 9); end(T1)")
	require.Len(t, cmds, 3)
	require.Equal(t, script.OpBegin, cmds[0].Op)
	require.Equal(t, script.OpWrite, cmds[1].Op)
	require.Equal(t, []string{"T1", "x2", "9"}, cmds[1].Params)
	require.Equal(t, script.OpEnd, cmds[2].Op)
}

func TestParseLineSkipsComments(t *testing.T) {
	cmds := script.ParseLine("// a full line comment")
	require.Empty(t, cmds)

	cmds = script.ParseLine("begin(T1); // trailing comment piece")
	require.Len(t, cmds, 1)
	require.Equal(t, script.OpBegin, cmds[0].Op)
}

func TestParseLineWhitespaceInsensitive(t *testing.T) {
	cmds := script.ParseLine("  R(  T1 ,   x3  )  ")
	require.Len(t, cmds, 1)
	require.Equal(t, script.OpRead, cmds[0].Op)
	require.Equal(t, []string{"T1", "x3"}, cmds[0].Params)
}

func TestParseLineNoParamsCommand(t *testing.T) {
	cmds := script.ParseLine("dump()")
	require.Len(t, cmds, 1)
	require.Equal(t, script.OpDump, cmds[0].Op)
	require.Empty(t, cmds[0].Params)
}

func TestIsSiteOp(t *testing.T) {
	require.True(t, script.IsSiteOp(script.OpDump))
	require.True(t, script.IsSiteOp(script.OpFail))
	require.True(t, script.IsSiteOp(script.OpRecover))
	require.False(t, script.IsSiteOp(script.OpBegin))
	require.False(t, script.IsSiteOp(script.OpRead))
	require.False(t, script.IsSiteOp(script.OpWrite))
	require.False(t, script.IsSiteOp(script.OpEnd))
}

func TestReaderSkipsBlankLines(t *testing.T) {
	r := script.NewReader(strings.NewReader("begin(T1)\n\n\nW(T1, x1, 5)\nend(T1)\n"))

	var lines [][]script.Command
	for {
		cmds, ok := r.Next()
		if !ok {
			break
		}
		lines = append(lines, cmds)
	}
	require.NoError(t, r.Err())
	require.Len(t, lines, 3)
	require.Equal(t, script.OpBegin, lines[0][0].Op)
	require.Equal(t, script.OpWrite, lines[1][0].Op)
	require.Equal(t, script.OpEnd, lines[2][0].Op)
}
