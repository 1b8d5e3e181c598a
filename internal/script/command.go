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

// Package script parses the simulator's workload language: one command
// per statement, statements separated by ';', "//" line comments,
// parameters inside parentheses. The grammar and dispatch split
// between site commands and transaction commands mirror
// original_source/RepCRec's instruction layer.
package script

import (
	"regexp"
	"strings"
)

// Op names a workload operation.
type Op string

const (
	OpBegin   Op = "begin"
	OpRead    Op = "R"
	OpWrite   Op = "W"
	OpDump    Op = "dump"
	OpEnd     Op = "end"
	OpFail    Op = "fail"
	OpRecover Op = "recover"
)

// siteOps is the set of operations routed to the site manager rather
// than the transaction manager (spec §6's dispatch table).
var siteOps = map[Op]struct{}{
	OpDump:    {},
	OpFail:    {},
	OpRecover: {},
}

// IsSiteOp reports whether op belongs to the site manager.
func IsSiteOp(op Op) bool {
	_, ok := siteOps[op]
	return ok
}

// Command is one parsed statement, e.g. "W(T1, x2, 9)" becomes
// {Op: OpWrite, Params: []string{"T1", "x2", "9"}}.
type Command struct {
	Op     Op
	Params []string
	Raw    string // original text, for error messages
}

var paramMatcher = regexp.MustCompile(`\((.*?)\)`)

// parseStatement parses a single ';'-delimited, already-trimmed
// statement into a Command. An empty or comment-only statement yields
// ok == false.
func parseStatement(stmt string) (Command, bool) {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasPrefix(stmt, "//") {
		return Command{}, false
	}

	op := strings.TrimSpace(strings.SplitN(stmt, "(", 2)[0])

	var params []string
	if m := paramMatcher.FindStringSubmatch(stmt); m != nil && strings.TrimSpace(m[1]) != "" {
		for _, p := range strings.Split(m[1], ",") {
			params = append(params, strings.TrimSpace(p))
		}
	}

	return Command{Op: Op(op), Params: params, Raw: stmt}, true
}

// ParseLine splits a raw input line on ';' and parses each non-empty,
// non-comment piece into a Command, preserving order.
func ParseLine(line string) []Command {
	var out []Command
	for _, piece := range strings.Split(line, ";") {
		if cmd, ok := parseStatement(piece); ok {
			out = append(out, cmd)
		}
	}
	return out
}
