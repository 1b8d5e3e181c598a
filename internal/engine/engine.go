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

// Package engine wires internal/site, internal/txn, internal/clock and
// internal/metrics together into the single-threaded, tick-driven
// dispatcher described in original_source/RepCRec's InstructionIO.run:
// one parsed command executes to completion before the next begins.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Baeyeon/RepCRec/internal/clock"
	"github.com/Baeyeon/RepCRec/internal/metrics"
	"github.com/Baeyeon/RepCRec/internal/script"
	"github.com/Baeyeon/RepCRec/internal/site"
	"github.com/Baeyeon/RepCRec/internal/txn"
	"github.com/Baeyeon/RepCRec/internal/types"
)

// Engine dispatches parsed commands to the site and transaction
// managers, advancing the shared logical clock once per command.
type Engine struct {
	Sites    *site.Manager
	Txns     *txn.Manager
	Clock    *clock.Clock
	Recorder *metrics.Recorder
	log      *log.Entry
}

// New assembles an Engine from its already-constructed collaborators.
// Wiring (including registering Txns as a site.FailureListener) is
// done by Inject in wire_gen.go, not here, so this constructor stays a
// plain struct literal the way the teacher's Factory constructors do.
func New(sites *site.Manager, txns *txn.Manager, c *clock.Clock, rec *metrics.Recorder, logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Engine{
		Sites:    sites,
		Txns:     txns,
		Clock:    c,
		Recorder: rec,
		log:      logger.WithField("component", "engine"),
	}
}

// Run drains every command from r, dispatching each in order, and
// returns the accumulated output lines (dump output and read results,
// interleaved in arrival order, per spec §6). It stops and returns an
// error the moment a command names a site index out of range: per
// spec §7 that is a programmer error which terminates the run, not an
// ordinary abort.
func (e *Engine) Run(r *script.Reader) ([]string, error) {
	var out []string
	for {
		cmds, ok := r.Next()
		if !ok {
			break
		}
		for _, cmd := range cmds {
			lines, err := e.Dispatch(cmd)
			out = append(out, lines...)
			if err != nil {
				return out, err
			}
		}
	}
	return out, r.Err()
}

// Dispatch executes a single command and advances the clock by one,
// mirroring the tick dispatcher's "increment current_time, prune
// aborted transactions, route by command kind" sequence. A non-nil
// error is always a *types.RangeError and means the caller must stop.
func (e *Engine) Dispatch(cmd script.Command) ([]string, error) {
	e.Clock.Tick()
	e.Txns.ClearAborted()

	if script.IsSiteOp(cmd.Op) {
		return e.dispatchSite(cmd)
	}
	return e.dispatchTxn(cmd), nil
}

func (e *Engine) dispatchSite(cmd script.Command) ([]string, error) {
	switch cmd.Op {
	case script.OpDump:
		return e.dump(cmd)

	case script.OpFail:
		idx, err := parseSiteIndex(cmd)
		if err != nil {
			e.log.Warnf("malformed fail command %q: %v", cmd.Raw, err)
			return nil, nil
		}
		if err := e.Sites.Fail(idx, e.Clock.Now()); err != nil {
			return nil, e.siteRangeErr("fail", err)
		}
		e.Recorder.RecordSiteFailed(idx)
		return nil, nil

	case script.OpRecover:
		idx, err := parseSiteIndex(cmd)
		if err != nil {
			e.log.Warnf("malformed recover command %q: %v", cmd.Raw, err)
			return nil, nil
		}
		if err := e.Sites.Recover(idx, e.Clock.Now()); err != nil {
			return nil, e.siteRangeErr("recover", err)
		}
		e.Recorder.RecordSiteRecovered(idx)
		return nil, nil

	default:
		return nil, nil
	}
}

func (e *Engine) dump(cmd script.Command) ([]string, error) {
	if len(cmd.Params) == 0 || cmd.Params[0] == "" {
		return e.Sites.DumpAll(), nil
	}

	target := cmd.Params[0]
	if strings.HasPrefix(target, "x") {
		lines, err := e.Sites.DumpVariable(target)
		if err != nil {
			e.log.Warnf("dump(%s): %v", target, err)
			return nil, nil
		}
		return lines, nil
	}

	idx, err := strconv.Atoi(target)
	if err != nil {
		e.log.Warnf("malformed dump target %q", target)
		return nil, nil
	}
	lines, err := e.Sites.DumpSite(idx)
	if err != nil {
		return nil, e.siteRangeErr("dump", err)
	}
	return lines, nil
}

// siteRangeErr logs the programmer-error condition at the point of
// detection and returns err unchanged for the caller to propagate up
// to main, which terminates the run. err is always a *types.RangeError
// here since that is the only failure mode of Fail/Recover/DumpSite.
func (e *Engine) siteRangeErr(op string, err error) error {
	if idx, ok := types.IsSiteRange(err); ok {
		e.log.Errorf("%s(%d): %v, terminating run", op, idx, err)
	}
	return err
}

func (e *Engine) dispatchTxn(cmd script.Command) []string {
	switch cmd.Op {
	case script.OpBegin:
		if len(cmd.Params) < 1 {
			return nil
		}
		e.Txns.Begin(cmd.Params[0])
		return nil

	case script.OpRead:
		if len(cmd.Params) < 2 {
			return nil
		}
		name, varName := cmd.Params[0], cmd.Params[1]
		value, ok := e.Txns.Read(name, varName)
		if !ok {
			return nil
		}
		return []string{fmt.Sprintf("%s: %d", varName, value)}

	case script.OpWrite:
		if len(cmd.Params) < 3 {
			return nil
		}
		name, varName := cmd.Params[0], cmd.Params[1]
		value, err := strconv.Atoi(cmd.Params[2])
		if err != nil {
			e.log.Warnf("malformed write value in %q", cmd.Raw)
			return nil
		}
		e.Txns.Write(name, varName, value)
		return nil

	case script.OpEnd:
		if len(cmd.Params) < 1 {
			return nil
		}
		e.Txns.Commit(cmd.Params[0])
		return nil

	default:
		e.log.Warnf("unrecognized command %q", cmd.Raw)
		return nil
	}
}

func parseSiteIndex(cmd script.Command) (int, error) {
	if len(cmd.Params) < 1 {
		return 0, fmt.Errorf("missing site index")
	}
	return strconv.Atoi(cmd.Params[0])
}
