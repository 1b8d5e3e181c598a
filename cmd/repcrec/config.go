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

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is the CLI surface for the simulator: a positional workload
// file (mirroring original_source/RepCRec's start.py, which takes
// file_path positionally with --stdin/-i and --out/-o flags) plus the
// ambient logging and metrics flags the rest of the stack expects.
type Config struct {
	WorkloadFile string
	Stdin        bool
	OutFile      string
	LogLevel     string
	LogFormat    string
	MetricsAddr  string
}

// Bind registers the flag set.
func (c *Config) Bind(flags *pflag.FlagSet) {
	flags.BoolVarP(&c.Stdin, "stdin", "i", false, "read the workload from standard input instead of a file")
	flags.StringVarP(&c.OutFile, "out", "o", "", "write output lines to this file instead of stdout")
	flags.StringVar(&c.LogLevel, "log-level", "info", "log level: trace|debug|info|warn|error")
	flags.StringVar(&c.LogFormat, "log-format", "text", "log formatter: text|json")
	flags.StringVar(&c.MetricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")
}

// Preflight validates flag and positional-argument combinations.
func (c *Config) Preflight() error {
	if c.Stdin && c.WorkloadFile != "" {
		return errors.New("cannot combine a workload file argument with --stdin")
	}
	if !c.Stdin && c.WorkloadFile == "" {
		return errors.New("a workload file path is required unless --stdin is set")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errors.Errorf("unrecognized log format %q", c.LogFormat)
	}
	return nil
}
