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

// Command repcrec replays a workload script against a simulated,
// replicated key-value store under Serializable Snapshot Isolation and
// Available Copies, printing reads and dump output in arrival order.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Baeyeon/RepCRec/internal/engine"
	"github.com/Baeyeon/RepCRec/internal/script"
)

func main() {
	cfg := &Config{}
	flags := pflag.NewFlagSet("repcrec", pflag.ExitOnError)
	cfg.Bind(flags)
	flags.Parse(os.Args[1:])

	if args := flags.Args(); len(args) > 0 {
		cfg.WorkloadFile = args[0]
	}
	if err := cfg.Preflight(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	configureLogging(cfg)
	logger := log.WithField("run_id", uuid.NewString())

	in, closeIn, err := openInput(cfg)
	if err != nil {
		logger.Fatalf("opening workload: %v", err)
	}
	defer closeIn()

	out, closeOut, err := openOutput(cfg)
	if err != nil {
		logger.Fatalf("opening output: %v", err)
	}
	defer closeOut()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	e := engine.Inject(logger)
	lines, err := e.Run(script.NewReader(in))
	if err != nil {
		logger.Fatalf("running workload: %v", err)
	}

	w := bufio.NewWriter(out)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		logger.Fatalf("writing output: %v", err)
	}
}

func configureLogging(cfg *Config) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

func openInput(cfg *Config) (io.Reader, func(), error) {
	if cfg.Stdin {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(cfg.WorkloadFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(cfg *Config) (io.Writer, func(), error) {
	if cfg.OutFile == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(cfg.OutFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func serveMetrics(addr string, logger *log.Entry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warnf("metrics server stopped: %v", err)
	}
}
