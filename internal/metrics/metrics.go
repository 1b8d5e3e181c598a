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

// Package metrics publishes Prometheus counters and gauges for the
// simulator's transaction and site lifecycle events, in the var-block
// promauto style used throughout the ambient stack this was grounded
// on (internal/staging/stage/metrics.go).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Baeyeon/RepCRec/internal/site"
	"github.com/Baeyeon/RepCRec/internal/txn"
	"github.com/Baeyeon/RepCRec/internal/types"
)

var (
	commitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repcrec_commits_total",
		Help: "the number of transactions that committed",
	})
	abortsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repcrec_aborts_total",
		Help: "the number of transactions that aborted, by reason",
	}, []string{"reason"})
	readsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repcrec_reads_total",
		Help: "the number of reads served, across all transactions",
	})
	siteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repcrec_site_failures_total",
		Help: "the number of site failures injected",
	})
	siteRecoveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repcrec_site_recoveries_total",
		Help: "the number of site recoveries injected",
	})
	siteStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "repcrec_site_status",
		Help: "the current lifecycle status of a site: 0=up, 1=down, 2=recovering",
	}, []string{"site"})
)

// Recorder implements txn.Recorder by publishing to the package-level
// Prometheus collectors above. It also exposes site-lifecycle
// recording methods that internal/engine calls around
// site.Manager.Fail/Recover.
type Recorder struct{}

// NewRecorder returns a Recorder backed by the default Prometheus
// registry, with every site's status gauge seeded as Up.
func NewRecorder() *Recorder {
	r := &Recorder{}
	for id := 1; id <= types.NumSites; id++ {
		r.SetSiteStatus(id, site.Up)
	}
	return r
}

// RecordCommit implements txn.Recorder.
func (*Recorder) RecordCommit() {
	commitsTotal.Inc()
}

// RecordAbort implements txn.Recorder.
func (*Recorder) RecordAbort(reason txn.AbortReason) {
	abortsTotal.WithLabelValues(string(reason)).Inc()
}

// RecordRead implements txn.Recorder.
func (*Recorder) RecordRead() {
	readsTotal.Inc()
}

// RecordSiteFailed records a fail() command and updates the site's
// status gauge.
func (r *Recorder) RecordSiteFailed(siteID int) {
	siteFailuresTotal.Inc()
	r.SetSiteStatus(siteID, site.Down)
}

// RecordSiteRecovered records a recover() command and updates the
// site's status gauge.
func (r *Recorder) RecordSiteRecovered(siteID int) {
	siteRecoveriesTotal.Inc()
	r.SetSiteStatus(siteID, site.Recovering)
}

// SetSiteStatus sets the status gauge for siteID directly, used at
// startup to seed every site as Up.
func (*Recorder) SetSiteStatus(siteID int, status site.Status) {
	siteStatus.WithLabelValues(siteLabel(siteID)).Set(float64(status))
}

func siteLabel(siteID int) string {
	return "s" + strconv.Itoa(siteID)
}
