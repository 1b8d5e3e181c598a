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

package engine

import (
	"github.com/google/wire"
	log "github.com/sirupsen/logrus"

	"github.com/Baeyeon/RepCRec/internal/clock"
	"github.com/Baeyeon/RepCRec/internal/metrics"
	"github.com/Baeyeon/RepCRec/internal/site"
	"github.com/Baeyeon/RepCRec/internal/txn"
)

// Set is used by Wire.
var Set = wire.NewSet(
	ProvideClock,
	ProvideSiteManager,
	ProvideRecorder,
	ProvideTransactionManager,
	New,
)

// ProvideClock is called by Wire to construct the shared logical
// clock.
func ProvideClock() *clock.Clock {
	return clock.New()
}

// ProvideSiteManager is called by Wire to construct the fully-Up
// fleet of sites.
func ProvideSiteManager(logger *log.Entry) *site.Manager {
	return site.NewManager(logger)
}

// ProvideRecorder is called by Wire to construct the Prometheus
// recorder shared by the transaction manager and the site-failure
// dispatch path.
func ProvideRecorder() *metrics.Recorder {
	return metrics.NewRecorder()
}

// ProvideTransactionManager is called by Wire to construct the
// TransactionManager and complete the one-way callback wiring: the
// site manager must be able to reach the transaction manager on
// failure, but not vice versa.
func ProvideTransactionManager(
	sites *site.Manager, c *clock.Clock, rec *metrics.Recorder, logger *log.Entry,
) *txn.Manager {
	tm := txn.NewManager(sites, c, rec, logger)
	sites.RegisterFailureListener(tm)
	return tm
}
