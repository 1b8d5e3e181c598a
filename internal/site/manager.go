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

package site

import (
	"fmt"

	"github.com/Baeyeon/RepCRec/internal/types"
	log "github.com/sirupsen/logrus"
)

// FailureListener is notified when a site fails. TransactionManager
// implements this to cascade-abort transactions that wrote to the
// failed site, without SiteManager needing to know anything about
// transactions — a one-way callback wired once at startup (see
// internal/engine), rather than a bidirectional pointer cycle between
// the two managers.
type FailureListener interface {
	OnSiteFailed(siteID int)
}

// Manager owns the fleet of sites and implements the fleet-wide
// operations named in spec §4.4: dump formatting, fail/recover entry
// points, and snapshot construction for Snapshot Isolation.
type Manager struct {
	sites     []*Site // 1-based; sites[0] is unused
	listeners []FailureListener
	log       *log.Entry
}

// NewManager builds a fully-Up fleet of types.NumSites sites.
func NewManager(logger *log.Entry) *Manager {
	sites := make([]*Site, types.NumSites+1)
	for i := 1; i <= types.NumSites; i++ {
		sites[i] = New(i)
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Manager{sites: sites, log: logger.WithField("component", "site-manager")}
}

// RegisterFailureListener subscribes l to future site failures. Called
// once by the engine's wiring at startup.
func (m *Manager) RegisterFailureListener(l FailureListener) {
	m.listeners = append(m.listeners, l)
}

func (m *Manager) checkRange(index int) error {
	if index < 1 || index > types.NumSites {
		return &types.RangeError{Index: index}
	}
	return nil
}

// Site returns the site at the given 1-based index.
func (m *Manager) Site(index int) (*Site, error) {
	if err := m.checkRange(index); err != nil {
		return nil, err
	}
	return m.sites[index], nil
}

// Expand resolves a Selector to the concrete sites it names.
func (m *Manager) Expand(sel Selector) []*Site {
	ids := sel.Expand()
	out := make([]*Site, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.sites[id])
	}
	return out
}

// Fail marks the site Down and notifies every registered
// FailureListener so it can cascade-abort transactions that wrote
// there. now is the logical time of the failure, recorded on the site
// for diagnostics.
func (m *Manager) Fail(index int, now int64) error {
	if err := m.checkRange(index); err != nil {
		return err
	}
	m.sites[index].Fail(now)
	m.log.Infof("Site %d failed", index)
	for _, l := range m.listeners {
		l.OnSiteFailed(index)
	}
	return nil
}

// Recover transitions the site from Down to Recovering, logging how
// long it was down for (now is the logical time of the recovery).
// Supplements spec §4.3 with the last_failure_time field Site.py
// tracks but spec.md's prose never surfaces.
func (m *Manager) Recover(index int, now int64) error {
	if err := m.checkRange(index); err != nil {
		return err
	}
	s := m.sites[index]
	hadFailed := s.lastFailureTime >= 0
	downSince := s.lastFailureTime
	s.Recover()
	if hadFailed {
		m.log.Infof("Site %d recovered after being down for %d ticks", index, now-downSince)
	} else {
		m.log.Infof("Site %d recovered", index)
	}
	return nil
}

// CurrentVariables builds the snapshot used at transaction begin: for
// each logical variable, the value held by the lowest-numbered site
// that is not Down and currently has it marked readable. Variables
// with no readable replica anywhere are omitted.
func (m *Manager) CurrentVariables() map[string]int {
	snapshot := make(map[string]int, types.NumVariables)
	for idx := 1; idx <= types.NumVariables; idx++ {
		name := types.VarName(idx)
		for id := 1; id <= types.NumSites; id++ {
			s := m.sites[id]
			if s.Status() == Down {
				continue
			}
			if !s.Has(name) || !s.IsReadable(name) {
				continue
			}
			value, _ := s.Get(name)
			snapshot[name] = value
			break
		}
	}
	return snapshot
}

// DumpAll renders every site's state, in site-id order.
func (m *Manager) DumpAll() []string {
	var lines []string
	for id := 1; id <= types.NumSites; id++ {
		lines = append(lines, m.sites[id].DumpLines()...)
	}
	return lines
}

// DumpSite renders the single site's state.
func (m *Manager) DumpSite(index int) ([]string, error) {
	if err := m.checkRange(index); err != nil {
		return nil, err
	}
	return m.sites[index].DumpLines(), nil
}

// DumpVariable renders the current value of the named variable at
// every site that hosts it and currently holds a readable copy.
func (m *Manager) DumpVariable(name string) ([]string, error) {
	idx, err := types.VarIndex(name)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, s := range m.Expand(SitesOf(idx)) {
		if s.Status() == Down || !s.IsReadable(name) {
			continue
		}
		value, _ := s.Get(name)
		lines = append(lines, fmt.Sprintf("%s: %d at site %d", name, value, s.ID()))
	}
	return lines, nil
}
