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

//go:build wireinject
// +build wireinject

package engine

import (
	"github.com/google/wire"
	log "github.com/sirupsen/logrus"
)

// Inject builds a fully wired Engine: a fresh clock, a fully-Up site
// fleet, a Prometheus recorder, and a TransactionManager registered as
// the fleet's failure listener.
func Inject(logger *log.Entry) *Engine {
	wire.Build(Set)
	return nil
}
