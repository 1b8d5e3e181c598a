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

package txn

// dependencyGraph is the SSI certification graph: a directed edge
// frm -> to records that frm must be ordered before to were both to
// commit. A cycle reachable from a newly-committing transaction means
// certifying it would violate serializability, and it must abort
// instead (spec §4.6 Phase 4).
//
// An aborted transaction is removed from the graph as soon as abort()
// runs, and Manager.ClearAborted prunes aborted transactions again on
// every tick, so cycle checks never traverse an aborted node.
type dependencyGraph struct {
	edges map[string]map[string]struct{}
}

func newDependencyGraph() *dependencyGraph {
	return &dependencyGraph{edges: make(map[string]map[string]struct{})}
}

func (g *dependencyGraph) addEdge(from, to string) {
	if from == to {
		return
	}
	if g.edges[from] == nil {
		g.edges[from] = make(map[string]struct{})
	}
	g.edges[from][to] = struct{}{}
}

func (g *dependencyGraph) remove(name string) {
	delete(g.edges, name)
	for _, nbrs := range g.edges {
		delete(nbrs, name)
	}
}

// hasCycleFrom runs a DFS from start and reports whether it revisits a
// node still on the current recursion stack.
func (g *dependencyGraph) hasCycleFrom(start string) bool {
	visited := make(map[string]struct{})
	onStack := make(map[string]struct{})

	var dfs func(u string) bool
	dfs = func(u string) bool {
		visited[u] = struct{}{}
		onStack[u] = struct{}{}
		for v := range g.edges[u] {
			if _, seen := visited[v]; !seen {
				if dfs(v) {
					return true
				}
			} else if _, onPath := onStack[v]; onPath {
				return true
			}
		}
		delete(onStack, u)
		return false
	}
	return dfs(start)
}
