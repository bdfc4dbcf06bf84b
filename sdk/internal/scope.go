// Copyright 2025 The Canopy Authors
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

package internal

import "math"

// rootScope is the execution's own scope. External cancellation targets it.
const rootScope = 0

// pendingCancelSeq marks a cancellation recorded during the current pass
// whose journal sequence is not assigned yet. It orders after every
// existing history event, so completions already in the journal win
// against it.
const pendingCancelSeq = math.MaxUint64

// scopeArena holds the cancellation-scope tree for one pass. Scopes are
// arena-allocated and addressed by small integers assigned in code order,
// which keeps ids stable across replays. The parent reference is just an
// index; children are owned by their parent's slice.
type scopeArena struct {
	nodes []scopeNode
}

type scopeNode struct {
	parent   int
	children []int
	detached bool

	// cancelled/cancelSeq track cancellations made by workflow code during
	// a pass. Cancellations that already have a journal record are covered
	// by the history cursor instead.
	cancelled bool
	cancelSeq uint64
}

func newScopeArena() *scopeArena {
	return &scopeArena{
		nodes: []scopeNode{{parent: -1}},
	}
}

// newScope allocates a child of parent. A detached child does not inherit
// cancellation from its ancestors; it can only be cancelled directly.
func (a *scopeArena) newScope(parent int, detached bool) int {
	id := len(a.nodes)
	node := scopeNode{parent: parent, detached: detached}

	// A child born under an already-cancelled lineage starts cancelled,
	// unless detachment shields it.
	if !detached {
		if seq, ok := a.cancelSeqOf(parent); ok {
			node.cancelled = true
			node.cancelSeq = seq
		}
	}

	a.nodes = append(a.nodes, node)
	a.nodes[parent].children = append(a.nodes[parent].children, id)
	return id
}

// cancel stamps the scope and every transitive non-detached descendant.
// The first stamp wins; cancelling twice is a no-op.
func (a *scopeArena) cancel(id int, seq uint64) {
	node := &a.nodes[id]
	if !node.cancelled {
		node.cancelled = true
		node.cancelSeq = seq
	}
	for _, child := range node.children {
		if a.nodes[child].detached {
			continue
		}
		a.cancel(child, seq)
	}
}

func (a *scopeArena) isCancelled(id int) bool {
	return a.nodes[id].cancelled
}

func (a *scopeArena) isDetached(id int) bool {
	return a.nodes[id].detached
}

func (a *scopeArena) valid(id int) bool {
	return id >= 0 && id < len(a.nodes)
}

// cancelSeqOf returns the in-pass cancellation covering id. Stamps
// propagate downward at cancel time and at scope creation, so the node's
// own fields are authoritative.
func (a *scopeArena) cancelSeqOf(id int) (uint64, bool) {
	node := a.nodes[id]
	if node.cancelled {
		return node.cancelSeq, true
	}
	return 0, false
}

// reaches reports whether a cancellation of src covers tgt: src must lie
// on tgt's ancestor path and no scope strictly below src on that path may
// be detached. src itself may be detached; direct cancellation always
// lands.
func (a *scopeArena) reaches(src, tgt int) bool {
	if src == tgt {
		return true
	}
	walk := tgt
	for walk != src {
		if a.nodes[walk].detached {
			return false
		}
		walk = a.nodes[walk].parent
		if walk < 0 {
			return false
		}
	}
	return true
}
