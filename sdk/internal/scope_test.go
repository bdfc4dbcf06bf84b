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

import "testing"

func TestScopeArenaAllocatesInCodeOrder(t *testing.T) {
	arena := newScopeArena()

	first := arena.newScope(rootScope, false)
	second := arena.newScope(rootScope, false)
	grandchild := arena.newScope(first, false)

	if first != 1 || second != 2 || grandchild != 3 {
		t.Fatalf("scope ids should follow creation order, got %d %d %d", first, second, grandchild)
	}
	if !arena.valid(rootScope) || !arena.valid(grandchild) {
		t.Error("allocated scopes must be valid")
	}
	if arena.valid(4) || arena.valid(-1) {
		t.Error("unallocated ids must be invalid")
	}
}

func TestScopeArenaCancelReachesChildren(t *testing.T) {
	arena := newScopeArena()
	child := arena.newScope(rootScope, false)
	grandchild := arena.newScope(child, false)
	sibling := arena.newScope(rootScope, false)

	arena.cancel(child, 5)

	if !arena.isCancelled(child) || !arena.isCancelled(grandchild) {
		t.Error("cancel must cover the whole subtree")
	}
	if arena.isCancelled(sibling) || arena.isCancelled(rootScope) {
		t.Error("cancel must not climb to parents or siblings")
	}

	seq, ok := arena.cancelSeqOf(grandchild)
	if !ok || seq != 5 {
		t.Errorf("grandchild should carry the ancestor's anchor, got (%d, %v)", seq, ok)
	}
}

func TestScopeArenaFirstCancelWins(t *testing.T) {
	arena := newScopeArena()
	child := arena.newScope(rootScope, false)

	arena.cancel(child, 9)
	arena.cancel(child, 3)

	seq, ok := arena.cancelSeqOf(child)
	if !ok || seq != 9 {
		t.Errorf("a later cancel must not re-stamp the scope, got (%d, %v)", seq, ok)
	}
}

func TestScopeArenaDetachedShieldsFromAncestors(t *testing.T) {
	arena := newScopeArena()
	child := arena.newScope(rootScope, false)
	detached := arena.newScope(child, true)
	insideDetached := arena.newScope(detached, false)

	arena.cancel(rootScope, 1)

	if !arena.isCancelled(child) {
		t.Error("ordinary child must observe the root cancel")
	}
	if arena.isCancelled(detached) || arena.isCancelled(insideDetached) {
		t.Error("detached subtree must survive ancestor cancellation")
	}

	// Direct cancellation still works on a detached scope.
	arena.cancel(detached, 2)
	if !arena.isCancelled(detached) || !arena.isCancelled(insideDetached) {
		t.Error("cancelling the detached scope itself must cover its subtree")
	}
}

func TestScopeArenaCancelAtBirth(t *testing.T) {
	arena := newScopeArena()
	parent := arena.newScope(rootScope, false)
	arena.cancel(parent, 4)

	lateChild := arena.newScope(parent, false)
	lateDetached := arena.newScope(parent, true)

	if !arena.isCancelled(lateChild) {
		t.Error("a child born under a cancelled parent starts cancelled")
	}
	if seq, _ := arena.cancelSeqOf(lateChild); seq != 4 {
		t.Errorf("inherited anchor should match the parent's, got %d", seq)
	}
	if arena.isCancelled(lateDetached) {
		t.Error("a detached child never inherits the parent's cancellation")
	}
}

func TestScopeArenaReaches(t *testing.T) {
	arena := newScopeArena()
	child := arena.newScope(rootScope, false)
	grandchild := arena.newScope(child, false)
	detached := arena.newScope(child, true)
	insideDetached := arena.newScope(detached, false)
	sibling := arena.newScope(rootScope, false)

	tests := []struct {
		name string
		src  int
		tgt  int
		want bool
	}{
		{"scope reaches itself", child, child, true},
		{"root reaches plain descendant", rootScope, grandchild, true},
		{"parent reaches child", child, grandchild, true},
		{"child does not reach parent", grandchild, child, false},
		{"root does not reach detached", rootScope, detached, false},
		{"root does not reach inside detached", rootScope, insideDetached, false},
		{"detached reaches its own child", detached, insideDetached, true},
		{"siblings do not reach each other", child, sibling, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := arena.reaches(tt.src, tt.tgt); got != tt.want {
				t.Errorf("reaches(%d, %d) = %v, want %v", tt.src, tt.tgt, got, tt.want)
			}
		})
	}
}

func TestScopeArenaPendingCancelOrdersLast(t *testing.T) {
	arena := newScopeArena()
	child := arena.newScope(rootScope, false)
	arena.cancel(child, pendingCancelSeq)

	seq, ok := arena.cancelSeqOf(child)
	if !ok {
		t.Fatal("stamp missing")
	}
	// An in-pass stamp must order after any journal-anchored sequence.
	if seq <= 1<<62 {
		t.Errorf("pending stamp %d does not order after journal seqs", seq)
	}
}
