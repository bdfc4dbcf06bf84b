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

import (
	"context"
	"errors"
	"testing"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
	"github.com/canopy-run/canopy/journal"
)

// journalOf appends events in order and loads the records back, giving
// each test a journal with contiguous sequence numbers from 1.
func journalOf(t *testing.T, events ...api.ExecutionEvent) []journal.Record {
	t.Helper()
	store := journal.NewMemoryStore(nil)
	id := api.ExecutionID("exec-test")
	if _, err := store.Append(context.Background(), id, events...); err != nil {
		t.Fatalf("append: %v", err)
	}
	recs, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return recs
}

func TestBuildCursorCollectsScheduleAndOutcome(t *testing.T) {
	id := api.ExecutionID("exec-test")
	recs := journalOf(t,
		&api.ExecutionStarted{ID: id, WorkflowFnName: "greet", Input: []any{"World"}},
		&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose", Input: []any{"Hello"}},
		&api.TimerScheduled{ID: id, Op: 2, Scope: 0, DurationMs: 50, FireAtUnixMs: 1000},
		&api.ActivityCompleted{ID: id, Op: 1, ActivityFnName: "compose", Result: []any{"Hello World"}},
		&api.TimerFired{ID: id, Op: 2},
	)

	cursor, err := buildCursor(serde.Msgpack{}, recs)
	if err != nil {
		t.Fatalf("buildCursor: %v", err)
	}

	if cursor.started == nil || cursor.started.WorkflowFnName != "greet" {
		t.Fatalf("start record lost: %+v", cursor.started)
	}
	if len(cursor.schedules) != 2 || cursor.maxScheduledOp != 2 {
		t.Errorf("want 2 schedules up to op 2, got %d schedules, max %d", len(cursor.schedules), cursor.maxScheduledOp)
	}
	if sched := cursor.schedules[1]; sched == nil || sched.kind != opActivity || sched.name != "compose" || sched.seq != 2 {
		t.Errorf("activity schedule mismatch: %+v", sched)
	}
	if sched := cursor.schedules[2]; sched == nil || sched.kind != opTimer {
		t.Errorf("timer schedule mismatch: %+v", sched)
	}
	if res := cursor.resolutions[1]; res == nil || res.outcome != resCompleted || res.seq != 4 {
		t.Errorf("activity resolution mismatch: %+v", res)
	}
	if res := cursor.resolutions[2]; res == nil || res.outcome != resCompleted {
		t.Errorf("timer resolution mismatch: %+v", res)
	}
	if cursor.terminal != nil || cursor.cancelRequested {
		t.Error("in-flight journal must have no terminal and no cancel")
	}
	if cursor.lastSeq != 5 {
		t.Errorf("lastSeq = %d, want 5", cursor.lastSeq)
	}
}

func TestBuildCursorDuplicateRecords(t *testing.T) {
	id := api.ExecutionID("exec-test")

	t.Run("identical schedule duplicate is tolerated", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
			&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
		)
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}
		if sched := cursor.schedules[1]; sched == nil || sched.seq != 2 {
			t.Errorf("first record should win, got %+v", sched)
		}
	})

	t.Run("conflicting schedule at one op is corruption", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
			&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "other"},
		)
		_, err := buildCursor(serde.Msgpack{}, recs)
		var mismatch *ReplayMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("want ReplayMismatchError, got %v", err)
		}
		if mismatch.Op != 1 {
			t.Errorf("mismatch at op %d, want 1", mismatch.Op)
		}
	})

	t.Run("timer scope change is corruption", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.TimerScheduled{ID: id, Op: 1, Scope: 0},
			&api.TimerScheduled{ID: id, Op: 1, Scope: 2},
		)
		if _, err := buildCursor(serde.Msgpack{}, recs); err == nil {
			t.Fatal("expected error for conflicting timer records")
		}
	})

	t.Run("first resolution wins", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
			&api.ActivityTimedOut{ID: id, Op: 1, TimeoutType: api.TimeoutScheduleToClose, TimeoutMs: 100},
			&api.ActivityCompleted{ID: id, Op: 1, Result: []any{"late"}},
		)
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}
		if res := cursor.resolutions[1]; res == nil || res.outcome != resTimedOut {
			t.Errorf("late completion must not displace the recorded timeout: %+v", res)
		}
	})
}

func TestBuildCursorCancelMarks(t *testing.T) {
	id := api.ExecutionID("exec-test")
	recs := journalOf(t,
		&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
		&api.ScopeCancelled{ID: id, Scope: 1},
		&api.CancelRequested{ID: id, Reason: "operator asked"},
		&api.CancelRequested{ID: id, Reason: "second request"},
		&api.ScopeCancelled{ID: id, Scope: 1},
	)

	cursor, err := buildCursor(serde.Msgpack{}, recs)
	if err != nil {
		t.Fatalf("buildCursor: %v", err)
	}

	if !cursor.cancelRequested || cursor.cancelReason != "operator asked" {
		t.Errorf("first request's reason must stick, got %q", cursor.cancelReason)
	}
	if len(cursor.cancels) != 4 {
		t.Errorf("every mark is kept for ordering, got %d", len(cursor.cancels))
	}
	if seq := cursor.scopeMarkers[1]; seq != 2 {
		t.Errorf("scope marker should anchor at its first record, got seq %d", seq)
	}
}

func TestBuildCursorTerminal(t *testing.T) {
	id := api.ExecutionID("exec-test")
	recs := journalOf(t,
		&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
		&api.ExecutionCancelled{ID: id, Reason: "done with it"},
	)

	cursor, err := buildCursor(serde.Msgpack{}, recs)
	if err != nil {
		t.Fatalf("buildCursor: %v", err)
	}
	terminal, ok := cursor.terminal.(*api.ExecutionCancelled)
	if !ok {
		t.Fatalf("terminal = %T, want *api.ExecutionCancelled", cursor.terminal)
	}
	if terminal.Reason != "done with it" {
		t.Errorf("terminal reason = %q", terminal.Reason)
	}
}

func TestEffectiveCancelCoverage(t *testing.T) {
	id := api.ExecutionID("exec-test")

	t.Run("root mark covers descendants, earliest wins", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.CancelRequested{ID: id, Reason: "first"},
			&api.ScopeCancelled{ID: id, Scope: 1},
		)
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}

		arena := newScopeArena()
		child := arena.newScope(rootScope, false)

		mark, covered := cursor.effectiveCancel(arena, child)
		if !covered || mark.seq != 2 || mark.scope != rootScope {
			t.Errorf("want the root mark at seq 2, got %+v covered=%v", mark, covered)
		}
	})

	t.Run("mark for a scope not yet created is inert", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.ScopeCancelled{ID: id, Scope: 7},
		)
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}

		arena := newScopeArena()
		if _, covered := cursor.effectiveCancel(arena, rootScope); covered {
			t.Error("a mark on an unallocated scope cannot cover anything")
		}
	})

	t.Run("detached scope ignores root marks", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.CancelRequested{ID: id, Reason: "stop"},
		)
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}

		arena := newScopeArena()
		detached := arena.newScope(rootScope, true)

		if _, covered := cursor.effectiveCancel(arena, detached); covered {
			t.Error("detached scope must not observe the root cancellation")
		}
		if _, covered := cursor.effectiveCancel(arena, rootScope); !covered {
			t.Error("root itself is covered")
		}
	})

	t.Run("journal mark precedes an in-pass stamp", func(t *testing.T) {
		recs := journalOf(t,
			&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
			&api.CancelRequested{ID: id, Reason: "stop"},
		)
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}

		arena := newScopeArena()
		child := arena.newScope(rootScope, false)
		arena.cancel(child, pendingCancelSeq)

		mark, covered := cursor.effectiveCancel(arena, child)
		if !covered || mark.seq != 2 {
			t.Errorf("journal anchor must win over the pending stamp, got %+v", mark)
		}
	})

	t.Run("in-pass stamp alone covers", func(t *testing.T) {
		recs := journalOf(t, &api.ExecutionStarted{ID: id, WorkflowFnName: "greet"})
		cursor, err := buildCursor(serde.Msgpack{}, recs)
		if err != nil {
			t.Fatalf("buildCursor: %v", err)
		}

		arena := newScopeArena()
		child := arena.newScope(rootScope, false)
		arena.cancel(child, pendingCancelSeq)

		mark, covered := cursor.effectiveCancel(arena, child)
		if !covered || mark.seq != pendingCancelSeq || mark.scope != child {
			t.Errorf("want the stamp itself, got %+v covered=%v", mark, covered)
		}
	})
}

func TestResolveRacesBySequence(t *testing.T) {
	id := api.ExecutionID("exec-test")

	tests := []struct {
		name   string
		events []api.ExecutionEvent
		want   opState
	}{
		{
			name: "completion recorded before cancel wins",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
				&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
				&api.ActivityCompleted{ID: id, Op: 1, Result: []any{"done"}},
				&api.CancelRequested{ID: id, Reason: "late"},
			},
			want: opOutcome,
		},
		{
			name: "cancel recorded before completion wins",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
				&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
				&api.CancelRequested{ID: id, Reason: "early"},
				&api.ActivityCompleted{ID: id, Op: 1, Result: []any{"done"}},
			},
			want: opFault,
		},
		{
			name: "nothing recorded stays pending",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
				&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
			},
			want: opPending,
		},
		{
			name: "cancel alone faults the await",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{ID: id, WorkflowFnName: "greet"},
				&api.ActivityScheduled{ID: id, Op: 1, Scope: 0, ActivityFnName: "compose"},
				&api.CancelRequested{ID: id, Reason: "stop"},
			},
			want: opFault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor, err := buildCursor(serde.Msgpack{}, journalOf(t, tt.events...))
			if err != nil {
				t.Fatalf("buildCursor: %v", err)
			}
			decision := cursor.resolve(newScopeArena(), 1, rootScope)
			if decision.state != tt.want {
				t.Errorf("resolve state = %d, want %d", decision.state, tt.want)
			}
		})
	}
}
