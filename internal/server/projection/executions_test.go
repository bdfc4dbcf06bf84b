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

package projection

import (
	"testing"
	"time"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

func newTestProjection() *Executions {
	return NewExecutions(serde.Msgpack{}, nil)
}

func TestExecutions_FoldLifecycle(t *testing.T) {
	tests := []struct {
		name       string
		events     []api.ExecutionEvent
		wantStatus api.Status
		wantError  string
		wantReason string
	}{
		{
			name: "started is running",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{WorkflowFnName: "Greet"},
			},
			wantStatus: api.StatusRunning,
		},
		{
			name: "completed",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{WorkflowFnName: "Greet"},
				&api.ActivityScheduled{Op: 1, ActivityFnName: "Compose"},
				&api.ActivityCompleted{Op: 1, ActivityFnName: "Compose"},
				&api.ExecutionCompleted{},
			},
			wantStatus: api.StatusCompleted,
		},
		{
			name: "cancel requested then cancelled",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{WorkflowFnName: "Greet"},
				&api.CancelRequested{Reason: "operator"},
				&api.ExecutionCancelled{Reason: "operator"},
			},
			wantStatus: api.StatusCancelled,
			wantReason: "operator",
		},
		{
			name: "failed keeps error",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{WorkflowFnName: "Greet"},
				&api.ActivityFailed{Op: 1, Error: "boom"},
				&api.ExecutionFailed{Error: "boom"},
			},
			wantStatus: api.StatusFailed,
			wantError:  "boom",
		},
		{
			name: "late cancel request does not reopen terminal",
			events: []api.ExecutionEvent{
				&api.ExecutionStarted{WorkflowFnName: "Greet"},
				&api.ExecutionCompleted{},
				&api.CancelRequested{Reason: "too late"},
			},
			wantStatus: api.StatusCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProjection()
			id := api.ExecutionID("exec-1")
			at := time.Now()
			for _, ev := range tt.events {
				p.Apply(id, ev, at)
				at = at.Add(time.Millisecond)
			}

			row, ok := p.Get(id)
			if !ok {
				t.Fatal("Get() returned no row")
			}
			if row.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", row.Status, tt.wantStatus)
			}
			if row.Error != tt.wantError {
				t.Errorf("Error = %q, want %q", row.Error, tt.wantError)
			}
			if tt.wantReason != "" && row.CancelReason != tt.wantReason {
				t.Errorf("CancelReason = %q, want %q", row.CancelReason, tt.wantReason)
			}
			if row.Events != len(tt.events) {
				t.Errorf("Events = %d, want %d", row.Events, len(tt.events))
			}
			if row.Workflow != "Greet" {
				t.Errorf("Workflow = %q, want %q", row.Workflow, "Greet")
			}
		})
	}
}

func TestExecutions_ListOrder(t *testing.T) {
	p := newTestProjection()
	base := time.Now()

	p.Apply("older", &api.ExecutionStarted{WorkflowFnName: "A"}, base)
	p.Apply("newer", &api.ExecutionStarted{WorkflowFnName: "B"}, base.Add(time.Second))

	got := p.List()
	if len(got) != 2 {
		t.Fatalf("List() returned %d rows, want 2", len(got))
	}
	if got[0].ID != "newer" || got[1].ID != "older" {
		t.Errorf("List() order = [%s, %s], want [newer, older]", got[0].ID, got[1].ID)
	}
}

func TestExecutions_GetUnknown(t *testing.T) {
	p := newTestProjection()
	if _, ok := p.Get("nope"); ok {
		t.Error("Get() of unknown execution returned ok")
	}
}
