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

package api

type ExecutionID string

func (id ExecutionID) String() string { return string(id) }

// ExecutionEvent is the closed set of events recorded in an execution's
// journal. Replay feeds workflow code from these instead of re-executing
// side effects.
type ExecutionEvent interface {
	EventName() string

	isExecutionEvent()
}

var _ ExecutionEvent = (*ExecutionStarted)(nil)
var _ ExecutionEvent = (*ActivityScheduled)(nil)
var _ ExecutionEvent = (*ActivityCompleted)(nil)
var _ ExecutionEvent = (*ActivityFailed)(nil)
var _ ExecutionEvent = (*ActivityTimedOut)(nil)
var _ ExecutionEvent = (*TimerScheduled)(nil)
var _ ExecutionEvent = (*TimerFired)(nil)
var _ ExecutionEvent = (*CancelRequested)(nil)
var _ ExecutionEvent = (*ScopeCancelled)(nil)
var _ ExecutionEvent = (*ExecutionCompleted)(nil)
var _ ExecutionEvent = (*ExecutionCancelled)(nil)
var _ ExecutionEvent = (*ExecutionFailed)(nil)

// -- Execution Started Event --
type ExecutionStarted struct {
	ID ExecutionID `json:"id"`

	WorkflowFnName string `json:"name"`
	Input          []any  `json:"input"`
}

func (*ExecutionStarted) EventName() string { return "execution/started" }
func (*ExecutionStarted) isExecutionEvent() {}

// -- Activity Scheduled Event --
//
// Op is the operation's deterministic sequence number, assigned in code
// order during the pass that first scheduled it.
type ActivityScheduled struct {
	ID ExecutionID `json:"id"`

	Op             int64  `json:"op"`
	Scope          int    `json:"scope"`
	ActivityFnName string `json:"name"`
	Input          []any  `json:"input"`

	ScheduleToCloseMs int64 `json:"sched_to_close_ms,omitempty"`
	StartToCloseMs    int64 `json:"start_to_close_ms,omitempty"`
}

func (*ActivityScheduled) EventName() string { return "activity/scheduled" }
func (*ActivityScheduled) isExecutionEvent() {}

// -- Activity Completed Event --
type ActivityCompleted struct {
	ID ExecutionID `json:"id"`

	Op             int64  `json:"op"`
	ActivityFnName string `json:"name"`
	Result         []any  `json:"result"`
}

func (*ActivityCompleted) EventName() string { return "activity/completed" }
func (*ActivityCompleted) isExecutionEvent() {}

// -- Activity Failed Event --
type ActivityFailed struct {
	ID ExecutionID `json:"id"`

	Op             int64  `json:"op"`
	ActivityFnName string `json:"name"`
	Error          string `json:"error"`
}

func (*ActivityFailed) EventName() string { return "activity/failed" }
func (*ActivityFailed) isExecutionEvent() {}

// -- Activity Timed Out Event --
type ActivityTimedOut struct {
	ID ExecutionID `json:"id"`

	Op             int64  `json:"op"`
	ActivityFnName string `json:"name"`
	TimeoutType    string `json:"timeout_type"`
	TimeoutMs      int64  `json:"timeout_ms"`
}

func (*ActivityTimedOut) EventName() string { return "activity/timedout" }
func (*ActivityTimedOut) isExecutionEvent() {}

// -- Timer Scheduled Event --
//
// FireAtUnixMs is the absolute deadline computed when the timer was first
// scheduled. Resume re-arms from it; workflow code never reads it.
type TimerScheduled struct {
	ID ExecutionID `json:"id"`

	Op           int64 `json:"op"`
	Scope        int   `json:"scope"`
	DurationMs   int64 `json:"duration_ms"`
	FireAtUnixMs int64 `json:"fire_at_unix_ms"`
}

func (*TimerScheduled) EventName() string { return "timer/scheduled" }
func (*TimerScheduled) isExecutionEvent() {}

// -- Timer Fired Event --
type TimerFired struct {
	ID ExecutionID `json:"id"`

	Op int64 `json:"op"`
}

func (*TimerFired) EventName() string { return "timer/fired" }
func (*TimerFired) isExecutionEvent() {}

// -- Cancel Requested Event --
//
// External cancellation of the whole execution. Targets the root scope;
// its journal sequence anchors which pending operations observe it.
type CancelRequested struct {
	ID ExecutionID `json:"id"`

	Reason string `json:"reason,omitempty"`
}

func (*CancelRequested) EventName() string { return "execution/cancel-requested" }
func (*CancelRequested) isExecutionEvent() {}

// -- Scope Cancelled Event --
//
// Code-initiated cancellation of a single scope, recorded so replay anchors
// it at the same journal position.
type ScopeCancelled struct {
	ID ExecutionID `json:"id"`

	Scope int `json:"scope"`
}

func (*ScopeCancelled) EventName() string { return "scope/cancelled" }
func (*ScopeCancelled) isExecutionEvent() {}

// -- Execution Completed --
type ExecutionCompleted struct {
	ID ExecutionID `json:"id"`

	Result []any `json:"result"`
}

func (*ExecutionCompleted) EventName() string { return "execution/completed" }
func (*ExecutionCompleted) isExecutionEvent() {}

// -- Execution Cancelled --
type ExecutionCancelled struct {
	ID ExecutionID `json:"id"`

	Reason string `json:"reason,omitempty"`
}

func (*ExecutionCancelled) EventName() string { return "execution/cancelled" }
func (*ExecutionCancelled) isExecutionEvent() {}

// -- Execution Failed --
type ExecutionFailed struct {
	ID ExecutionID `json:"id"`

	Error string `json:"error"`
}

func (*ExecutionFailed) EventName() string { return "execution/failed" }
func (*ExecutionFailed) isExecutionEvent() {}

// EventFactories maps event names to constructors of the concrete types.
// Journal decoding uses it to rebuild typed events from stored records.
func EventFactories() map[string]func() ExecutionEvent {
	return map[string]func() ExecutionEvent{
		(&ExecutionStarted{}).EventName():   func() ExecutionEvent { return &ExecutionStarted{} },
		(&ActivityScheduled{}).EventName():  func() ExecutionEvent { return &ActivityScheduled{} },
		(&ActivityCompleted{}).EventName():  func() ExecutionEvent { return &ActivityCompleted{} },
		(&ActivityFailed{}).EventName():     func() ExecutionEvent { return &ActivityFailed{} },
		(&ActivityTimedOut{}).EventName():   func() ExecutionEvent { return &ActivityTimedOut{} },
		(&TimerScheduled{}).EventName():     func() ExecutionEvent { return &TimerScheduled{} },
		(&TimerFired{}).EventName():         func() ExecutionEvent { return &TimerFired{} },
		(&CancelRequested{}).EventName():    func() ExecutionEvent { return &CancelRequested{} },
		(&ScopeCancelled{}).EventName():     func() ExecutionEvent { return &ScopeCancelled{} },
		(&ExecutionCompleted{}).EventName(): func() ExecutionEvent { return &ExecutionCompleted{} },
		(&ExecutionCancelled{}).EventName(): func() ExecutionEvent { return &ExecutionCancelled{} },
		(&ExecutionFailed{}).EventName():    func() ExecutionEvent { return &ExecutionFailed{} },
	}
}
