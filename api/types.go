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

// Status of an execution as observed through the client API.
type Status string

const (
	StatusRunning    Status = "Running"
	StatusCancelling Status = "Cancelling"
	StatusCancelled  Status = "Cancelled"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// Terminal reports whether no further events may be appended for an
// execution in this status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Timeout types recorded on ActivityTimedOut events.
const (
	// TimeoutScheduleToClose bounds schedule to outcome, wall clock.
	TimeoutScheduleToClose = "ScheduleToClose"
	// TimeoutStartToClose bounds a single handler invocation.
	TimeoutStartToClose = "StartToClose"
)

type CommandType string

const (
	StartExecutionCommand  CommandType = "StartExecution"
	CancelExecutionCommand CommandType = "CancelExecution"
)

type (
	Command struct {
		CommandType CommandType `json:"type"`
		Attributes  []byte      `json:"attributes"`
	}

	StartExecutionAttributes struct {
		// ExecutionID is optional; the worker generates one when empty.
		ExecutionID    string `json:"execution_id,omitempty"`
		WorkflowFnName string `json:"workflow_fn_name"`
		Input          []any  `json:"input"`
	}

	StartExecutionReply struct {
		Error       string `json:"error,omitempty"`
		ExecutionID string `json:"execution_id"`
	}

	CancelExecutionAttributes struct {
		ExecutionID string `json:"execution_id"`
		Reason      string `json:"reason,omitempty"`
	}

	CancelExecutionReply struct {
		Error string `json:"error,omitempty"`
	}
)

// ActivityTask is handed to an activity dispatcher. The workflow side only
// ever sees the recorded events; the task is the dispatch-side view.
type ActivityTask struct {
	ExecutionID    string `json:"execution_id"`
	Op             int64  `json:"op"`
	ActivityFnName string `json:"name"`
	Input          []any  `json:"input"`

	StartToCloseMs int64 `json:"start_to_close_ms,omitempty"`
}

// ExecutionResult is the terminal outcome published to the result bucket
// for clients awaiting getResult.
type ExecutionResult struct {
	ExecutionID string `json:"execution_id"`
	Status      Status `json:"status"`
	Result      []any  `json:"result,omitempty"`
	Error       string `json:"error,omitempty"`
}
