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
	"errors"
	"fmt"
	"time"
)

var (
	// ErrExecutionNotFound is returned for operations on an execution with
	// no journal.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrExecutionAlreadyStarted is returned when starting an execution id
	// that already has a journal or is live on this runtime.
	ErrExecutionAlreadyStarted = errors.New("execution already started")

	// ErrWorkflowNotRegistered is returned when a workflow function is not
	// registered with the runtime.
	ErrWorkflowNotRegistered = errors.New("workflow not registered")

	// ErrActivityNotRegistered is returned when an activity function is not
	// registered with the runtime.
	ErrActivityNotRegistered = errors.New("activity not registered")

	// ErrInvalidWorkflowFunction is returned when registering a workflow
	// whose signature the runtime cannot call.
	ErrInvalidWorkflowFunction = errors.New("invalid workflow function")

	// ErrInvalidActivityFunction is returned when registering an activity
	// whose signature the runtime cannot call.
	ErrInvalidActivityFunction = errors.New("invalid activity function")

	// ErrRuntimeClosed is returned when the runtime is shutting down.
	ErrRuntimeClosed = errors.New("runtime is closed")
)

// CancelledError is delivered at suspension boundaries of a cancelled
// scope, and returned from getResult when an execution ends cancelled.
// It is a return value, never a panic.
type CancelledError struct {
	// Scope that was cancelled; 0 is the execution's root scope.
	Scope  int
	Reason string
}

func (e *CancelledError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cancelled: %s", e.Reason)
	}
	return "cancelled"
}

func NewCancelledError(scope int, reason string) *CancelledError {
	return &CancelledError{Scope: scope, Reason: reason}
}

// IsCancelledError reports whether err carries a CancelledError.
func IsCancelledError(err error) bool {
	var ce *CancelledError
	return errors.As(err, &ce)
}

// TimeoutError is delivered when an operation exceeded one of its timeouts.
// A timed-out await never reports CancelledError.
type TimeoutError struct {
	TimeoutType string // "ScheduleToClose" or "StartToClose"
	Duration    time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timeout after %s", e.TimeoutType, e.Duration)
}

func NewTimeoutError(timeoutType string, d time.Duration) *TimeoutError {
	return &TimeoutError{TimeoutType: timeoutType, Duration: d}
}

// ActivityError wraps a failure returned by an activity handler.
type ActivityError struct {
	ActivityName string
	ExecutionID  string
	Cause        error
}

func (e *ActivityError) Error() string {
	return fmt.Sprintf("activity %s failed: %v", e.ActivityName, e.Cause)
}

func (e *ActivityError) Unwrap() error {
	return e.Cause
}

// ReplayMismatchError means the workflow code and the recorded journal
// disagree: the schedule produced on replay diverged from history. The
// execution fails; it never limps along on a wrong history.
type ReplayMismatchError struct {
	Op     int64
	Detail string
}

func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("replay mismatch at op %d: %s", e.Op, e.Detail)
}

// StorageError wraps journal failures. The execution fails locally; the
// journal itself is never rewritten.
type StorageError struct {
	Op    string // "append" or "load"
	Cause error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("journal %s failed: %v", e.Op, e.Cause)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// PanicError carries a panic raised by workflow code, with the stack at
// the point of panic.
type PanicError struct {
	Value any
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("workflow panic: %v\nStack: %s", e.Value, e.Stack)
}

// WorkflowExecutionError is what a client observes when an execution
// failed and only the recorded message is available.
type WorkflowExecutionError struct {
	ExecutionID string
	Message     string
}

func (e *WorkflowExecutionError) Error() string {
	return fmt.Sprintf("execution %s failed: %s", e.ExecutionID, e.Message)
}

// errorBlockingFuture is panicked when Get is called on an unresolved
// future. The pass runner recovers it and parks the execution until an
// event resolves the operation; the panic is the yield of the coroutine.
type errorBlockingFuture struct{}

func (errorBlockingFuture) Error() string { return "blocking_future" }

// replayMismatchSignal carries a ReplayMismatchError out of workflow code
// through a panic, since schedule matching happens inside calls that do
// not return errors.
type replayMismatchSignal struct {
	err *ReplayMismatchError
}
