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

package workflow

import (
	"github.com/canopy-run/canopy/sdk/internal"
)

var (
	// ErrActivityNotRegistered is returned when a scheduled activity is not
	// registered with the worker executing it.
	ErrActivityNotRegistered = internal.ErrActivityNotRegistered

	// ErrInvalidActivityFunction is returned when the provided activity
	// function reference is invalid.
	ErrInvalidActivityFunction = internal.ErrInvalidActivityFunction

	// ErrInvalidWorkflowFunction is returned when the provided workflow
	// function reference is invalid.
	ErrInvalidWorkflowFunction = internal.ErrInvalidWorkflowFunction
)

// CancelledError is delivered to operations whose scope was cancelled and
// returned by executions that finish cancelled. Returning it (or an error
// wrapping it) from a workflow records the execution as Cancelled rather
// than Failed.
type CancelledError = internal.CancelledError

// NewCancelledError builds a CancelledError with the given reason, for
// workflows that decide to cancel themselves. The error carries the root
// scope, so the execution records as Cancelled when it is returned.
func NewCancelledError(reason string) *CancelledError {
	return internal.NewCancelledError(0, reason)
}

// IsCancelledError reports whether err is, or wraps, a *CancelledError.
// Cancellation handlers branch on it:
//
//	err := workflow.ExecuteActivity(ctx, Work).Get(ctx, &out)
//	if workflow.IsCancelledError(err) {
//		// run cleanup in a detached scope, then give the error back
//		return "", err
//	}
func IsCancelledError(err error) bool {
	return internal.IsCancelledError(err)
}

// TimeoutError resolves a Future whose activity exceeded one of its
// configured timeouts. TimeoutType names which one.
type TimeoutError = internal.TimeoutError

// ActivityError wraps a failure returned by an activity handler. Unwrap
// yields the handler's error message.
type ActivityError = internal.ActivityError

// PanicError captures a panic raised by workflow code, with the stack at
// the panic site. The execution records it as a failure.
type PanicError = internal.PanicError
