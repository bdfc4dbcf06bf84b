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
	"time"

	"github.com/canopy-run/canopy/sdk/internal"
)

// Context is the workflow execution context that provides deterministic
// guarantees.
//
// Context extends context.Context with workflow-specific operations. All
// workflow operations must go through this context so replay observes the
// same decisions in the same order.
//
// Important: Workflow code must be deterministic. Do not:
//   - Perform I/O operations directly
//   - Generate random numbers
//   - Access current time directly (use workflow.Sleep for delays)
//   - Use goroutines
//
// Use activities for all non-deterministic operations.
type Context = internal.Context

// CancelFunc cancels the scope it was created with. Calling it more than
// once has no further effect.
type CancelFunc = internal.CancelFunc

// ExecuteActivity schedules the execution of an activity function and
// returns a Future for its result.
//
// The activityFn must be registered with the worker; args must be
// serializable. Inside a cancelled scope the returned Future fails
// immediately with *CancelledError without dispatching anything.
func ExecuteActivity(ctx Context, activityFn any, args ...any) Future {
	return ctx.ExecuteActivity(activityFn, args...)
}

// Sleep pauses the workflow for at least d without occupying a goroutine
// while suspended. It returns *CancelledError if the surrounding scope is
// cancelled before the timer fires.
func Sleep(ctx Context, d time.Duration) error {
	return ctx.Sleep(d)
}

// WithCancelScope returns a child scope and its cancel function.
// Cancelling the scope delivers *CancelledError to every operation
// awaited under it; operations in other scopes are unaffected.
//
//	scoped, cancel := workflow.WithCancelScope(ctx)
//	f1 := workflow.ExecuteActivity(scoped, First)
//	f2 := workflow.ExecuteActivity(scoped, Second)
//	cancel() // both futures now fail with *CancelledError
func WithCancelScope(ctx Context) (Context, CancelFunc) {
	return ctx.NewScope(false)
}

// NewDetachedScope returns a scope that does not inherit cancellation
// from its parent. Operations scheduled under it proceed even while the
// surrounding execution is cancelled, which is how cleanup work runs
// inside a cancellation handler.
func NewDetachedScope(ctx Context) (Context, CancelFunc) {
	return ctx.NewScope(true)
}

// Detached runs fn inside a detached scope. It is shorthand for the
// cleanup-after-cancellation pattern:
//
//	if workflow.IsCancelledError(err) {
//		workflow.Detached(ctx, func(dctx workflow.Context) error {
//			var bye string
//			return workflow.ExecuteActivity(dctx, SayGoodbye, name).Get(dctx, &bye)
//		})
//		return "", err
//	}
func Detached(ctx Context, fn func(Context) error) error {
	dctx, _ := ctx.NewScope(true)
	return fn(dctx)
}

// IsCancelled reports whether the scope carried by ctx is cancelled,
// directly or through an ancestor. It flips only at the await points
// where cancellation is delivered, so reading it is replay-safe.
func IsCancelled(ctx Context) bool {
	return ctx.IsCancelled()
}
