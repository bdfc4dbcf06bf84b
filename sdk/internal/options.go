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

import "time"

// ActivityOptionsKey addresses the options carried on a workflow context.
const ActivityOptionsKey = "github.com/canopy-run/canopy/sdk/workflow.ActivityOptions"

// ActivityOptions bound the activity invocations scheduled through the
// context carrying them. A zero timeout means unlimited.
type ActivityOptions struct {
	// ScheduleToCloseTimeout caps the total time from the schedule record
	// to a recorded outcome. When it elapses first the await observes a
	// TimeoutError, never a CancelledError.
	ScheduleToCloseTimeout time.Duration

	// StartToCloseTimeout caps a single invocation attempt once a
	// dispatcher picks the task up.
	StartToCloseTimeout time.Duration
}

// WithActivityOptions returns a context whose activity invocations use
// opts. Scope and operation numbering are shared with the parent.
func WithActivityOptions(ctx Context, opts ActivityOptions) Context {
	return ctx.WithValue(ActivityOptionsKey, opts)
}

func getActivityOptions(ctx Context) ActivityOptions {
	val := ctx.Value(ActivityOptionsKey)
	if val == nil {
		return ActivityOptions{}
	}
	opts, ok := val.(ActivityOptions)
	if !ok {
		return ActivityOptions{}
	}
	return opts
}
