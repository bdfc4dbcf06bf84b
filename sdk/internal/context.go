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
	"time"

	"github.com/canopy-run/canopy/api"
)

// Context is the deterministic context workflow code runs under. It is
// bound to one cancellation scope; child scopes get their own Context.
// All blocking goes through it, so re-executing the same code against the
// same journal reaches the same state.
type Context interface {
	context.Context

	// ExecuteActivity schedules an activity invocation under this
	// context's scope. activityFn is a registered function, a bound
	// method, or its registered name.
	ExecuteActivity(activityFn any, args ...any) Future

	// Sleep schedules a durable timer and blocks until it fires. It
	// returns a *CancelledError when the scope is cancelled before the
	// timer's recorded firing.
	Sleep(d time.Duration) error

	// NewScope creates a child cancellation scope. The CancelFunc cancels
	// it explicitly; cancelling a parent reaches every transitive child
	// except detached ones. A detached child outlives its ancestors'
	// cancellation and is used for compensation work.
	NewScope(detached bool) (Context, CancelFunc)

	// IsCancelled reports whether this scope's cancellation has been
	// delivered. Delivery happens at suspension boundaries only, so the
	// answer is stable across replays.
	IsCancelled() bool

	// ID is the hosting execution's id.
	ID() api.ExecutionID

	// WorkflowName is the registered name of the running workflow.
	WorkflowName() string

	// WithValue derives a context carrying a value, sharing this scope.
	WithValue(key any, value any) Context
}

// CancelFunc cancels the scope it was created with. Idempotent.
type CancelFunc func()

var _ Context = (*passContext)(nil)

// passContext is the live Context of one pass. The passState is shared
// by every scope's context; the scope id is what differs.
type passContext struct {
	context.Context
	pass  *passState
	scope int
}

func (c *passContext) ID() api.ExecutionID {
	return c.pass.executionID
}

func (c *passContext) WorkflowName() string {
	return c.pass.workflowName
}

func (c *passContext) ExecuteActivity(activityFn any, args ...any) Future {
	name, err := functionName(activityFn)
	if err != nil {
		return c.pass.failedFuture(err)
	}
	return c.pass.scheduleActivity(c.scope, name, getActivityOptions(c), args)
}

func (c *passContext) Sleep(d time.Duration) error {
	return c.pass.scheduleTimer(c.scope, d).wait()
}

func (c *passContext) NewScope(detached bool) (Context, CancelFunc) {
	id := c.pass.arena.newScope(c.scope, detached)
	child := &passContext{Context: c.Context, pass: c.pass, scope: id}
	return child, func() { c.pass.cancelScope(id) }
}

func (c *passContext) IsCancelled() bool {
	return c.pass.arena.isCancelled(c.scope)
}

func (c *passContext) WithValue(key any, value any) Context {
	return &passContext{
		Context: context.WithValue(c.Context, key, value),
		pass:    c.pass,
		scope:   c.scope,
	}
}
