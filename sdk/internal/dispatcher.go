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
	"fmt"
	"log/slog"
	"reflect"

	"golang.org/x/sync/semaphore"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

// Dispatcher executes one scheduled activity invocation. Execute blocks
// until the handler finishes and returns its non-error results; the
// runtime records the outcome, the dispatcher never touches the journal.
// Implementations may run handlers in-process or ship tasks elsewhere.
type Dispatcher interface {
	Execute(ctx context.Context, task *api.ActivityTask) ([]any, error)
}

// CancelForwarder is implemented by dispatchers that can push a
// best-effort cancellation signal to in-flight invocations. An in-flight
// invocation keeps whatever outcome lands in the journal either way; the
// default dispatcher deliberately does not implement it, matching the
// run-to-completion contract.
type CancelForwarder interface {
	ForwardCancel(id api.ExecutionID, op int64)
}

// ActivityInfo describes the invocation an activity handler is serving.
// It rides the handler's context; see ActivityInfoFrom.
type ActivityInfo struct {
	// ExecutionID identifies the hosting execution.
	ExecutionID string
	// Op is the journal operation counter of this invocation. Retries of
	// the same scheduled operation share it.
	Op int64
	// ActivityName is the registered name of the handler.
	ActivityName string
}

type activityInfoKey struct{}

func withActivityInfo(ctx context.Context, info ActivityInfo) context.Context {
	return context.WithValue(ctx, activityInfoKey{}, info)
}

// ActivityInfoFrom extracts invocation metadata from an activity handler
// context. It reports false when ctx does not belong to a dispatched
// activity.
func ActivityInfoFrom(ctx context.Context) (ActivityInfo, bool) {
	info, ok := ctx.Value(activityInfoKey{}).(ActivityInfo)
	return info, ok
}

var _ Dispatcher = (*localDispatcher)(nil)

// localDispatcher runs registered activity handlers in-process, bounded
// by a semaphore. The StartToClose budget arrives as the ctx deadline.
type localDispatcher struct {
	activities *registry
	conv       *serde.Converter
	slots      *semaphore.Weighted
	logger     *slog.Logger
}

func newLocalDispatcher(activities *registry, conv *serde.Converter, maxConcurrent int64, logger *slog.Logger) *localDispatcher {
	return &localDispatcher{
		activities: activities,
		conv:       conv,
		slots:      semaphore.NewWeighted(maxConcurrent),
		logger:     logger,
	}
}

func (d *localDispatcher) Execute(ctx context.Context, task *api.ActivityTask) (values []any, err error) {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.slots.Release(1)

	fn, ok := d.activities.get(task.ActivityFnName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActivityNotRegistered, task.ActivityFnName)
	}

	defer func() {
		if r := recover(); r != nil {
			values, err = nil, fmt.Errorf("activity %s panicked: %v", task.ActivityFnName, r)
		}
	}()

	fnV := reflect.ValueOf(fn)
	fnT := fnV.Type()

	paramTypes := make([]reflect.Type, 0, fnT.NumIn()-1)
	for i := 1; i < fnT.NumIn(); i++ {
		paramTypes = append(paramTypes, fnT.In(i))
	}
	converted, err := d.conv.ToTypes(task.Input, paramTypes)
	if err != nil {
		return nil, fmt.Errorf("decode input of %s: %w", task.ActivityFnName, err)
	}

	d.logger.Debug("activity invoke",
		"execution_id", task.ExecutionID,
		"op", task.Op,
		"activity", task.ActivityFnName)

	ctx = withActivityInfo(ctx, ActivityInfo{
		ExecutionID:  task.ExecutionID,
		Op:           task.Op,
		ActivityName: task.ActivityFnName,
	})
	args := append([]reflect.Value{reflect.ValueOf(ctx)}, converted...)
	return splitResults(fnV.Call(args))
}
