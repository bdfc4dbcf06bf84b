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
	"reflect"

	"github.com/canopy-run/canopy/api/serde"
)

// Future is the result of an activity invocation. Get blocks workflow
// code until the operation has a recorded outcome; on replay the outcome
// is served from the journal without re-running the activity.
type Future interface {
	// Get decodes the first result value into valuePtr (which may be nil
	// to discard it) and returns the operation's error, if any. The error
	// is a *CancelledError when an effective cancellation preceded the
	// outcome, a *TimeoutError when a timeout was recorded first, and an
	// *ActivityError for handler failures.
	Get(ctx context.Context, valuePtr any) error

	// IsReady reports whether Get returns without blocking.
	IsReady() bool
}

var _ Future = (*futureState)(nil)

// futureState is decided entirely during the pass that created it: either
// the history cursor already resolved the operation, or the future stays
// pending and Get parks the execution.
type futureState struct {
	op   int64
	name string
	conv *serde.Converter

	resolved bool
	values   []any
	err      error
}

func (f *futureState) IsReady() bool {
	return f.resolved
}

// Get parks the execution by panicking errorBlockingFuture when the
// operation is still pending; the pass runner recovers it and the pump
// re-runs the workflow once an event lands. The panic is the yield of
// the workflow coroutine, it never escapes the runtime.
func (f *futureState) Get(_ context.Context, valuePtr any) error {
	if !f.resolved {
		panic(errorBlockingFuture{})
	}
	if f.err != nil {
		return f.err
	}
	if valuePtr == nil || len(f.values) == 0 {
		return nil
	}
	if err := decodeInto(f.conv, f.values[0], valuePtr); err != nil {
		return fmt.Errorf("decode result of %s: %w", f.name, err)
	}
	return nil
}

// wait is Get for operations awaited inline, like timers.
func (f *futureState) wait() error {
	if !f.resolved {
		panic(errorBlockingFuture{})
	}
	return f.err
}

// decodeInto converts a journal value (whose concrete type depends on the
// codec) into the pointed-to target type.
func decodeInto(conv *serde.Converter, value any, into any) error {
	rv := reflect.ValueOf(into)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", into)
	}
	converted, err := conv.ToType(value, rv.Elem().Type())
	if err != nil {
		return err
	}
	rv.Elem().Set(converted)
	return nil
}
