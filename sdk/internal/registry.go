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
	"fmt"
	"reflect"
	"sync"
)

// registry maps registered function names to the functions themselves.
// Workflows and activities get one each; names come from reflection so
// registration and invocation agree without string constants.
type registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]any)}
}

func (r *registry) set(name string, fn any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%q is already registered", name)
	}
	r.entries[name] = fn
	return nil
}

func (r *registry) get(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.entries[name]
	return fn, ok
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// validateWorkflowFn checks the shape the pass runner can call: a
// non-variadic func(Context, ...) with a trailing error result, and at
// most one value result ahead of it.
func validateWorkflowFn(fn any) (string, error) {
	name, t, err := callableName(fn)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWorkflowFunction, err)
	}
	if t.NumIn() < 1 || t.In(0) != workflowContextType {
		return "", fmt.Errorf("%w: %s must take workflow.Context as its first parameter", ErrInvalidWorkflowFunction, name)
	}
	if err := validateResults(t); err != nil {
		return "", fmt.Errorf("%w: %s %v", ErrInvalidWorkflowFunction, name, err)
	}
	return name, nil
}

// validateActivityFn checks the dispatcher-callable shape: a non-variadic
// func(context.Context, ...) with a trailing error result.
func validateActivityFn(fn any) (string, error) {
	name, t, err := callableName(fn)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidActivityFunction, err)
	}
	if t.NumIn() < 1 || t.In(0) != stdContextType {
		return "", fmt.Errorf("%w: %s must take context.Context as its first parameter", ErrInvalidActivityFunction, name)
	}
	if err := validateResults(t); err != nil {
		return "", fmt.Errorf("%w: %s %v", ErrInvalidActivityFunction, name, err)
	}
	return name, nil
}

func callableName(fn any) (string, reflect.Type, error) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, fmt.Errorf("not a function: %T", fn)
	}
	if t.IsVariadic() {
		return "", nil, fmt.Errorf("variadic functions are not supported")
	}
	name, err := extractFullFunctionName(fn)
	if err != nil {
		return "", nil, err
	}
	return name, t, nil
}

func validateResults(t reflect.Type) error {
	if t.NumOut() < 1 || t.NumOut() > 2 {
		return fmt.Errorf("must return error or (value, error)")
	}
	if t.Out(t.NumOut()-1) != errorType {
		return fmt.Errorf("must return error as its last result")
	}
	return nil
}
