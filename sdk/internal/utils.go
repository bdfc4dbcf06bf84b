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
	"runtime"
	"strings"
)

var (
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
	stdContextType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	workflowContextType = reflect.TypeOf((*Context)(nil)).Elem()
)

func defaultLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// extractFullFunctionName returns the import-path-qualified name of fn.
// Method values carry a "-fm" suffix which is stripped, so a bound method
// and the matching method expression resolve to the same name.
func extractFullFunctionName(fn any) (string, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return "", fmt.Errorf("not a function: %T", fn)
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "", fmt.Errorf("could not retrieve function metadata for %T", fn)
	}
	return strings.TrimSuffix(rf.Name(), "-fm"), nil
}

// functionName accepts either a registered name or a function reference.
// Cross-binary callers only know names; in-process callers pass the
// function itself.
func functionName(fn any) (string, error) {
	if name, ok := fn.(string); ok {
		if name == "" {
			return "", fmt.Errorf("empty function name")
		}
		return name, nil
	}
	return extractFullFunctionName(fn)
}

// splitResults separates a reflective call's return values into plain
// values plus the trailing error.
func splitResults(results []reflect.Value) ([]any, error) {
	if len(results) == 0 {
		return nil, nil
	}

	last := results[len(results)-1]
	var callErr error
	if last.Type().Implements(errorType) {
		if !last.IsNil() {
			callErr = last.Interface().(error)
		}
		results = results[:len(results)-1]
	}

	values := make([]any, 0, len(results))
	for _, r := range results {
		values = append(values, r.Interface())
	}
	return values, callErr
}
