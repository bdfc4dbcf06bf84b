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

// Package engine embeds the execution engine in a single process.
//
// The embedded engine runs workflows against any journal.Store without a
// worker or a NATS deployment, which makes it the natural harness for
// tests and for single-binary setups:
//
//	eng, err := engine.New(engine.Options{Store: journal.NewMemoryStore(nil)})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.RegisterWorkflow(GreetingWorkflow)
//	eng.RegisterActivity(acts.ComposeGreeting)
//
//	id, err := eng.StartExecution(ctx, GreetingWorkflow, "World")
//	if err != nil {
//		log.Fatal(err)
//	}
//	var greeting string
//	if err := eng.GetResult(ctx, id, &greeting); err != nil {
//		log.Fatal(err)
//	}
//
// Backed by a JetStream store, the same engine is what a worker runs
// internally; the worker adds only the command surface around it.
package engine

import "github.com/canopy-run/canopy/sdk/internal"

// Engine hosts executions in-process.
type Engine = internal.Runtime

// Options configure an Engine. Store is required; everything else has
// defaults.
type Options = internal.Options

// Dispatcher executes scheduled activities. Provide one to route
// activities somewhere other than the engine's own registry.
type Dispatcher = internal.Dispatcher

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	return internal.NewRuntime(opts)
}
