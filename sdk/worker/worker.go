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

package worker

import (
	"context"

	"github.com/canopy-run/canopy/sdk/client"
	"github.com/canopy-run/canopy/sdk/internal"
)

// Worker hosts workflow executions and runs their activities.
//
// A worker joins the command queue group, accepts start and cancel
// commands, pumps the executions it accepted against their JetStream
// journals and publishes terminal results. Workflows and activities must
// be registered before Run.
//
// Example:
//
//	w, err := worker.NewWorker(c, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	w.RegisterWorkflow(GreetingWorkflow)
//	w.RegisterActivity(acts.ComposeGreeting)
//
//	if err := w.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
type Worker interface {
	Registry
	// Run provisions the JetStream resources, serves commands and blocks
	// until the context is cancelled.
	Run(ctx context.Context) error
}

// Registry combines workflow and activity registration interfaces.
type Registry interface {
	WorkflowRegistry
	ActivityRegistry
}

// WorkflowRegistry provides methods for registering workflow functions.
//
// The workflow function signature is: func(workflow.Context, ...args) (result, error)
type WorkflowRegistry = internal.WorkflowRegistry

// ActivityRegistry provides methods for registering activity functions.
//
// The activity function signature is: func(context.Context, ...args) (result, error)
type ActivityRegistry = internal.ActivityRegistry

// Options contains configuration for creating a new Worker.
type Options = internal.WorkerOptions

// NewWorker creates a new Worker sharing the client's NATS connection.
func NewWorker(c client.Client, options *Options) (Worker, error) {
	return internal.NewWorker(c, options)
}
