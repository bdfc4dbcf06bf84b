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

// Package client provides the client for interacting with Canopy executions.
//
// The client starts executions, requests their cancellation and waits for
// results.
//
// # Creating a Client
//
// With no options the client dials NATS using environment defaults
// (NATS_URL, NATS_HOST, NATS_PORT):
//
//	c, err := client.NewClient(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
// An established connection can be adopted instead:
//
//	c, err := client.NewClient(&client.Options{Conn: nc})
//
// # Starting Executions
//
// StartExecution sends the command to the worker queue group and returns
// a Handle once a worker accepted it:
//
//	handle, err := c.StartExecution(ctx, GreetingWorkflow, "World")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var greeting string
//	if err := handle.Get(ctx, &greeting); err != nil {
//		log.Fatal(err)
//	}
//
// The workflow argument may be the function itself (when the client binary
// links the workflow definitions) or its registered name.
//
// # Cancellation
//
// CancelExecution requests cancellation; it returns once the request is
// recorded, not once the execution finished:
//
//	if err := c.CancelExecution(ctx, handle.ID, "user clicked stop"); err != nil {
//		log.Fatal(err)
//	}
//
//	err := handle.Get(ctx, nil)         // blocks until terminal
//	if workflow.IsCancelledError(err) { // cancelled, cleanup already ran
//		...
//	}
package client
