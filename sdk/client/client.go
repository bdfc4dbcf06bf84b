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

package client

import "github.com/canopy-run/canopy/sdk/internal"

// Client is the interface for starting, cancelling and observing Canopy
// executions.
//
// A client talks to workers over NATS: commands go through request-reply,
// results come back through the result bucket.
//
// Example:
//
//	c, err := client.NewClient(&client.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
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
type Client = internal.Client

// Options contains configuration for creating a new Client.
//
// All fields are optional: a nil Config loads defaults from the
// environment, a nil Conn dials NATS with that config.
type Options = internal.ClientOptions

// Handle refers to one started execution. Its Get method blocks until the
// execution is terminal; a cancelled execution yields
// *workflow.CancelledError, a failed one an error carrying the recorded
// message.
type Handle = internal.Handle

// NewClient creates a new Client with the provided Options. Passing nil
// uses environment defaults.
func NewClient(options *Options) (Client, error) {
	return internal.NewClient(options)
}
