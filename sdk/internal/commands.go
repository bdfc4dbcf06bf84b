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
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/canopy-run/canopy/api"
)

// requestStart sends a StartExecution command over request-reply and
// waits for the worker's reply.
func requestStart(ctx context.Context, c *Conn, attrs *api.StartExecutionAttributes) (*api.StartExecutionReply, error) {
	commandData, err := encodeCommand(c, api.StartExecutionCommand, attrs)
	if err != nil {
		return nil, err
	}

	reply, err := c.NC().RequestWithContext(ctx, api.CommandRequestStart, commandData)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("no workers available to start execution: %w", err)
		}
		return nil, fmt.Errorf("failed to send start execution request: %w", err)
	}

	var parsed api.StartExecutionReply
	if err := c.Decode(reply.Data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reply of start execution request: %w", err)
	}
	return &parsed, nil
}

// requestCancel sends a CancelExecution command over request-reply.
func requestCancel(ctx context.Context, c *Conn, attrs *api.CancelExecutionAttributes) (*api.CancelExecutionReply, error) {
	commandData, err := encodeCommand(c, api.CancelExecutionCommand, attrs)
	if err != nil {
		return nil, err
	}

	reply, err := c.NC().RequestWithContext(ctx, api.CommandRequestCancel, commandData)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("no workers available to cancel execution: %w", err)
		}
		return nil, fmt.Errorf("failed to send cancel execution request: %w", err)
	}

	var parsed api.CancelExecutionReply
	if err := c.Decode(reply.Data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse reply of cancel execution request: %w", err)
	}
	return &parsed, nil
}

func encodeCommand(c *Conn, typ api.CommandType, attrs any) ([]byte, error) {
	attrsBytes, err := c.Encode(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s attributes: %w", typ, err)
	}
	commandData, err := c.Encode(api.Command{CommandType: typ, Attributes: attrsBytes})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s command: %w", typ, err)
	}
	return commandData, nil
}
