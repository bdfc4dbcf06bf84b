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
	"time"

	"github.com/nats-io/nats.go"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
	sdkconfig "github.com/canopy-run/canopy/sdk/config"
)

var _ Client = (*clientImpl)(nil)

type (
	// Client starts, cancels and observes executions hosted by workers.
	Client interface {
		// StartExecution starts an execution of workflowFn with a
		// worker-generated id.
		StartExecution(ctx context.Context, workflowFn any, args ...any) (*Handle, error)
		// StartExecutionWithID starts an execution under a caller-chosen id.
		// Reusing the id of an existing execution fails.
		StartExecutionWithID(ctx context.Context, id api.ExecutionID, workflowFn any, args ...any) (*Handle, error)
		// CancelExecution requests cancellation of a running execution.
		CancelExecution(ctx context.Context, id api.ExecutionID, reason string) error
		// GetResult blocks until the execution reaches a terminal state and
		// decodes its result into valuePtr.
		GetResult(ctx context.Context, id api.ExecutionID, valuePtr any) error
		// Close releases the NATS connection if the client owns it.
		Close()

		// Accessors to underlying components, not exposed for public consumption
		getConn() *Conn
		getConverter() *serde.Converter
		getLogger() *slog.Logger
	}

	ClientOptions struct {
		// Config supplies connection parameters. Nil loads defaults from the
		// environment.
		Config *sdkconfig.Config
		// Conn, when set, is adopted instead of dialing Config. The caller
		// keeps ownership; Close will not close it.
		Conn   *nats.Conn
		Codec  serde.Codec
		Logger *slog.Logger
	}
)

type clientImpl struct {
	conn      *Conn
	converter *serde.Converter
	logger    *slog.Logger

	requestTimeout time.Duration
	ownsConn       bool
}

func NewClient(options *ClientOptions) (Client, error) {
	if options == nil {
		options = &ClientOptions{}
	}

	cfg := options.Config
	if cfg == nil {
		loaded, err := sdkconfig.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load client config: %w", err)
		}
		cfg = loaded
	}

	codec := options.Codec
	if codec == nil {
		codec = serde.Msgpack{}
	}
	logger := defaultLogger(options.Logger)

	var (
		conn *Conn
		err  error
		owns bool
	)
	if options.Conn != nil {
		conn, err = WrapConn(options.Conn, codec, logger)
	} else {
		conn, err = Connect(cfg, codec, logger)
		owns = true
	}
	if err != nil {
		return nil, err
	}

	return &clientImpl{
		conn:           conn,
		converter:      serde.NewConverter(codec),
		logger:         logger,
		requestTimeout: cfg.Timeouts.RequestTimeout,
		ownsConn:       owns,
	}, nil
}

func (c *clientImpl) StartExecution(ctx context.Context, workflowFn any, args ...any) (*Handle, error) {
	return c.start(ctx, "", workflowFn, args)
}

func (c *clientImpl) StartExecutionWithID(ctx context.Context, id api.ExecutionID, workflowFn any, args ...any) (*Handle, error) {
	if id == "" {
		return nil, fmt.Errorf("execution id must not be empty")
	}
	return c.start(ctx, id, workflowFn, args)
}

func (c *clientImpl) start(ctx context.Context, id api.ExecutionID, workflowFn any, args []any) (*Handle, error) {
	workflowName, err := functionName(workflowFn)
	if err != nil {
		return nil, fmt.Errorf("failed to extract workflow function name: %w", err)
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	reply, err := requestStart(ctx, c.conn, &api.StartExecutionAttributes{
		ExecutionID:    string(id),
		WorkflowFnName: workflowName,
		Input:          args,
	})
	if err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("starting execution failed on worker: %s", reply.Error)
	}
	if reply.ExecutionID == "" {
		return nil, fmt.Errorf("worker reply carried no execution id")
	}

	c.logger.Debug("execution started", "execution_id", reply.ExecutionID, "workflow", workflowName)
	return c.handle(api.ExecutionID(reply.ExecutionID)), nil
}

func (c *clientImpl) CancelExecution(ctx context.Context, id api.ExecutionID, reason string) error {
	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	reply, err := requestCancel(ctx, c.conn, &api.CancelExecutionAttributes{
		ExecutionID: string(id),
		Reason:      reason,
	})
	if err != nil {
		return err
	}
	if reply.Error != "" {
		return fmt.Errorf("cancelling execution failed on worker: %s", reply.Error)
	}
	return nil
}

func (c *clientImpl) GetResult(ctx context.Context, id api.ExecutionID, valuePtr any) error {
	return c.handle(id).Get(ctx, valuePtr)
}

func (c *clientImpl) Close() {
	if !c.ownsConn {
		return
	}
	// Drain flushes buffered publishes before closing; fall back to a hard
	// close when the connection is already unusable.
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
	}
}

func (c *clientImpl) handle(id api.ExecutionID) *Handle {
	return &Handle{ID: id, conn: c.conn, converter: c.converter}
}

// requestContext bounds a command round-trip when the caller set no
// deadline of its own.
func (c *clientImpl) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

func (c *clientImpl) getConn() *Conn                 { return c.conn }
func (c *clientImpl) getConverter() *serde.Converter { return c.converter }
func (c *clientImpl) getLogger() *slog.Logger        { return c.logger }

// Handle refers to one started execution.
type Handle struct {
	ID api.ExecutionID

	conn      *Conn
	converter *serde.Converter
}

// Get blocks until the execution reaches a terminal state and decodes its
// first result value into valuePtr (which may be nil). Results arrive
// through the result bucket, so Get works from any process, not only the
// one that started the execution.
func (h *Handle) Get(ctx context.Context, valuePtr any) error {
	data, err := h.conn.WatchResult(ctx, string(h.ID))
	if err != nil {
		return err
	}

	var res api.ExecutionResult
	if err := h.conn.Decode(data, &res); err != nil {
		return fmt.Errorf("result deserialization failed: %w", err)
	}
	return decodeResult(h.converter, &res, valuePtr)
}
