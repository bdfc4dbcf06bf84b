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
	"runtime/debug"

	"github.com/gofrs/uuid/v5"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"golang.org/x/sync/errgroup"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/journal"
)

type (
	WorkerOptions struct {
		Logger *slog.Logger

		// MaxConcurrentActivities bounds the in-process dispatcher.
		MaxConcurrentActivities int64
	}

	ActivityRegisterOption struct{}

	WorkflowRegisterOption struct{}

	WorkflowRegistry interface {
		RegisterWorkflow(w any, options ...WorkflowRegisterOption) error
	}

	ActivityRegistry interface {
		RegisterActivity(a any, options ...ActivityRegisterOption) error
	}
)

// workerImpl hosts executions on top of the JetStream journal and serves
// the client command subjects. Workers in the same queue group share the
// command load; each execution is pumped by the worker that accepted its
// start command.
type workerImpl struct {
	c    Client
	conn *Conn

	runtime *Runtime
	logger  *slog.Logger

	// runCtx is set by Run before the command subscriptions exist and is
	// only read by their handlers.
	runCtx context.Context
}

func NewWorker(c Client, opts *WorkerOptions) (*workerImpl, error) {
	if c == nil {
		return nil, fmt.Errorf("worker requires an established client")
	}
	if opts == nil {
		opts = &WorkerOptions{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = c.getLogger()
	}
	logger = defaultLogger(logger)

	conn := c.getConn()
	store := journal.NewJetStreamStore(conn.JS(), conn.Codec(), logger)

	w := &workerImpl{
		c:      c,
		conn:   conn,
		logger: logger,
	}

	rt, err := NewRuntime(Options{
		Store:                   store,
		Codec:                   conn.Codec(),
		Logger:                  logger,
		MaxConcurrentActivities: opts.MaxConcurrentActivities,
		ResultHook:              w.publishResult,
	})
	if err != nil {
		return nil, err
	}
	w.runtime = rt
	return w, nil
}

func (w *workerImpl) RegisterWorkflow(fn any, options ...WorkflowRegisterOption) error {
	return w.runtime.RegisterWorkflow(fn)
}

func (w *workerImpl) RegisterActivity(fn any, opts ...ActivityRegisterOption) error {
	return w.runtime.RegisterActivity(fn)
}

// Run provisions the journal stream and result bucket, subscribes to the
// command subjects and blocks until ctx is done. Shutdown drains the
// subscriptions so accepted commands still get their replies; hosted
// executions stay resumable from their journals.
func (w *workerImpl) Run(ctx context.Context) error {
	if !w.conn.IsConnected() {
		return fmt.Errorf("NATS connection is not established")
	}
	if err := w.provision(ctx); err != nil {
		return err
	}
	w.runCtx = ctx

	g, gCtx := errgroup.WithContext(ctx)

	subs := make([]*nats.Subscription, 0, 2)
	for _, binding := range []struct {
		subject string
		handler nats.MsgHandler
	}{
		{api.CommandRequestStart, w.handleStart},
		{api.CommandRequestCancel, w.handleCancel},
	} {
		sub, err := w.conn.QueueSubscribe(binding.subject, api.WorkerCommandQueueGroup, w.recovering(binding.handler))
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return err
		}
		subs = append(subs, sub)
	}

	w.logger.Info("worker running",
		"queue_group", api.WorkerCommandQueueGroup,
		"workflows", w.runtime.workflows.size(),
		"activities", w.runtime.activities.size())

	g.Go(func() error {
		<-gCtx.Done()
		for _, sub := range subs {
			if err := sub.Drain(); err != nil {
				w.logger.Warn("subscription drain failed", "error", err)
			}
		}
		w.runtime.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	w.logger.Info("worker stopped")
	return ctx.Err()
}

func (w *workerImpl) provision(ctx context.Context) error {
	if err := journal.EnsureStream(ctx, w.conn.JS()); err != nil {
		return fmt.Errorf("failed to provision journal stream: %w", err)
	}
	if _, err := w.conn.EnsureKV(ctx, jetstream.KeyValueConfig{
		Bucket:      api.ExecutionResultBucket,
		Description: "terminal execution results",
		History:     1,
	}); err != nil {
		return fmt.Errorf("failed to provision result bucket: %w", err)
	}
	return nil
}

// recovering shields the NATS callback goroutine from handler panics.
func (w *workerImpl) recovering(h nats.MsgHandler) nats.MsgHandler {
	return func(msg *nats.Msg) {
		defer func() {
			if rec := recover(); rec != nil {
				w.logger.Error("command handler panicked",
					"subject", msg.Subject,
					"panic", rec,
					"stack", string(debug.Stack()))
			}
		}()
		h(msg)
	}
}

func (w *workerImpl) handleStart(msg *nats.Msg) {
	attrs, err := decodeCommand[api.StartExecutionAttributes](w.conn, msg.Data, api.StartExecutionCommand)
	if err != nil {
		w.logger.Error("malformed start command", "error", err)
		w.reply(msg, &api.StartExecutionReply{Error: err.Error()})
		return
	}

	id := api.ExecutionID(attrs.ExecutionID)
	if id == "" {
		id = api.ExecutionID(uuid.Must(uuid.NewV7()).String())
	}

	if err := w.runtime.StartExecutionWithID(w.runCtx, id, attrs.WorkflowFnName, attrs.Input...); err != nil {
		w.logger.Error("start command rejected",
			"execution_id", id,
			"workflow", attrs.WorkflowFnName,
			"error", err)
		w.reply(msg, &api.StartExecutionReply{Error: err.Error()})
		return
	}

	w.reply(msg, &api.StartExecutionReply{ExecutionID: string(id)})
}

func (w *workerImpl) handleCancel(msg *nats.Msg) {
	attrs, err := decodeCommand[api.CancelExecutionAttributes](w.conn, msg.Data, api.CancelExecutionCommand)
	if err != nil {
		w.logger.Error("malformed cancel command", "error", err)
		w.reply(msg, &api.CancelExecutionReply{Error: err.Error()})
		return
	}

	if err := w.runtime.CancelExecution(w.runCtx, api.ExecutionID(attrs.ExecutionID), attrs.Reason); err != nil {
		w.logger.Error("cancel command rejected",
			"execution_id", attrs.ExecutionID,
			"error", err)
		w.reply(msg, &api.CancelExecutionReply{Error: err.Error()})
		return
	}

	w.reply(msg, &api.CancelExecutionReply{})
}

func (w *workerImpl) reply(msg *nats.Msg, v any) {
	data, err := w.conn.Encode(v)
	if err != nil {
		w.logger.Error("failed to serialize command reply", "subject", msg.Subject, "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		w.logger.Error("failed to send command reply", "subject", msg.Subject, "error", err)
	}
}

// publishResult writes the terminal result into the result bucket where
// client handles watch for it.
func (w *workerImpl) publishResult(ctx context.Context, res *api.ExecutionResult) {
	data, err := w.conn.Encode(res)
	if err != nil {
		w.logger.Error("failed to serialize execution result",
			"execution_id", res.ExecutionID,
			"error", err)
		return
	}
	if _, err := w.conn.SetKV(ctx, api.ExecutionResultBucket, res.ExecutionID, data); err != nil {
		w.logger.Error("failed to publish execution result",
			"execution_id", res.ExecutionID,
			"error", err)
		return
	}
	w.logger.Debug("execution result published", "execution_id", res.ExecutionID, "status", res.Status)
}

// decodeCommand unwraps a Command envelope of the expected type.
func decodeCommand[T any](c *Conn, data []byte, want api.CommandType) (*T, error) {
	var cmd api.Command
	if err := c.Decode(data, &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse command envelope: %w", err)
	}
	if cmd.CommandType != want {
		return nil, fmt.Errorf("unexpected command type %q on %q subject", cmd.CommandType, want)
	}
	var attrs T
	if err := c.Decode(cmd.Attributes, &attrs); err != nil {
		return nil, fmt.Errorf("failed to parse %s attributes: %w", want, err)
	}
	return &attrs, nil
}
