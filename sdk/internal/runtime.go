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
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
	"github.com/canopy-run/canopy/journal"
)

const defaultMaxConcurrentActivities = 16

// Options configure a Runtime.
type Options struct {
	// Store persists execution journals. Required.
	Store journal.Store

	// Codec encodes journal payloads. Defaults to MessagePack.
	Codec serde.Codec

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Dispatcher executes scheduled activities. Defaults to an in-process
	// dispatcher over the runtime's own activity registry.
	Dispatcher Dispatcher

	// MaxConcurrentActivities bounds the default dispatcher.
	MaxConcurrentActivities int64

	// ResultHook, when set, observes every terminal result once. The
	// worker uses it to publish results to the result bucket.
	ResultHook func(ctx context.Context, result *api.ExecutionResult)
}

// Runtime hosts executions: it runs workflow functions pass by pass
// against their journals, records the events each pass produces, and
// feeds recorded outcomes back on the next pass. One pump goroutine per
// execution serializes its passes, so workflow code never runs
// concurrently with itself.
type Runtime struct {
	store      journal.Store
	codec      serde.Codec
	conv       *serde.Converter
	logger     *slog.Logger
	dispatcher Dispatcher
	resultHook func(ctx context.Context, result *api.ExecutionResult)

	workflows  *registry
	activities *registry

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	execs  map[api.ExecutionID]*execution
	closed bool
}

// execution is one hosted execution's pump-side state. Timer and dispatch
// bookkeeping lives in memory only; a resumed runtime rebuilds it from
// the journal.
type execution struct {
	id api.ExecutionID
	fn any

	status   api.Status
	finished bool
	result   *api.ExecutionResult

	wake chan struct{}
	done chan struct{}

	timers     map[int64]*time.Timer
	watchdogs  map[int64]*time.Timer
	dispatched map[int64]bool
}

func newExecution(id api.ExecutionID, fn any) *execution {
	return &execution{
		id:         id,
		fn:         fn,
		status:     api.StatusRunning,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		timers:     make(map[int64]*time.Timer),
		watchdogs:  make(map[int64]*time.Timer),
		dispatched: make(map[int64]bool),
	}
}

// wakeUp nudges the pump; sends coalesce, the pump reloads the whole
// journal anyway.
func (ex *execution) wakeUp() {
	select {
	case ex.wake <- struct{}{}:
	default:
	}
}

func NewRuntime(opts Options) (*Runtime, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("runtime: journal store is required")
	}
	codec := opts.Codec
	if codec == nil {
		codec = serde.Msgpack{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxConcurrent := opts.MaxConcurrentActivities
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentActivities
	}

	r := &Runtime{
		store:      opts.Store,
		codec:      codec,
		conv:       serde.NewConverter(codec),
		logger:     logger,
		resultHook: opts.ResultHook,
		workflows:  newRegistry(),
		activities: newRegistry(),
		execs:      make(map[api.ExecutionID]*execution),
	}
	r.baseCtx, r.stop = context.WithCancel(context.Background())

	r.dispatcher = opts.Dispatcher
	if r.dispatcher == nil {
		r.dispatcher = newLocalDispatcher(r.activities, r.conv, maxConcurrent, logger)
	}
	return r, nil
}

// RegisterWorkflow registers fn under its reflected name.
func (r *Runtime) RegisterWorkflow(fn any) error {
	name, err := validateWorkflowFn(fn)
	if err != nil {
		return err
	}
	return r.workflows.set(name, fn)
}

// RegisterActivity registers fn under its reflected name.
func (r *Runtime) RegisterActivity(fn any) error {
	name, err := validateActivityFn(fn)
	if err != nil {
		return err
	}
	return r.activities.set(name, fn)
}

// StartExecution starts workflowFn with a generated execution id.
func (r *Runtime) StartExecution(ctx context.Context, workflowFn any, args ...any) (api.ExecutionID, error) {
	id := api.ExecutionID(uuid.Must(uuid.NewV7()).String())
	return id, r.StartExecutionWithID(ctx, id, workflowFn, args...)
}

// StartExecutionWithID records the start event and begins pumping passes.
// workflowFn may be the registered function or its name.
func (r *Runtime) StartExecutionWithID(ctx context.Context, id api.ExecutionID, workflowFn any, args ...any) error {
	name, err := functionName(workflowFn)
	if err != nil {
		return err
	}
	fn, ok := r.workflows.get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrWorkflowNotRegistered, name)
	}

	ex := newExecution(id, fn)
	if err := r.adopt(ex); err != nil {
		return err
	}

	recs, err := r.store.Load(ctx, id)
	if err != nil {
		r.abandon(id)
		return &StorageError{Op: "load", Cause: err}
	}
	if len(recs) > 0 {
		r.abandon(id)
		return fmt.Errorf("%w: %s", ErrExecutionAlreadyStarted, id)
	}

	if _, err := r.store.Append(ctx, id, &api.ExecutionStarted{ID: id, WorkflowFnName: name, Input: args}); err != nil {
		r.abandon(id)
		return &StorageError{Op: "append", Cause: err}
	}

	r.logger.Info("execution started", "execution_id", id, "workflow", name)
	r.wg.Add(1)
	go r.pump(ex)
	return nil
}

// ResumeExecution hosts an execution recovered from its journal: pending
// timers are re-armed with their remaining duration and unresolved
// activities are dispatched again, making dispatch at-least-once across
// process restarts. Resuming a terminal execution is a no-op.
func (r *Runtime) ResumeExecution(ctx context.Context, id api.ExecutionID) error {
	ex := newExecution(id, nil)
	if err := r.adopt(ex); err != nil {
		if errors.Is(err, ErrExecutionAlreadyStarted) {
			return nil
		}
		return err
	}

	recs, err := r.store.Load(ctx, id)
	if err != nil {
		r.abandon(id)
		return &StorageError{Op: "load", Cause: err}
	}
	if len(recs) == 0 {
		r.abandon(id)
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}

	cursor, err := buildCursor(r.codec, recs)
	if err != nil {
		r.abandon(id)
		return err
	}
	if cursor.started == nil {
		r.abandon(id)
		return fmt.Errorf("journal of %s has no start record", id)
	}
	if cursor.terminal != nil {
		r.abandon(id)
		return nil
	}

	fn, ok := r.workflows.get(cursor.started.WorkflowFnName)
	if !ok {
		r.abandon(id)
		return fmt.Errorf("%w: %s", ErrWorkflowNotRegistered, cursor.started.WorkflowFnName)
	}

	r.mu.Lock()
	ex.fn = fn
	if cursor.cancelRequested {
		ex.status = api.StatusCancelling
	}
	r.mu.Unlock()

	r.logger.Info("execution resumed",
		"execution_id", id,
		"workflow", cursor.started.WorkflowFnName,
		"records", len(recs))
	r.wg.Add(1)
	go r.pump(ex)
	return nil
}

// CancelExecution records a cancellation request against the root scope.
// Cancelling an already-cancelling or finished execution is a no-op; an
// execution with no journal reports ErrExecutionNotFound. An execution
// that is journaled but not hosted is resumed first so the request takes
// effect.
func (r *Runtime) CancelExecution(ctx context.Context, id api.ExecutionID, reason string) error {
	r.mu.Lock()
	ex := r.execs[id]
	r.mu.Unlock()

	if ex == nil {
		if err := r.ResumeExecution(ctx, id); err != nil {
			return err
		}
		r.mu.Lock()
		ex = r.execs[id]
		r.mu.Unlock()
		if ex == nil {
			// Journal exists and is already terminal.
			return nil
		}
	}

	r.mu.Lock()
	if ex.finished || ex.status == api.StatusCancelling {
		r.mu.Unlock()
		return nil
	}
	ex.status = api.StatusCancelling
	r.mu.Unlock()

	if _, err := r.store.Append(ctx, id, &api.CancelRequested{ID: id, Reason: reason}); err != nil {
		r.mu.Lock()
		if !ex.finished {
			ex.status = api.StatusRunning
		}
		r.mu.Unlock()
		return &StorageError{Op: "append", Cause: err}
	}

	r.logger.Info("cancellation requested", "execution_id", id, "reason", reason)

	if fw, ok := r.dispatcher.(CancelForwarder); ok {
		r.mu.Lock()
		ops := make([]int64, 0, len(ex.dispatched))
		for op := range ex.dispatched {
			ops = append(ops, op)
		}
		r.mu.Unlock()
		for _, op := range ops {
			fw.ForwardCancel(id, op)
		}
	}

	ex.wakeUp()
	return nil
}

// GetResult blocks until the execution is terminal and decodes its first
// result value into valuePtr (which may be nil). A cancelled execution
// returns *CancelledError, a failed one *WorkflowExecutionError.
func (r *Runtime) GetResult(ctx context.Context, id api.ExecutionID, valuePtr any) error {
	res, err := r.awaitResult(ctx, id)
	if err != nil {
		return err
	}
	return decodeResult(r.conv, res, valuePtr)
}

// ExecutionStatus reports the current status, from memory for hosted
// executions and from the journal otherwise.
func (r *Runtime) ExecutionStatus(ctx context.Context, id api.ExecutionID) (api.Status, error) {
	r.mu.Lock()
	if ex, ok := r.execs[id]; ok {
		st := ex.status
		r.mu.Unlock()
		return st, nil
	}
	r.mu.Unlock()

	recs, err := r.store.Load(ctx, id)
	if err != nil {
		return "", &StorageError{Op: "load", Cause: err}
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	cursor, err := buildCursor(r.codec, recs)
	if err != nil {
		return "", err
	}
	switch {
	case cursor.terminal != nil:
		return resultFromTerminal(id, cursor.terminal).Status, nil
	case cursor.cancelRequested:
		return api.StatusCancelling, nil
	default:
		return api.StatusRunning, nil
	}
}

// Close stops all pumps and waits for in-flight activity goroutines.
// Hosted executions stay resumable from their journals.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, ex := range r.execs {
		stopAll(ex)
	}
	r.mu.Unlock()

	r.stop()
	r.wg.Wait()
}

// adopt claims the id so concurrent starts and resumes cannot race.
func (r *Runtime) adopt(ex *execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRuntimeClosed
	}
	if _, live := r.execs[ex.id]; live {
		return fmt.Errorf("%w: %s", ErrExecutionAlreadyStarted, ex.id)
	}
	r.execs[ex.id] = ex
	return nil
}

func (r *Runtime) abandon(id api.ExecutionID) {
	r.mu.Lock()
	delete(r.execs, id)
	r.mu.Unlock()
}

// pump serializes passes for one execution: run a pass, park until an
// event wakes it, repeat until terminal.
func (r *Runtime) pump(ex *execution) {
	defer r.wg.Done()
	for {
		if r.step(ex) {
			return
		}
		select {
		case <-ex.wake:
		case <-r.baseCtx.Done():
			return
		}
	}
}

// step runs one pass and acts on its outcome. It returns true when the
// execution reached a terminal state.
func (r *Runtime) step(ex *execution) bool {
	recs, err := r.store.Load(r.baseCtx, ex.id)
	if err != nil {
		r.failInfra(ex, &StorageError{Op: "load", Cause: err})
		return true
	}

	cursor, err := buildCursor(r.codec, recs)
	if err != nil {
		r.failLocal(ex, err)
		return true
	}
	if cursor.terminal != nil {
		r.finish(ex, resultFromTerminal(ex.id, cursor.terminal))
		return true
	}
	if cursor.started == nil {
		r.failLocal(ex, fmt.Errorf("journal has no start record"))
		return true
	}

	pass := newPass(cursor, r.conv, r.logger)
	pr := runWorkflowPass(ex.fn, pass)

	terminal := r.classify(ex, cursor, pr)

	events := pass.newEvents
	if terminal != nil {
		events = append(events, terminal)
	}
	appended, err := r.store.Append(r.baseCtx, ex.id, events...)
	if err != nil {
		r.failInfra(ex, &StorageError{Op: "append", Cause: err})
		return true
	}

	if terminal != nil {
		r.finish(ex, resultFromTerminal(ex.id, terminal))
		return true
	}

	absorbNewSchedules(cursor, pass.newEvents, appended)
	r.ensurePending(ex, cursor, pass.arena)

	// A pass that journals a scope cancellation may already be parked on
	// an operation that mark faults. No outcome will arrive for it, so
	// nudge the pump; the next pass delivers the fault. The mark is only
	// ever appended once, so this cannot spin.
	for _, event := range pass.newEvents {
		if _, ok := event.(*api.ScopeCancelled); ok {
			ex.wakeUp()
			break
		}
	}

	r.logger.Debug("pass suspended",
		"execution_id", ex.id,
		"ops", pass.nextOp,
		"new_events", len(pass.newEvents))
	return false
}

// classify maps a finished pass to its terminal event, nil while the
// execution is still in flight.
func (r *Runtime) classify(ex *execution, cursor *historyCursor, pr passResult) api.ExecutionEvent {
	switch pr.outcome {
	case passSuspended:
		return nil

	case passFailed:
		r.logger.Error("workflow pass failed", "execution_id", ex.id, "error", pr.err)
		return &api.ExecutionFailed{ID: ex.id, Error: pr.err.Error()}

	default:
		switch {
		case pr.err == nil && cursor.cancelRequested:
			// The function swallowed the cancellation and returned
			// success; the execution still ends cancelled, only the
			// cleanup ran.
			r.logger.Warn("workflow returned after cancellation; recording cancelled",
				"execution_id", ex.id)
			return &api.ExecutionCancelled{ID: ex.id, Reason: cursor.cancelReason}

		case pr.err == nil:
			return &api.ExecutionCompleted{ID: ex.id, Result: pr.values}

		case IsCancelledError(pr.err):
			reason := cursor.cancelReason
			var ce *CancelledError
			if errors.As(pr.err, &ce) && ce.Reason != "" {
				reason = ce.Reason
			}
			return &api.ExecutionCancelled{ID: ex.id, Reason: reason}

		default:
			return &api.ExecutionFailed{ID: ex.id, Error: pr.err.Error()}
		}
	}
}

// absorbNewSchedules merges the records appended by this pass into the
// cursor so a single ensure sweep sees old and new pending operations.
func absorbNewSchedules(cursor *historyCursor, events []api.ExecutionEvent, recs []journal.Record) {
	for i, event := range events {
		if i >= len(recs) {
			return
		}
		rec := recs[i]
		switch evt := event.(type) {
		case *api.ActivityScheduled:
			cursor.schedules[evt.Op] = &schedule{
				op:                evt.Op,
				kind:              opActivity,
				name:              evt.ActivityFnName,
				scope:             evt.Scope,
				seq:               rec.Seq,
				at:                rec.At,
				input:             evt.Input,
				startToCloseMs:    evt.StartToCloseMs,
				scheduleToCloseMs: evt.ScheduleToCloseMs,
			}
			cursor.maxScheduledOp = max(cursor.maxScheduledOp, evt.Op)
		case *api.TimerScheduled:
			cursor.schedules[evt.Op] = &schedule{
				op:     evt.Op,
				kind:   opTimer,
				name:   "timer",
				scope:  evt.Scope,
				seq:    rec.Seq,
				at:     rec.At,
				fireAt: time.UnixMilli(evt.FireAtUnixMs),
			}
			cursor.maxScheduledOp = max(cursor.maxScheduledOp, evt.Op)
		}
	}
}

// ensurePending arms timers and dispatches activities for every scheduled
// operation that has neither an outcome nor an effective cancellation.
// It is idempotent across passes; the per-op maps dedupe.
func (r *Runtime) ensurePending(ex *execution, cursor *historyCursor, arena *scopeArena) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ex.finished {
		return
	}

	for op, sched := range cursor.schedules {
		if _, done := cursor.resolutions[op]; done {
			stopOp(ex, op)
			continue
		}
		if _, covered := cursor.effectiveCancel(arena, sched.scope); covered {
			// The await already observed the cancellation; firing or
			// dispatching cannot change its outcome.
			stopOp(ex, op)
			continue
		}

		switch sched.kind {
		case opTimer:
			if _, armed := ex.timers[op]; armed {
				continue
			}
			delay := max(time.Until(sched.fireAt), 0)
			ex.timers[op] = time.AfterFunc(delay, func() {
				r.fireTimer(ex, op)
			})

		case opActivity:
			if sched.scheduleToCloseMs > 0 {
				if _, armed := ex.watchdogs[op]; !armed {
					deadline := sched.at.Add(time.Duration(sched.scheduleToCloseMs) * time.Millisecond)
					ex.watchdogs[op] = time.AfterFunc(max(time.Until(deadline), 0), func() {
						r.expireActivity(ex, op, sched)
					})
				}
			}
			if ex.dispatched[op] {
				continue
			}
			ex.dispatched[op] = true

			task := &api.ActivityTask{
				ExecutionID:    string(ex.id),
				Op:             op,
				ActivityFnName: sched.name,
				Input:          sched.input,
				StartToCloseMs: sched.startToCloseMs,
			}
			r.wg.Add(1)
			go r.runActivity(ex, task)
		}
	}
}

func stopOp(ex *execution, op int64) {
	if t, ok := ex.timers[op]; ok {
		t.Stop()
		delete(ex.timers, op)
	}
	if t, ok := ex.watchdogs[op]; ok {
		t.Stop()
		delete(ex.watchdogs, op)
	}
}

func stopAll(ex *execution) {
	for _, t := range ex.timers {
		t.Stop()
	}
	for _, t := range ex.watchdogs {
		t.Stop()
	}
}

func (r *Runtime) fireTimer(ex *execution, op int64) {
	r.mu.Lock()
	finished := ex.finished
	r.mu.Unlock()
	if finished {
		return
	}

	if _, err := r.store.Append(r.baseCtx, ex.id, &api.TimerFired{ID: ex.id, Op: op}); err != nil {
		r.logger.Error("timer record failed", "execution_id", ex.id, "op", op, "error", err)
		return
	}
	ex.wakeUp()
}

// expireActivity records a ScheduleToClose timeout. If the handler's
// outcome landed first the cursor keeps that instead; first record wins.
func (r *Runtime) expireActivity(ex *execution, op int64, sched *schedule) {
	r.mu.Lock()
	finished := ex.finished
	r.mu.Unlock()
	if finished {
		return
	}

	r.logger.Warn("activity schedule-to-close elapsed",
		"execution_id", ex.id,
		"op", op,
		"activity", sched.name)

	evt := &api.ActivityTimedOut{
		ID:             ex.id,
		Op:             op,
		ActivityFnName: sched.name,
		TimeoutType:    api.TimeoutScheduleToClose,
		TimeoutMs:      sched.scheduleToCloseMs,
	}
	if _, err := r.store.Append(r.baseCtx, ex.id, evt); err != nil {
		r.logger.Error("timeout record failed", "execution_id", ex.id, "op", op, "error", err)
		return
	}
	ex.wakeUp()
}

// runActivity executes one dispatched task and records its outcome. An
// in-flight invocation always runs to completion; if the execution went
// terminal in the meantime the outcome is dropped, not recorded.
func (r *Runtime) runActivity(ex *execution, task *api.ActivityTask) {
	defer r.wg.Done()

	ctx := r.baseCtx
	if task.StartToCloseMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(task.StartToCloseMs)*time.Millisecond)
		defer cancel()
	}

	values, err := r.dispatcher.Execute(ctx, task)

	r.mu.Lock()
	finished := ex.finished
	r.mu.Unlock()
	if finished {
		r.logger.Debug("dropping in-flight outcome after terminal",
			"execution_id", ex.id,
			"op", task.Op,
			"activity", task.ActivityFnName)
		return
	}

	var outcome api.ExecutionEvent
	switch {
	case err == nil:
		outcome = &api.ActivityCompleted{
			ID:             ex.id,
			Op:             task.Op,
			ActivityFnName: task.ActivityFnName,
			Result:         values,
		}
	case errors.Is(err, context.DeadlineExceeded):
		outcome = &api.ActivityTimedOut{
			ID:             ex.id,
			Op:             task.Op,
			ActivityFnName: task.ActivityFnName,
			TimeoutType:    api.TimeoutStartToClose,
			TimeoutMs:      task.StartToCloseMs,
		}
	default:
		outcome = &api.ActivityFailed{
			ID:             ex.id,
			Op:             task.Op,
			ActivityFnName: task.ActivityFnName,
			Error:          err.Error(),
		}
	}

	if _, err := r.store.Append(r.baseCtx, ex.id, outcome); err != nil {
		r.logger.Error("activity outcome record failed",
			"execution_id", ex.id,
			"op", task.Op,
			"error", err)
		return
	}
	ex.wakeUp()
}

// failLocal records a terminal failure and finishes. Used when the
// journal itself still works.
func (r *Runtime) failLocal(ex *execution, cause error) {
	r.logger.Error("execution failed", "execution_id", ex.id, "error", cause)
	if _, err := r.store.Append(r.baseCtx, ex.id, &api.ExecutionFailed{ID: ex.id, Error: cause.Error()}); err != nil {
		r.logger.Error("terminal record failed", "execution_id", ex.id, "error", err)
	}
	r.finish(ex, &api.ExecutionResult{
		ExecutionID: string(ex.id),
		Status:      api.StatusFailed,
		Error:       cause.Error(),
	})
}

// failInfra finishes without touching the journal; the journal is what
// failed. The journal keeps its valid prefix and the execution stays
// resumable.
func (r *Runtime) failInfra(ex *execution, cause error) {
	r.logger.Error("journal failure", "execution_id", ex.id, "error", cause)
	r.finish(ex, &api.ExecutionResult{
		ExecutionID: string(ex.id),
		Status:      api.StatusFailed,
		Error:       cause.Error(),
	})
}

func (r *Runtime) finish(ex *execution, res *api.ExecutionResult) {
	r.mu.Lock()
	if ex.finished {
		r.mu.Unlock()
		return
	}
	ex.finished = true
	ex.status = res.Status
	ex.result = res
	stopAll(ex)
	delete(r.execs, ex.id)
	r.mu.Unlock()

	close(ex.done)
	if r.resultHook != nil {
		r.resultHook(r.baseCtx, res)
	}
	r.logger.Info("execution finished",
		"execution_id", ex.id,
		"status", res.Status,
		"error", res.Error)
}

func (r *Runtime) awaitResult(ctx context.Context, id api.ExecutionID) (*api.ExecutionResult, error) {
	r.mu.Lock()
	ex := r.execs[id]
	r.mu.Unlock()

	if ex != nil {
		select {
		case <-ex.done:
			return ex.result, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	recs, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "load", Cause: err}
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	}
	cursor, err := buildCursor(r.codec, recs)
	if err != nil {
		return nil, err
	}
	if cursor.terminal == nil {
		return nil, fmt.Errorf("execution %s is not hosted by this runtime; resume it first", id)
	}
	return resultFromTerminal(id, cursor.terminal), nil
}

func resultFromTerminal(id api.ExecutionID, terminal api.ExecutionEvent) *api.ExecutionResult {
	res := &api.ExecutionResult{ExecutionID: string(id)}
	switch evt := terminal.(type) {
	case *api.ExecutionCompleted:
		res.Status = api.StatusCompleted
		res.Result = evt.Result
	case *api.ExecutionCancelled:
		res.Status = api.StatusCancelled
		res.Error = evt.Reason
	case *api.ExecutionFailed:
		res.Status = api.StatusFailed
		res.Error = evt.Error
	}
	return res
}

// decodeResult maps a terminal result onto the client-facing contract:
// Completed decodes into valuePtr, Cancelled surfaces *CancelledError,
// Failed surfaces *WorkflowExecutionError with the recorded message.
func decodeResult(conv *serde.Converter, res *api.ExecutionResult, valuePtr any) error {
	switch res.Status {
	case api.StatusCompleted:
		if valuePtr == nil || len(res.Result) == 0 {
			return nil
		}
		return decodeInto(conv, res.Result[0], valuePtr)
	case api.StatusCancelled:
		return &CancelledError{Scope: rootScope, Reason: res.Error}
	default:
		return &WorkflowExecutionError{ExecutionID: res.ExecutionID, Message: res.Error}
	}
}
