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
	"reflect"
	"runtime/debug"
	"time"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

// passState carries one re-execution of the workflow function. Every pass
// starts from a fresh arena and a cursor over the full journal; operations
// are numbered in code order as the function runs, which is what lets the
// cursor match them against history.
type passState struct {
	executionID  api.ExecutionID
	workflowName string

	cursor *historyCursor
	arena  *scopeArena
	conv   *serde.Converter
	logger *slog.Logger

	nextOp    int64
	newEvents []api.ExecutionEvent
}

func newPass(cursor *historyCursor, conv *serde.Converter, logger *slog.Logger) *passState {
	return &passState{
		executionID:  cursor.started.ID,
		workflowName: cursor.started.WorkflowFnName,
		cursor:       cursor,
		arena:        newScopeArena(),
		conv:         conv,
		logger:       logger,
	}
}

func (p *passState) nextOpSeq() int64 {
	p.nextOp++
	return p.nextOp
}

// scheduleActivity is every ExecuteActivity's suspension point. An
// operation already in history is matched and resolved from the cursor;
// a new one is recorded, unless its scope is already cancelled, in which
// case it fails without ever dispatching.
func (p *passState) scheduleActivity(scope int, name string, opts ActivityOptions, args []any) *futureState {
	op := p.nextOpSeq()

	if sched, ok := p.cursor.schedules[op]; ok {
		p.matchSchedule(op, sched, opActivity, name, scope)
		return p.opFuture(op, scope, sched)
	}

	if mark, covered := p.cursor.effectiveCancel(p.arena, scope); covered {
		p.deliverCancel(mark)
		return p.resolvedFuture(op, name, nil, p.cancelledError(mark))
	}
	p.guardNewOp(op, "activity", name)

	p.newEvents = append(p.newEvents, &api.ActivityScheduled{
		ID:                p.executionID,
		Op:                op,
		Scope:             scope,
		ActivityFnName:    name,
		Input:             args,
		ScheduleToCloseMs: opts.ScheduleToCloseTimeout.Milliseconds(),
		StartToCloseMs:    opts.StartToCloseTimeout.Milliseconds(),
	})
	return &futureState{op: op, name: name, conv: p.conv}
}

// scheduleTimer is Sleep's suspension point. The absolute deadline is
// recorded on first schedule so a resumed runtime re-arms the remainder
// instead of restarting the wait.
func (p *passState) scheduleTimer(scope int, d time.Duration) *futureState {
	op := p.nextOpSeq()

	if sched, ok := p.cursor.schedules[op]; ok {
		p.matchSchedule(op, sched, opTimer, "timer", scope)
		return p.opFuture(op, scope, sched)
	}

	if mark, covered := p.cursor.effectiveCancel(p.arena, scope); covered {
		p.deliverCancel(mark)
		return p.resolvedFuture(op, "timer", nil, p.cancelledError(mark))
	}
	p.guardNewOp(op, "timer", "timer")

	p.newEvents = append(p.newEvents, &api.TimerScheduled{
		ID:           p.executionID,
		Op:           op,
		Scope:        scope,
		DurationMs:   d.Milliseconds(),
		FireAtUnixMs: time.Now().Add(d).UnixMilli(),
	})
	return &futureState{op: op, name: "timer", conv: p.conv}
}

// cancelScope records a code-initiated scope cancellation. On replay the
// recorded marker supplies the anchor; within the first pass the stamp
// orders after everything already journaled.
func (p *passState) cancelScope(scope int) {
	if seq, ok := p.cursor.scopeMarkers[scope]; ok {
		p.arena.cancel(scope, seq)
		return
	}
	if p.arena.isCancelled(scope) {
		return
	}
	p.arena.cancel(scope, pendingCancelSeq)
	p.newEvents = append(p.newEvents, &api.ScopeCancelled{ID: p.executionID, Scope: scope})
}

// matchSchedule panics a replay mismatch when the operation the code
// produced differs from the one history recorded at the same position.
func (p *passState) matchSchedule(op int64, sched *schedule, kind opKind, name string, scope int) {
	if sched.kind != kind || (kind == opActivity && sched.name != name) {
		p.mismatch(op, fmt.Sprintf("history recorded %s %q, code scheduled %s %q", sched.kind, sched.name, kind, name))
	}
	if sched.scope != scope {
		p.mismatch(op, fmt.Sprintf("history recorded scope %d, code used scope %d", sched.scope, scope))
	}
}

// guardNewOp rejects a brand-new operation numbered below ones history
// already recorded; legitimate gaps only come from immediate cancellation
// failures, which never reach here.
func (p *passState) guardNewOp(op int64, kind, name string) {
	if op <= p.cursor.maxScheduledOp {
		p.mismatch(op, fmt.Sprintf("%s %q has no schedule record but later operations do", kind, name))
	}
}

func (p *passState) mismatch(op int64, detail string) {
	panic(replayMismatchSignal{err: &ReplayMismatchError{Op: op, Detail: detail}})
}

// opFuture turns the cursor's decision for a scheduled operation into a
// future. A fault doubles as the delivery point of the cancellation.
func (p *passState) opFuture(op int64, scope int, sched *schedule) *futureState {
	decision := p.cursor.resolve(p.arena, op, scope)

	switch decision.state {
	case opOutcome:
		res := decision.res
		switch res.outcome {
		case resFailed:
			return p.resolvedFuture(op, sched.name, nil, &ActivityError{
				ActivityName: sched.name,
				ExecutionID:  string(p.executionID),
				Cause:        errors.New(res.errMsg),
			})
		case resTimedOut:
			return p.resolvedFuture(op, sched.name, nil, &TimeoutError{
				TimeoutType: res.timeoutType,
				Duration:    time.Duration(res.timeoutMs) * time.Millisecond,
			})
		default:
			return p.resolvedFuture(op, sched.name, res.values, nil)
		}

	case opFault:
		p.deliverCancel(decision.cancel)
		return p.resolvedFuture(op, sched.name, nil, p.cancelledError(decision.cancel))

	default:
		return &futureState{op: op, name: sched.name, conv: p.conv}
	}
}

// deliverCancel stamps the arena at the mark's own scope. From here on
// IsCancelled reports true for every scope the mark reaches, and children
// born later under that lineage start cancelled.
func (p *passState) deliverCancel(mark cancelMark) {
	p.arena.cancel(mark.scope, mark.seq)
}

func (p *passState) cancelledError(mark cancelMark) *CancelledError {
	reason := ""
	if mark.scope == rootScope {
		reason = p.cursor.cancelReason
	}
	return &CancelledError{Scope: mark.scope, Reason: reason}
}

func (p *passState) resolvedFuture(op int64, name string, values []any, err error) *futureState {
	return &futureState{op: op, name: name, conv: p.conv, resolved: true, values: values, err: err}
}

// failedFuture carries a usage error, like an unresolvable activity
// reference; it consumes no operation number.
func (p *passState) failedFuture(err error) *futureState {
	return &futureState{name: "invalid", conv: p.conv, resolved: true, err: err}
}

type passOutcome int8

const (
	// passSuspended parked on an unresolved operation.
	passSuspended passOutcome = iota
	// passReturned ran to the workflow function's return.
	passReturned
	// passFailed hit a replay mismatch, a panic or undecodable input.
	passFailed
)

type passResult struct {
	outcome passOutcome
	values  []any
	err     error
}

// runWorkflowPass re-executes the workflow function from the top against
// the journal. The function yields by panicking errorBlockingFuture from
// an unresolved await; everything else it panics is its own failure.
func runWorkflowPass(fn any, pass *passState) (pr passResult) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch sig := r.(type) {
		case errorBlockingFuture:
			pr = passResult{outcome: passSuspended}
		case replayMismatchSignal:
			pr = passResult{outcome: passFailed, err: sig.err}
		default:
			pr = passResult{outcome: passFailed, err: &PanicError{Value: r, Stack: string(debug.Stack())}}
		}
	}()

	fnV := reflect.ValueOf(fn)
	fnT := fnV.Type()

	paramTypes := make([]reflect.Type, 0, fnT.NumIn()-1)
	for i := 1; i < fnT.NumIn(); i++ {
		paramTypes = append(paramTypes, fnT.In(i))
	}

	converted, err := pass.conv.ToTypes(pass.cursor.started.Input, paramTypes)
	if err != nil {
		return passResult{outcome: passFailed, err: fmt.Errorf("decode workflow input: %w", err)}
	}

	root := &passContext{Context: context.Background(), pass: pass, scope: rootScope}
	args := append([]reflect.Value{reflect.ValueOf(root)}, converted...)

	values, callErr := splitResults(fnV.Call(args))
	return passResult{outcome: passReturned, values: values, err: callErr}
}
