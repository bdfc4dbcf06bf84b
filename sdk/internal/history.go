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
	"fmt"
	"time"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
	"github.com/canopy-run/canopy/journal"
)

type opKind int8

const (
	opActivity opKind = iota
	opTimer
)

func (k opKind) String() string {
	if k == opTimer {
		return "timer"
	}
	return "activity"
}

// schedule is an operation's recorded schedule event.
type schedule struct {
	op    int64
	kind  opKind
	name  string
	scope int
	seq   uint64
	at    time.Time

	input             []any
	startToCloseMs    int64
	scheduleToCloseMs int64
	fireAt            time.Time // timers only
}

type resolutionOutcome int8

const (
	resCompleted resolutionOutcome = iota
	resFailed
	resTimedOut
)

// resolution is the first terminal event recorded for an operation.
// Dispatch is at-least-once, so later duplicates are ignored.
type resolution struct {
	op      int64
	seq     uint64
	outcome resolutionOutcome

	values      []any
	errMsg      string
	timeoutType string
	timeoutMs   int64
}

// cancelMark is a cancellation anchored in the journal: CancelRequested
// targets the root scope, ScopeCancelled a specific one.
type cancelMark struct {
	scope int
	seq   uint64
}

// historyCursor is the pass's read view of the journal. The deterministic
// scheduler resolves every await through it: an operation observes the
// first of its completion or an effective cancellation, in journal order.
type historyCursor struct {
	started *api.ExecutionStarted

	schedules   map[int64]*schedule
	resolutions map[int64]*resolution
	cancels     []cancelMark

	// scopeMarkers maps scope id to the seq of its first ScopeCancelled
	// marker, so code-initiated cancels replay at their recorded anchor.
	scopeMarkers map[int]uint64

	cancelRequested bool
	cancelReason    string
	terminal        api.ExecutionEvent
	maxScheduledOp  int64
	lastSeq         uint64
}

// buildCursor decodes a loaded journal into the cursor. A decode failure
// is a storage-level corruption; schedule anomalies are replay mismatches.
func buildCursor(codec serde.Codec, recs []journal.Record) (*historyCursor, error) {
	h := &historyCursor{
		schedules:    make(map[int64]*schedule),
		resolutions:  make(map[int64]*resolution),
		scopeMarkers: make(map[int]uint64),
	}

	for _, rec := range recs {
		event, err := journal.Decode(codec, rec)
		if err != nil {
			return nil, err
		}
		h.lastSeq = rec.Seq

		switch evt := event.(type) {
		case *api.ExecutionStarted:
			h.started = evt

		case *api.ActivityScheduled:
			if prev, dup := h.schedules[evt.Op]; dup {
				// At-least-once appends can repeat a record; only a
				// different schedule at the same op is divergence.
				if prev.kind == opActivity && prev.name == evt.ActivityFnName && prev.scope == evt.Scope {
					continue
				}
				return nil, &ReplayMismatchError{Op: evt.Op, Detail: "conflicting schedule records"}
			}
			h.schedules[evt.Op] = &schedule{
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
			h.maxScheduledOp = max(h.maxScheduledOp, evt.Op)

		case *api.TimerScheduled:
			if prev, dup := h.schedules[evt.Op]; dup {
				if prev.kind == opTimer && prev.scope == evt.Scope {
					continue
				}
				return nil, &ReplayMismatchError{Op: evt.Op, Detail: "conflicting schedule records"}
			}
			h.schedules[evt.Op] = &schedule{
				op:     evt.Op,
				kind:   opTimer,
				name:   "timer",
				scope:  evt.Scope,
				seq:    rec.Seq,
				at:     rec.At,
				fireAt: time.UnixMilli(evt.FireAtUnixMs),
			}
			h.maxScheduledOp = max(h.maxScheduledOp, evt.Op)

		case *api.ActivityCompleted:
			h.addResolution(&resolution{
				op: evt.Op, seq: rec.Seq, outcome: resCompleted, values: evt.Result,
			})

		case *api.ActivityFailed:
			h.addResolution(&resolution{
				op: evt.Op, seq: rec.Seq, outcome: resFailed, errMsg: evt.Error,
			})

		case *api.ActivityTimedOut:
			h.addResolution(&resolution{
				op: evt.Op, seq: rec.Seq, outcome: resTimedOut,
				timeoutType: evt.TimeoutType, timeoutMs: evt.TimeoutMs,
			})

		case *api.TimerFired:
			h.addResolution(&resolution{
				op: evt.Op, seq: rec.Seq, outcome: resCompleted,
			})

		case *api.CancelRequested:
			h.cancels = append(h.cancels, cancelMark{scope: rootScope, seq: rec.Seq})
			if !h.cancelRequested {
				h.cancelRequested = true
				h.cancelReason = evt.Reason
			}

		case *api.ScopeCancelled:
			h.cancels = append(h.cancels, cancelMark{scope: evt.Scope, seq: rec.Seq})
			if _, ok := h.scopeMarkers[evt.Scope]; !ok {
				h.scopeMarkers[evt.Scope] = rec.Seq
			}

		case *api.ExecutionCompleted, *api.ExecutionCancelled, *api.ExecutionFailed:
			h.terminal = event

		default:
			return nil, fmt.Errorf("unhandled journal event %q at seq %d", event.EventName(), rec.Seq)
		}
	}

	return h, nil
}

func (h *historyCursor) addResolution(r *resolution) {
	if _, ok := h.resolutions[r.op]; ok {
		return
	}
	h.resolutions[r.op] = r
}

// effectiveCancel returns the earliest cancellation covering scope, if
// any: journal-anchored marks by their sequence, in-pass code stamps at
// pendingCancelSeq. Detachment rules are evaluated against the arena's
// current structure, which replay rebuilds identically every pass. The
// returned mark names the scope the cancellation targeted, so delivery
// can stamp the arena at the same node.
func (h *historyCursor) effectiveCancel(arena *scopeArena, scope int) (cancelMark, bool) {
	var best cancelMark
	covered := false

	for _, mark := range h.cancels {
		if !arena.valid(mark.scope) {
			// Cancellation of a scope the code has not created yet this
			// pass; it cannot cover anything that exists.
			continue
		}
		if !arena.reaches(mark.scope, scope) {
			continue
		}
		if !covered || mark.seq < best.seq {
			best = mark
			covered = true
		}
	}

	if seq, ok := arena.cancelSeqOf(scope); ok {
		if !covered || seq < best.seq {
			best = cancelMark{scope: scope, seq: seq}
			covered = true
		}
	}

	return best, covered
}

type opState int8

const (
	opPending opState = iota
	opOutcome
	opFault
)

type opDecision struct {
	state  opState
	res    *resolution
	cancel cancelMark
}

// resolve decides an await: the operation's completion and its effective
// cancellation race by journal sequence, first one wins. No completion
// and no cancellation leaves the operation pending.
func (h *historyCursor) resolve(arena *scopeArena, op int64, scope int) opDecision {
	res := h.resolutions[op]
	cancel, covered := h.effectiveCancel(arena, scope)

	switch {
	case res != nil && (!covered || res.seq < cancel.seq):
		return opDecision{state: opOutcome, res: res}
	case covered:
		return opDecision{state: opFault, cancel: cancel}
	default:
		return opDecision{state: opPending}
	}
}
