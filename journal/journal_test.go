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

package journal_test

import (
	"context"
	"testing"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
	"github.com/canopy-run/canopy/journal"
)

func TestMemoryStoreAppendAssignsSequences(t *testing.T) {
	store := journal.NewMemoryStore(serde.Msgpack{})
	ctx := context.Background()
	id := api.ExecutionID("exec-1")

	first, err := store.Append(ctx, id,
		&api.ExecutionStarted{ID: id, WorkflowFnName: "greet", Input: []any{"World"}},
		&api.TimerScheduled{ID: id, Op: 1, DurationMs: 50},
	)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(first) != 2 || first[0].Seq != 1 || first[1].Seq != 2 {
		t.Fatalf("want seqs [1 2], got %+v", first)
	}

	second, err := store.Append(ctx, id, &api.TimerFired{ID: id, Op: 1})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second[0].Seq != 3 {
		t.Fatalf("want seq 3, got %d", second[0].Seq)
	}
}

func TestMemoryStoreLoadOrderAndIsolation(t *testing.T) {
	store := journal.NewMemoryStore(serde.Msgpack{})
	ctx := context.Background()

	a := api.ExecutionID("exec-a")
	b := api.ExecutionID("exec-b")

	if _, err := store.Append(ctx, a, &api.ExecutionStarted{ID: a, WorkflowFnName: "wf"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.Append(ctx, b,
		&api.ExecutionStarted{ID: b, WorkflowFnName: "wf"},
		&api.CancelRequested{ID: b},
	); err != nil {
		t.Fatalf("append: %v", err)
	}

	recsA, err := store.Load(ctx, a)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	recsB, err := store.Load(ctx, b)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(recsA) != 1 || len(recsB) != 2 {
		t.Fatalf("journals leaked across executions: a=%d b=%d", len(recsA), len(recsB))
	}
	for i, rec := range recsB {
		if rec.Seq != uint64(i+1) {
			t.Errorf("record %d out of order: seq %d", i, rec.Seq)
		}
	}

	unknown, err := store.Load(ctx, api.ExecutionID("missing"))
	if err != nil {
		t.Fatalf("load unknown: %v", err)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown execution should have an empty journal, got %d records", len(unknown))
	}
}

func TestDecodeRebuildsTypedEvents(t *testing.T) {
	codec := serde.Msgpack{}
	store := journal.NewMemoryStore(codec)
	ctx := context.Background()
	id := api.ExecutionID("exec-decode")

	recs, err := store.Append(ctx, id, &api.ActivityScheduled{
		ID:                id,
		Op:                7,
		Scope:             2,
		ActivityFnName:    "composeGreeting",
		Input:             []any{"Hello", "World"},
		ScheduleToCloseMs: 2000,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	event, err := journal.Decode(codec, recs[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	scheduled, ok := event.(*api.ActivityScheduled)
	if !ok {
		t.Fatalf("decoded wrong type %T", event)
	}
	if scheduled.Op != 7 || scheduled.Scope != 2 || scheduled.ActivityFnName != "composeGreeting" {
		t.Errorf("decoded fields mismatch: %+v", scheduled)
	}
	if scheduled.ScheduleToCloseMs != 2000 {
		t.Errorf("timeout lost in round trip: %+v", scheduled)
	}
}

func TestDecodeUnknownEventName(t *testing.T) {
	rec := journal.Record{Seq: 1, Name: "no/such-event", Data: []byte{0x80}}
	if _, err := journal.Decode(serde.Msgpack{}, rec); err == nil {
		t.Fatal("expected error for unknown event name")
	}
}
