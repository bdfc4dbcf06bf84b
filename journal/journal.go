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

// Package journal is the append-only event log executions replay from.
// Every side effect of a workflow is recorded here before it is acted on;
// re-running the workflow against the same journal must reach the same
// state.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

// Record is a stored event envelope. Seq is assigned by the store at
// append time and is strictly increasing within one execution's journal.
type Record struct {
	Seq  uint64    `json:"seq"`
	Name string    `json:"name"`
	At   time.Time `json:"at"`
	Data []byte    `json:"data"`
}

// Store persists execution journals.
//
// Append records events in argument order and returns the stored records
// with their sequence numbers. Appends for one execution from different
// goroutines may interleave; the journal order is the order of record.
// Load returns the full journal in sequence order; an unknown execution
// yields an empty slice, not an error.
type Store interface {
	Append(ctx context.Context, id api.ExecutionID, events ...api.ExecutionEvent) ([]Record, error)
	Load(ctx context.Context, id api.ExecutionID) ([]Record, error)
}

// Decode rebuilds the typed event from a stored record.
func Decode(codec serde.Codec, rec Record) (api.ExecutionEvent, error) {
	factory, ok := api.EventFactories()[rec.Name]
	if !ok {
		return nil, fmt.Errorf("journal: unknown event %q at seq %d", rec.Name, rec.Seq)
	}
	event := factory()
	if err := codec.Decode(rec.Data, event); err != nil {
		return nil, fmt.Errorf("journal: decode %q at seq %d: %w", rec.Name, rec.Seq, err)
	}
	return event, nil
}

// DecodeAll decodes a loaded journal in order.
func DecodeAll(codec serde.Codec, recs []Record) ([]api.ExecutionEvent, error) {
	events := make([]api.ExecutionEvent, 0, len(recs))
	for _, rec := range recs {
		event, err := Decode(codec, rec)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}
