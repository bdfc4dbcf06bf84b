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

package projection

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
	jetstreamx "github.com/canopy-run/canopy/internal/server/infra/jetstream"
)

// ExecutionSummary is one row of the executions listing, folded from the
// journal events of a single execution.
type ExecutionSummary struct {
	ID           api.ExecutionID `json:"id"`
	Workflow     string          `json:"workflow"`
	Status       api.Status      `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Events       int             `json:"events"`
	Error        string          `json:"error,omitempty"`
	CancelReason string          `json:"cancel_reason,omitempty"`
}

// Executions folds the journal stream into an in-memory executions table.
// The durable consumer makes restarts replay from the last acknowledged
// event, so the table converges after a daemon restart.
type Executions struct {
	codec  serde.Codec
	logger *slog.Logger

	mu    sync.RWMutex
	table map[api.ExecutionID]*ExecutionSummary
}

func NewExecutions(codec serde.Codec, logger *slog.Logger) *Executions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executions{
		codec:  codec,
		logger: logger,
		table:  make(map[api.ExecutionID]*ExecutionSummary),
	}
}

// Run consumes the journal stream until ctx is cancelled.
func (p *Executions) Run(ctx context.Context, conn *jetstreamx.Connection) error {
	consumer, err := conn.EnsureConsumer(ctx, api.JournalStream, jetstream.ConsumerConfig{
		Durable:       api.ExecutionProjectorConsumer,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: api.JournalFilterSubjectPattern,
	})
	if err != nil {
		return fmt.Errorf("failed to create executions projector consumer: %w", err)
	}

	cc, err := consumer.Consume(p.handle)
	if err != nil {
		return fmt.Errorf("executions projector failed: %w", err)
	}

	<-ctx.Done()
	cc.Stop()
	p.logger.Debug("executions projector stopped")
	return nil
}

func (p *Executions) handle(msg jetstream.Msg) {
	name := msg.Headers().Get(api.EventNameHeader)
	factory, ok := api.EventFactories()[name]
	if !ok {
		p.logger.Warn("unknown journal event; discarding", "event", name, "subject", msg.Subject())
		msg.Term()
		return
	}

	event := factory()
	if err := p.codec.Decode(msg.Data(), event); err != nil {
		p.logger.Warn("undecodable journal event; discarding", "event", name, "error", err)
		msg.Term()
		return
	}

	id := api.ExecutionID(strings.TrimPrefix(msg.Subject(), api.JournalSubjectPrefix+"."))
	at := time.Now()
	if md, err := msg.Metadata(); err == nil {
		at = md.Timestamp
	}

	p.Apply(id, event, at)
	msg.Ack()
}

// Apply folds one journal event into the table. The consumer calls it for
// every delivered message; tests feed it directly.
func (p *Executions) Apply(id api.ExecutionID, event api.ExecutionEvent, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	row := p.table[id]
	if row == nil {
		row = &ExecutionSummary{ID: id, Status: api.StatusRunning, StartedAt: at}
		p.table[id] = row
	}
	row.Events++
	row.UpdatedAt = at

	switch e := event.(type) {
	case *api.ExecutionStarted:
		row.Workflow = e.WorkflowFnName
		row.StartedAt = at
	case *api.CancelRequested:
		if !row.Status.Terminal() {
			row.Status = api.StatusCancelling
			row.CancelReason = e.Reason
		}
	case *api.ExecutionCompleted:
		row.Status = api.StatusCompleted
	case *api.ExecutionCancelled:
		row.Status = api.StatusCancelled
		row.CancelReason = e.Reason
	case *api.ExecutionFailed:
		row.Status = api.StatusFailed
		row.Error = e.Error
	}
}

// List returns all known executions, most recently started first.
func (p *Executions) List() []ExecutionSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]ExecutionSummary, 0, len(p.table))
	for _, row := range p.table {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

// Get returns the summary for a single execution.
func (p *Executions) Get(id api.ExecutionID) (ExecutionSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	row, ok := p.table[id]
	if !ok {
		return ExecutionSummary{}, false
	}
	return *row, true
}
