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

package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

var _ Store = (*JetStreamStore)(nil)

// JetStreamStore persists journals on a JetStream stream, one subject per
// execution. Sequence numbers are the stream's own, so they are strictly
// increasing per execution but not contiguous.
type JetStreamStore struct {
	js     jetstream.JetStream
	codec  serde.Codec
	logger *slog.Logger
}

func NewJetStreamStore(js jetstream.JetStream, codec serde.Codec, logger *slog.Logger) *JetStreamStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JetStreamStore{js: js, codec: codec, logger: logger}
}

// EnsureStream provisions the journal stream. Idempotent; both the worker
// and the ops daemon call it on startup.
func EnsureStream(ctx context.Context, js jetstream.JetStream) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        api.JournalStream,
		Description: "Canopy execution journals, one subject per execution",
		Subjects:    []string{api.JournalFilterSubjectPattern},
		Storage:     jetstream.FileStorage,
		Retention:   jetstream.LimitsPolicy,
		Discard:     jetstream.DiscardNew,
	})
	if err != nil {
		return fmt.Errorf("journal: ensure stream %s: %w", api.JournalStream, err)
	}
	return nil
}

func (s *JetStreamStore) Append(ctx context.Context, id api.ExecutionID, events ...api.ExecutionEvent) ([]Record, error) {
	subject := fmt.Sprintf(api.JournalPublishSubjectPattern, id)

	appended := make([]Record, 0, len(events))
	for _, event := range events {
		data, err := s.codec.Encode(event)
		if err != nil {
			return appended, fmt.Errorf("journal: encode %q: %w", event.EventName(), err)
		}

		msg := nats.NewMsg(subject)
		msg.Header.Set(api.EventNameHeader, event.EventName())
		msg.Data = data

		ack, err := s.js.PublishMsg(ctx, msg)
		if err != nil {
			// A failure mid-batch leaves a valid journal prefix; the
			// caller fails the execution, it does not retry blindly.
			return appended, fmt.Errorf("journal: publish %q to %s: %w", event.EventName(), subject, err)
		}

		s.logger.Debug("journal append",
			"execution_id", id,
			"event", event.EventName(),
			"seq", ack.Sequence)

		appended = append(appended, Record{
			Seq:  ack.Sequence,
			Name: event.EventName(),
			At:   time.Now().UTC(),
			Data: data,
		})
	}
	return appended, nil
}

func (s *JetStreamStore) Load(ctx context.Context, id api.ExecutionID) ([]Record, error) {
	subject := fmt.Sprintf(api.JournalPublishSubjectPattern, id)

	stream, err := s.js.Stream(ctx, api.JournalStream)
	if err != nil {
		return nil, fmt.Errorf("journal: open stream %s: %w", api.JournalStream, err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject:     subject,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("journal: consumer for %s: %w", subject, err)
	}

	var out []Record
	for {
		batch, err := consumer.FetchNoWait(500)
		if err != nil {
			return nil, fmt.Errorf("journal: fetch %s: %w", subject, err)
		}

		fetched := 0
		for msg := range batch.Messages() {
			meta, err := msg.Metadata()
			if err != nil {
				return nil, fmt.Errorf("journal: message metadata for %s: %w", subject, err)
			}
			out = append(out, Record{
				Seq:  meta.Sequence.Stream,
				Name: msg.Headers().Get(api.EventNameHeader),
				At:   meta.Timestamp,
				Data: msg.Data(),
			})
			msg.Ack()
			fetched++
		}
		if err := batch.Error(); err != nil {
			return nil, fmt.Errorf("journal: fetch %s: %w", subject, err)
		}
		if fetched == 0 {
			break
		}
	}

	s.logger.Debug("journal load", "execution_id", id, "records", len(out))
	return out, nil
}
