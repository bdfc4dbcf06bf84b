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

package app

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/journal"
)

// ensureStreams provisions the journal stream through the same helper the
// workers use, so both sides agree on the stream configuration.
func (m *Manager) ensureStreams(ctx context.Context) error {
	if err := journal.EnsureStream(ctx, m.conn.JS()); err != nil {
		return fmt.Errorf("failed to ensure journal stream: %w", err)
	}
	return nil
}

func (m *Manager) ensureKV(ctx context.Context) error {
	_, err := m.conn.EnsureKV(ctx, jetstream.KeyValueConfig{
		Bucket:  api.ExecutionResultBucket,
		History: 1,
	})
	if err != nil {
		return err
	}
	return nil
}
