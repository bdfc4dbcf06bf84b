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
	"sync"
	"time"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/api/serde"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps journals in process memory. It backs embedded runtimes
// and tests; sequence numbers are contiguous from 1 per execution and a
// batch appends atomically.
type MemoryStore struct {
	mu    sync.Mutex
	codec serde.Codec
	logs  map[api.ExecutionID][]Record
}

// NewMemoryStore builds a store encoding records with codec; nil selects
// MessagePack.
func NewMemoryStore(codec serde.Codec) *MemoryStore {
	if codec == nil {
		codec = serde.Msgpack{}
	}
	return &MemoryStore{
		codec: codec,
		logs:  make(map[api.ExecutionID][]Record),
	}
}

func (s *MemoryStore) Append(_ context.Context, id api.ExecutionID, events ...api.ExecutionEvent) ([]Record, error) {
	if len(events) == 0 {
		return nil, nil
	}

	// Encode outside the critical section would race seq assignment, and
	// encoding is cheap; hold the lock for the whole batch so it lands
	// contiguously.
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[id]
	next := uint64(len(log)) + 1

	appended := make([]Record, 0, len(events))
	for i, event := range events {
		data, err := s.codec.Encode(event)
		if err != nil {
			return nil, fmt.Errorf("journal: encode %q: %w", event.EventName(), err)
		}
		appended = append(appended, Record{
			Seq:  next + uint64(i),
			Name: event.EventName(),
			At:   time.Now().UTC(),
			Data: data,
		})
	}

	s.logs[id] = append(log, appended...)
	return appended, nil
}

func (s *MemoryStore) Load(_ context.Context, id api.ExecutionID) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.logs[id]
	out := make([]Record, len(log))
	copy(out, log)
	return out, nil
}
