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

package api

// NATS Stream Names
const (
	JournalStream = "CANOPY_JOURNAL"
)

// NATS Subject Prefix
const (
	JournalSubjectPrefix = "journal"
)

// NATS Subject Format
const (
	JournalPublishSubjectPattern = JournalSubjectPrefix + ".%s" // executionID
)

// NATS Subject Patterns
const (
	JournalFilterSubjectPattern = JournalSubjectPrefix + ".>"

	CommandRequestSubjectPattern = "command.request.>"
)

// Specific Command Subjects
const (
	CommandRequestStart  = "command.request.start"
	CommandRequestCancel = "command.request.cancel"
)

// Queue Groups
const (
	WorkerCommandQueueGroup = "canopy-workers"
)

// Durable Consumer Names
const (
	ExecutionProjectorConsumer = "canopy-executions-projector"
)

// KeyValue Bucket Names
const (
	ExecutionResultBucket = "execution-result"
)

// JetStream Headers
const (
	EventNameHeader = "Canopy-Event-Name"
)
