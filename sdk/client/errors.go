package client

import (
	"github.com/canopy-run/canopy/sdk/internal"
)

var (
	// ErrExecutionNotFound is returned when the referenced execution has no
	// journal anywhere the worker can see.
	ErrExecutionNotFound = internal.ErrExecutionNotFound

	// ErrExecutionAlreadyStarted is returned when starting an execution
	// under an id that already has a journal.
	ErrExecutionAlreadyStarted = internal.ErrExecutionAlreadyStarted

	// ErrWorkflowNotRegistered is returned when no worker in the queue
	// group has the requested workflow registered.
	ErrWorkflowNotRegistered = internal.ErrWorkflowNotRegistered
)

// WorkflowExecutionError is returned by Handle.Get and Client.GetResult
// when the execution finished Failed. Message carries the recorded
// failure.
type WorkflowExecutionError = internal.WorkflowExecutionError

// StorageError is returned when the journal read or append behind an
// operation failed. The journal keeps its valid prefix, so the operation
// can be retried once storage recovers.
type StorageError = internal.StorageError
