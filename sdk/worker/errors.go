package worker

import (
	"github.com/canopy-run/canopy/sdk/internal"
)

var (
	// ErrWorkflowNotRegistered is returned when a start command names a
	// workflow this worker does not know.
	ErrWorkflowNotRegistered = internal.ErrWorkflowNotRegistered

	// ErrActivityNotRegistered is returned when a scheduled activity is not
	// registered with this worker.
	ErrActivityNotRegistered = internal.ErrActivityNotRegistered

	// ErrInvalidWorkflowFunction is returned when registering a function
	// that does not match the workflow signature.
	ErrInvalidWorkflowFunction = internal.ErrInvalidWorkflowFunction

	// ErrInvalidActivityFunction is returned when registering a function
	// that does not match the activity signature.
	ErrInvalidActivityFunction = internal.ErrInvalidActivityFunction

	// ErrRuntimeClosed is returned when a command reaches a worker that is
	// shutting down.
	ErrRuntimeClosed = internal.ErrRuntimeClosed
)
