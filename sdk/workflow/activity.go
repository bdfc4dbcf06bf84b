package workflow

import (
	"github.com/canopy-run/canopy/sdk/internal"
)

// ActivityOptions configures how activities scheduled through the context
// are executed.
//
// Use WithActivityOptions to set them:
//
//	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
//		ScheduleToCloseTimeout: 10 * time.Second,
//		StartToCloseTimeout:    5 * time.Second,
//	})
//
// A zero timeout means unlimited. ScheduleToCloseTimeout bounds the whole
// operation from the moment it is recorded; StartToCloseTimeout bounds a
// single handler invocation. Either expiry resolves the pending Future
// with *TimeoutError.
type ActivityOptions = internal.ActivityOptions

// WithActivityOptions returns a context whose scheduled activities carry
// opts. Options apply to activities, not timers.
func WithActivityOptions(ctx Context, opts ActivityOptions) Context {
	return internal.WithActivityOptions(ctx, opts)
}
