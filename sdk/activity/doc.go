// Package activity documents how to write Canopy activities.
//
// Activities are functions that perform non-deterministic operations such as:
//   - Database queries and updates
//   - External API calls
//   - File I/O operations
//   - Any operation with side effects
//
// # Writing Activities
//
// An activity is a regular Go function taking context.Context first:
//
//	func ComposeGreeting(ctx context.Context, greeting, name string) (string, error) {
//		return fmt.Sprintf("%s %s!", greeting, name), nil
//	}
//
// The context carries the StartToClose deadline when one was configured;
// long-running activities should respect ctx.Done().
//
// # Registration and Invocation
//
// Activities must be registered with a worker before workflows can
// schedule them:
//
//	w.RegisterActivity(ComposeGreeting)
//
// Workflow code schedules them through the workflow context:
//
//	var greeting string
//	err := workflow.ExecuteActivity(ctx, ComposeGreeting, "Hello", name).Get(ctx, &greeting)
//
// # Invocation Metadata
//
// Inside a handler, GetInfo reports which execution and journal operation
// the invocation is serving:
//
//	if info, ok := activity.GetInfo(ctx); ok {
//		logger.Info("composing", "execution_id", info.ExecutionID, "op", info.Op)
//	}
//
// # Outcomes
//
// An activity's return is recorded exactly once per invocation: the value
// on success, the error message on failure, a timeout record when a
// configured timeout elapsed first. Whatever is recorded is what every
// later replay of the workflow observes.
//
// An invocation in flight when its execution is cancelled still runs to
// completion; the engine drops the outcome instead of recording it.
//
// # Best Practices
//
//   - Keep activities focused and single-purpose
//   - Make activities idempotent; dispatch is at-least-once across restarts
//   - Respect context cancellation
//   - Use appropriate timeouts
package activity
