// Package workflow provides the programming model for writing durable workflows.
//
// Workflows are deterministic functions that orchestrate activities and
// survive process restarts: every scheduling decision and outcome is
// recorded in the execution's journal, and re-running the function against
// the journal reconstructs its exact position.
//
// # Writing Workflows
//
// A workflow is a regular Go function that takes a workflow.Context as its
// first parameter:
//
//	func GreetingWorkflow(ctx workflow.Context, name string) (string, error) {
//		var greeting string
//		err := workflow.ExecuteActivity(ctx, ComposeGreeting, "Hello", name).Get(ctx, &greeting)
//		if err != nil {
//			return "", err
//		}
//		return greeting, nil
//	}
//
// # Determinism
//
// Workflow code re-executes from the beginning whenever the execution
// resumes, so it must make the same calls in the same order every time:
//   - No direct I/O operations (filesystem, network, database)
//   - No random number generation
//   - No reading the clock (use workflow.Sleep for delays)
//   - No goroutines
//
// All non-deterministic operations must be performed in activities.
//
// # Cancellation Scopes
//
// Every operation runs inside a cancellation scope. The root scope is
// cancelled when a client cancels the execution; nested scopes come from
// WithCancelScope and cancel their subtree only. When a scope is
// cancelled, operations awaited under it fail with *CancelledError and
// new operations under it fail immediately.
//
//	err := workflow.Sleep(ctx, 10*time.Second)
//	if workflow.IsCancelledError(err) {
//		// Scheduled work under ctx is cancelled too. Cleanup must run
//		// detached from the cancelled lineage:
//		workflow.Detached(ctx, func(dctx workflow.Context) error {
//			var bye string
//			return workflow.ExecuteActivity(dctx, SayGoodbye, name).Get(dctx, &bye)
//		})
//		return "", err
//	}
//
// Returning the *CancelledError records the execution as Cancelled.
// Swallowing it does not resurrect the execution; the engine still
// records Cancelled once the function returns.
//
// # Futures
//
// ExecuteActivity returns a Future. Start several before calling Get to
// run activities in parallel; Get blocks the workflow until the operation
// resolves and decodes its result.
//
// # Activity Options
//
// WithActivityOptions attaches timeouts to every activity scheduled
// through the returned context:
//
//	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
//		ScheduleToCloseTimeout: 10 * time.Second,
//	})
package workflow
