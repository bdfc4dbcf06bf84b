// Package worker provides the worker runtime for executing workflows and activities.
//
// Workers are processes that host execution state machines. Each worker
// joins the canopy-workers queue group: start commands are load-balanced
// across the group, and the worker that accepts a start pumps that
// execution until it finishes. Execution journals live in JetStream, so a
// restarted worker resumes its executions from where the journal ends.
//
// # Running a Worker
//
//	c, err := client.NewClient(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	w, err := worker.NewWorker(c, &worker.Options{
//		MaxConcurrentActivities: 32,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	w.RegisterWorkflow(GreetingWorkflow)
//	w.RegisterActivity(acts.ComposeGreeting)
//	w.RegisterActivity(acts.SayGoodbye)
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//		log.Fatal(err)
//	}
//
// # Registration
//
// Workflow functions take workflow.Context first; activity functions take
// context.Context first. Both are registered under their
// import-path-qualified names, so the client can start a workflow by
// passing the same function reference.
//
// Methods work too: register the bound method of an instance that carries
// dependencies, and schedule it from workflow code with the matching
// method expression.
//
//	acts := &Activities{db: db}
//	w.RegisterActivity(acts.ComposeGreeting)
//
//	// inside a workflow:
//	workflow.ExecuteActivity(ctx, (*Activities).ComposeGreeting, "Hello", name)
package worker
