package workflow

import (
	"github.com/canopy-run/canopy/sdk/internal"
)

// Future represents the result of an asynchronous workflow operation.
//
// A Future is returned by workflow.ExecuteActivity. Starting several
// activities before calling Get runs them in parallel:
//
//	// Start two activities in parallel
//	f1 := workflow.ExecuteActivity(ctx, ComposeGreeting, "Hello", name)
//	f2 := workflow.ExecuteActivity(ctx, ComposeGreeting, "Bye", name)
//
//	var g1, g2 string
//	if err := f1.Get(ctx, &g1); err != nil {
//		return "", err
//	}
//	if err := f2.Get(ctx, &g2); err != nil {
//		return "", err
//	}
//
// Get blocks the workflow until the operation resolves. During replay Get
// returns recorded outcomes immediately. When the operation's scope is
// cancelled before the outcome lands, Get returns *CancelledError instead.
type Future = internal.Future
