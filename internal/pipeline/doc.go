// Package pipeline sequences prepared actions through the stage driver
// for one direction at a time.
//
// The runner owns the bookkeeping around an action's lifecycle: setup,
// ledger recording, driver handoff, result collection, and persisting the
// direction's completion state. It performs no concurrent execution
// itself; parallelism across directions lives in the stage driver, and
// the caller must never process the same direction from two runners at
// once.
package pipeline
