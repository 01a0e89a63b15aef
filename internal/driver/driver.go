// Package driver defines the boundary between the preparation core and
// the external stage driver that executes control files.
package driver

import (
	"context"
	"time"
)

// Run describes one prepared action invocation handed to the stage driver.
type Run struct {
	ID            string
	Direction     string
	Operation     string
	Action        string
	WorkingDir    string
	ParsetFile    string
	OutputDatamap string
	// Timeout is a suggested execution deadline; zero means none.
	Timeout time.Duration
}

// Driver executes a prepared control file against its external tool and
// reports success or failure. Implementations own all blocking,
// parallelism, and retry policy; the preparation core never waits on a
// tool itself. A tool that runs but produces nothing for some entries is
// a success here; the gap surfaces later as skip flags on the output
// datamap.
type Driver interface {
	Execute(ctx context.Context, run Run) error
}

// Func adapts a function to the Driver interface.
type Func func(ctx context.Context, run Run) error

func (f Func) Execute(ctx context.Context, run Run) error { return f(ctx, run) }
