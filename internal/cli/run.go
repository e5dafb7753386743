package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/sharewalk"
)

// RunOptions are the per-invocation flags of the run command.
type RunOptions struct {
	ForceFresh bool
	StartPath  string
	Budget     time.Duration
}

// Run performs one invocation, prints a summary and records metrics.
func Run(ctx context.Context, app *App, opts RunOptions, w io.Writer) error {
	started := time.Now()
	res, err := app.Scanner.Invoke(ctx, sharewalk.Invocation{
		ForceFresh: opts.ForceFresh,
		StartPath:  opts.StartPath,
		Budget:     opts.Budget,
	})
	app.observe(res, time.Since(started), err)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "run %s (%s): %s after %d steps, %d new rows\n",
		res.RunID, res.Mode, res.State, res.Steps, res.Records)
	if res.State == sharewalk.Suspended {
		fmt.Fprintf(w, "checkpoint %s saved at depth %d, invocation %d\n",
			res.CheckpointID, res.Depth, res.Status.Invocations)
	}
	return nil
}

// observe feeds the invocation metrics and refreshes the textfile, if any.
func (a *App) observe(res *sharewalk.Result, elapsed time.Duration, err error) {
	outcome := ""
	if res != nil {
		outcome = string(res.State)
	}
	a.Metrics.ObserveInvocation(outcome, elapsed, err, time.Now())

	if path := a.Config.Metrics.Textfile; path != "" {
		if werr := a.Metrics.WriteTextfile(path); werr != nil {
			a.Logger.Warn("Failed to write metrics textfile", "path", path, "err", werr)
		}
	}
}
