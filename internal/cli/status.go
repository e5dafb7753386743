package cli

import (
	"context"
	"fmt"
	"io"
	"time"
)

// PrintStatus writes the status cells and the checkpoint summary.
func PrintStatus(ctx context.Context, app *App, w io.Writer) error {
	st, err := app.Scanner.Status(ctx)
	if err != nil {
		return err
	}

	if st.Run == nil {
		fmt.Fprintln(w, "no report yet")
	} else {
		fmt.Fprintf(w, "run:          %s\n", st.Run.RunID)
		fmt.Fprintf(w, "started:      %s\n", st.Run.StartedAt.Format(time.RFC3339))
		fmt.Fprintf(w, "last run:     %s\n", st.Run.LastRunAt.Format(time.RFC3339))
		fmt.Fprintf(w, "invocations:  %d\n", st.Run.Invocations)
		fmt.Fprintf(w, "completed:    %s\n", st.Run.Completion)
	}

	if st.Checkpoint == nil {
		fmt.Fprintln(w, "checkpoint:   none")
		return nil
	}
	fmt.Fprintf(w, "checkpoint:   %s (saved %s)\n", st.Checkpoint.ID, st.Checkpoint.SavedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "depth:        %d\n", len(st.Checkpoint.Frames))
	if st.Path != "" {
		fmt.Fprintf(w, "inside:       %s\n", st.Path)
	}
	return nil
}
