package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/sharewalk/pkg/domain"
	"github.com/olekukonko/tablewriter"
)

// Report renders the current output table.
func Report(ctx context.Context, app *App, w io.Writer) error {
	recs, err := app.Scanner.Records(ctx)
	if err != nil {
		return err
	}
	RenderRecords(w, recs)
	return nil
}

// RenderRecords prints records as a table followed by a count.
func RenderRecords(w io.Writer, recs []domain.Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Path", "Kind", "Classification"})
	table.SetAutoWrapText(false)
	for _, r := range recs {
		table.Append([]string{r.Path, string(r.Kind), string(r.Classification)})
	}
	table.Render()
	fmt.Fprintf(w, "%d shared\n", len(recs))
}
