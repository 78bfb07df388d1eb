package report

import (
	"context"
	"fmt"
	"io"
	"snapshot-compare/internal/diff"
	"snapshot-compare/internal/storage"
)

type Output struct {
	Path    string
	Format  Format
	Verbose bool
	// Publish uploads the report after writing it when set.
	Publish storage.Storage
	// Out receives the user facing messages; nil discards them.
	Out io.Writer
}

// Create writes the report of results to o.Path. With Verbose set an empty
// result list only prints "Nothing to report".
func Create(ctx context.Context, config Config, results []diff.PairResult, o Output) error {
	out := o.Out
	if out == nil {
		out = io.Discard
	}

	if o.Verbose && len(results) == 0 {
		fmt.Fprintln(out, "Nothing to report")
		return nil
	}

	r, err := New(config, results)
	if err != nil {
		return err
	}
	if err := r.WriteFile(o.Path, o.Format); err != nil {
		return err
	}
	if o.Verbose {
		fmt.Fprintf(out, "Report written into '%s'; found %d images\n", o.Path, r.Len())
	}

	if o.Publish != nil {
		published, err := r.Publish(ctx, o.Publish, o.Format)
		if err != nil {
			return err
		}
		if o.Verbose {
			fmt.Fprintf(out, "Report published to %s\n", published.Report)
		}
	}
	return nil
}
