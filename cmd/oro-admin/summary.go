package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"oro/internal/core"
)

type summaryCmd struct {
	open opener
	out  io.Writer
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the dashboard totals" }
func (*summaryCmd) Usage() string {
	return `oro-admin summary

  Prints the totals shown on the dashboard: overall, per category, the
  average investment and the latest entry.
`
}

func (*summaryCmd) SetFlags(*flag.FlagSet) {}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	res, loc, err := c.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer res.Close()

	records, err := res.Store.ListAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list investments: %v\n", err)
		return subcommands.ExitFailure
	}
	s := core.Summarize(records)

	tw := tabwriter.NewWriter(writerOr(c.out, os.Stdout), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total invested\t%s\t%d entries\n", core.FormatINR(s.TotalInvested), s.TotalEntries)
	for _, ct := range []core.CategoryTotal{s.Gold, s.Silver} {
		fmt.Fprintf(tw, "%s\t%s\t%d entries\n", ct.Category, core.FormatINR(ct.Amount), ct.Count)
	}
	fmt.Fprintf(tw, "Average\t%s\t\n", core.FormatINR(s.Average))
	if s.Last != nil {
		fmt.Fprintf(tw, "Last\t%s\t%s\n", core.FormatINR(s.Last.Amount), s.Last.CreatedAt.In(loc).Format("02 Jan 2006, 15:04"))
	} else {
		fmt.Fprintln(tw, "Last\t-\t")
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
