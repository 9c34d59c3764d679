package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"

	"oro/internal/query"
)

type exportCmd struct {
	open   opener
	output string
	out    io.Writer
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write every investment as CSV" }
func (*exportCmd) Usage() string {
	return `oro-admin export [-o <file>]

  Writes the same CSV as the Export button, newest first. Without -o the
  CSV goes to stdout. Nothing is written when there are no investments.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "Output file. Use \"auto\" for investments_<date>.csv in the current directory.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "No investments to export")
		return subcommands.ExitSuccess
	}

	w := writerOr(c.out, os.Stdout)
	name := c.output
	if name != "" {
		if name == "auto" {
			name = query.ExportFilename(time.Now().In(loc))
		}
		file, err := os.Create(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "create %s: %v\n", name, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}

	if err := query.WriteCSV(w, records, loc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if name != "" {
		fmt.Fprintf(os.Stderr, "Exported %d investments to %s\n", len(records), name)
	}
	return subcommands.ExitSuccess
}
