package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"oro/internal/session"
)

// minCodeLength is the shortest code the tool will store.
const minCodeLength = 4

type setCodeCmd struct {
	open  opener
	plain bool
	out   io.Writer
}

func (*setCodeCmd) Name() string     { return "set-code" }
func (*setCodeCmd) Synopsis() string { return "replace the security code that unlocks the app" }
func (*setCodeCmd) Usage() string {
	return `oro-admin set-code [-plain] <code>

  Stores a new numeric security code. The code is saved as a bcrypt hash
  unless -plain is given. Running sessions stay valid until they expire.
`
}

func (c *setCodeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.plain, "plain", false, "Store the code as plain digits instead of a bcrypt hash.")
}

func (c *setCodeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "set-code takes exactly one argument")
		return subcommands.ExitUsageError
	}
	code := f.Arg(0)
	if session.Digits(code) != code || len(code) < minCodeLength {
		fmt.Fprintf(os.Stderr, "security code must be at least %d digits\n", minCodeLength)
		return subcommands.ExitUsageError
	}

	value := code
	if !c.plain {
		h, err := session.HashCode(code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash security code: %v\n", err)
			return subcommands.ExitFailure
		}
		value = h
	}

	res, _, err := c.open(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer res.Close()

	if err := res.Store.SetSecurityCode(ctx, value); err != nil {
		fmt.Fprintf(os.Stderr, "save security code: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(writerOr(c.out, os.Stdout), "Security code updated")
	return subcommands.ExitSuccess
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
