package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/piotrk/taxlot"
)

// fmtCmd rewrites the events file in canonical order and field layout.
type fmtCmd struct{}

func (*fmtCmd) Name() string     { return "fmt" }
func (*fmtCmd) Synopsis() string { return "validate and canonically rewrite the events file" }
func (*fmtCmd) Usage() string {
	return `pit fmt [-events <file>]

  Parses the events file, validates each event, and rewrites the file
  sorted by date and replay priority with a stable field order.
`
}

func (c *fmtCmd) SetFlags(f *flag.FlagSet) {}

func (c *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	events, err := decodeEvents()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	for i := range events {
		if err := events[i].Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid event %s %s: %v\n", events[i].Date, events[i].Ticker, err)
			return subcommands.ExitFailure
		}
	}

	var buf bytes.Buffer
	if err := taxlot.EncodeEvents(&buf, events); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(eventsPath(), buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not write %q: %v\n", eventsPath(), err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: %d events\n", eventsPath(), len(events))
	return subcommands.ExitSuccess
}
