package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/piotrk/taxlot/date"
)

// ratesCmd prefetches exchange rates so a later report run works offline.
type ratesCmd struct {
	currencies string
	year       int
}

func (*ratesCmd) Name() string     { return "rates" }
func (*ratesCmd) Synopsis() string { return "prefetch exchange rates for a year into the local cache" }
func (*ratesCmd) Usage() string {
	return `pit rates -currencies <USD,EUR,...> [-y <year>] [-cache-dir <dir>]

  Downloads the average exchange-rate tables for each currency, one month
  at a time, and persists them to the cache directory. Subsequent report
  runs resolve rates without touching the network.
`
}

func (c *ratesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currencies, "currencies", "", "Comma-separated currency codes to prefetch (e.g. USD,EUR).")
	f.IntVar(&c.year, "y", date.Today().Year()-1, "Year to prefetch. Defaults to the previous year.")
}

func (c *ratesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.currencies == "" {
		fmt.Fprintln(os.Stderr, "Error: -currencies is required")
		return subcommands.ExitUsageError
	}

	resolver := newResolver()
	for _, cur := range strings.Split(c.currencies, ",") {
		cur = strings.ToUpper(strings.TrimSpace(cur))
		if cur == "" {
			continue
		}
		if err := resolver.PrefetchYear(ctx, cur, c.year); err != nil {
			fmt.Fprintf(os.Stderr, "Error: prefetch %s %d: %v\n", cur, c.year, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("cached %s rates for %d\n", cur, c.year)
	}
	return subcommands.ExitSuccess
}
