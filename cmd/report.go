package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/piotrk/taxlot/date"
	"github.com/piotrk/taxlot/renderer"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	year int
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "realized gains and dividend income for a tax year" }
func (*reportCmd) Usage() string {
	return `pit report [-y <year>] [-events <file>] [-snapshot <file>] [-cache-dir <dir>]

  Replays the event file through the FIFO ledger and prints the tax-year
  report: realized disposals with their matched cost basis, dividend
  income with withholding tax, and any data-quality warnings.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "y", date.Today().Year()-1, "Tax year to report on. Defaults to the previous year.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := buildLedger(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md := renderer.RealizedGainsMarkdown(c.year,
		ledger.RealizedGainsIn(c.year),
		ledger.DividendsIn(c.year),
		ledger.Warnings(),
	)
	printMarkdown(md)

	return subcommands.ExitSuccess
}
