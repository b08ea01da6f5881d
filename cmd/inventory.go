package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/piotrk/taxlot/renderer"
)

type inventoryCmd struct{}

func (*inventoryCmd) Name() string     { return "inventory" }
func (*inventoryCmd) Synopsis() string { return "open lots remaining after replaying all events" }
func (*inventoryCmd) Usage() string {
	return `pit inventory [-events <file>] [-snapshot <file>] [-cache-dir <dir>]

  Prints the open lots left in the ledger after the full replay: the
  positions carried into the next tax year, with their cost basis.
`
}

func (c *inventoryCmd) SetFlags(f *flag.FlagSet) {}

func (c *inventoryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := buildLedger(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.InventoryMarkdown(ledger.CurrentInventory()))
	return subcommands.ExitSuccess
}
