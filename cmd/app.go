// Package cmd implements the CLI application to compute yearly tax
// figures from a normalized event file.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/piotrk/taxlot"
	"github.com/piotrk/taxlot/nbp"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reportCmd{}, "reports")
	c.Register(&inventoryCmd{}, "reports")

	c.Register(&ratesCmd{}, "rates")

	c.Register(&snapshotCmd{}, "state")
	c.Register(&fmtCmd{}, "state")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var eventsFile = flag.String("events", "", "Path to the normalized events file (JSONL).\n Defaults to $TAXLOT_EVENTS, then events.jsonl.")
var snapshotFile = flag.String("snapshot", "", "Path to a carry-forward snapshot to seed the ledger from.\n Defaults to $TAXLOT_SNAPSHOT; empty disables.")
var cacheDir = flag.String("cache-dir", "", "Directory for persisted exchange-rate files.\n Defaults to $TAXLOT_CACHE_DIR, then .rates.")

func eventsPath() string {
	if *eventsFile != "" {
		return *eventsFile
	}
	if p := os.Getenv("TAXLOT_EVENTS"); p != "" {
		return p
	}
	return "events.jsonl"
}

func snapshotPath() string {
	if *snapshotFile != "" {
		return *snapshotFile
	}
	return os.Getenv("TAXLOT_SNAPSHOT")
}

func ratesDir() string {
	if *cacheDir != "" {
		return *cacheDir
	}
	if p := os.Getenv("TAXLOT_CACHE_DIR"); p != "" {
		return p
	}
	return ".rates"
}

// newResolver builds the production rate resolver with a persistent cache.
func newResolver() *nbp.Resolver {
	return nbp.NewResolver(nbp.NewClient(), nbp.NewRateCache(ratesDir()))
}

// decodeEvents reads the events file.
func decodeEvents() ([]taxlot.TradeEvent, error) {
	f, err := os.Open(eventsPath())
	if err != nil {
		return nil, fmt.Errorf("could not open events file %q: %w", eventsPath(), err)
	}
	defer f.Close()
	return taxlot.DecodeEvents(f)
}

// buildLedger seeds a ledger from the optional snapshot and replays the
// events file through it.
func buildLedger(ctx context.Context) (*taxlot.Ledger, error) {
	ledger := taxlot.NewLedger(newResolver())

	if p := snapshotPath(); p != "" {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("could not open snapshot %q: %w", p, err)
		}
		cutoff, err := ledger.LoadSnapshot(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "snapshot loaded, replaying events after %s\n", cutoff)
	}

	events, err := decodeEvents()
	if err != nil {
		return nil, err
	}
	ledger.ProcessEvents(ctx, events)
	return ledger, nil
}
