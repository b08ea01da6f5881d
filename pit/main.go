package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/piotrk/taxlot/cmd"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the CLI surface for shell completion.
// Run `COMP_INSTALL=1 pit` once to install it.
var completion = &complete.Command{
	Sub: map[string]*complete.Command{
		"report":    {Flags: map[string]complete.Predictor{"y": predict.Something}},
		"inventory": {},
		"rates": {Flags: map[string]complete.Predictor{
			"currencies": predict.Something,
			"y":          predict.Something,
		}},
		"snapshot": {Flags: map[string]complete.Predictor{
			"cutoff": predict.Something,
			"o":      predict.Files("*.json"),
		}},
		"fmt": {},
	},
	Flags: map[string]complete.Predictor{
		"events":    predict.Files("*.jsonl"),
		"snapshot":  predict.Files("*.json"),
		"cache-dir": predict.Dirs("*"),
	},
}

func main() {
	completion.Complete("pit")

	// Optional .env with TAXLOT_EVENTS, TAXLOT_SNAPSHOT, TAXLOT_CACHE_DIR.
	godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
