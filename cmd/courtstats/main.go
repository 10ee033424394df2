package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const appName = "courtstats"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errors.New("no command given")
	}

	command := strings.ToLower(args[0])
	rest := args[1:]

	switch command {
	case "heatmap":
		return handleHeatmap(rest, stdout)
	case "zones":
		return handleZones(rest, stdout)
	case "report":
		return handleReport(rest, stdout)
	case "import":
		return handleImport(rest, stdout)
	case "runs":
		return handleRuns(rest, stdout)
	case "export":
		return handleExport(rest, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `courtstats - occupancy heatmaps and zone dwell times from tracked positions

Usage: courtstats <command> [options]

Commands:
  heatmap    Accumulate an occupancy grid
  zones      Split dwell time across zones along the court width
  report     Heatmap and zones together, optionally per player, into a directory
  import     Store a tracks file and print its match ID
  runs       List the analysis runs recorded for a match
  export     Write a stored match back out as tracks JSON (.gz when --out ends in .gz)
  help       Show this help message

Common Flags:
  --config <dir>       Directory holding courtstats.cfg.json (default: .)
  --tracks <file>      Tracks file: .json, .json.gz or .csv
  --match <id>         Analyse a stored match instead of a tracks file
  --entity <id>        Restrict to one player (default: all players)
  --rows, --cols <n>   Heatmap resolution (overrides grid.rows / grid.cols)
  --zones <list>       Zones as low:high[:name],... (overrides zones)
  --format <fmt>       png, html or json
  --out <path>         Output file, or directory for report

Examples:
  courtstats heatmap --tracks tracks.json --entity 3 --out player3.png
  courtstats zones --tracks tracks.json --zones 0:23:defense,23:45,45:68 --format json
  courtstats report --tracks tracks.json.gz --per-entity --out ./report`)
}
