// Package cli wires the Hindsight command surface: the long-running
// ingestion engine plus read-only reporting views over the same store.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Run    *RunCommand
	List   *ListCommand
	Search *SearchCommand
	Report *ReportCommand
	Top    *TopCommand
	Status *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "hindsight"
	parser.LongDescription = "Local, poll-based browsing history capture across installed browsers."

	cmds := &commands{
		Run:    &RunCommand{globals: &globals, version: version},
		List:   &ListCommand{globals: &globals, version: version},
		Search: &SearchCommand{globals: &globals, version: version},
		Report: &ReportCommand{globals: &globals, version: version},
		Top:    &TopCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("run", "Start the ingestion engine", "Start the ingestion engine: poll all enabled browsers on a fixed interval until shutdown.", cmds.Run)
	parser.AddCommand("list", "Show recent visits", "Show the most recently captured visits, newest first.", cmds.List)
	parser.AddCommand("search", "Search captured visits", "Search captured visits by URL or title substring.", cmds.Search)
	parser.AddCommand("report", "Daily visit report", "Per-domain and per-browser visit totals for a single day.", cmds.Report)
	parser.AddCommand("top", "Top visited sites", "Most visited domains over a trailing window of days.", cmds.Top)
	parser.AddCommand("status", "Show database statistics", "Show overall capture statistics and database summary.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the Hindsight CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("hindsight %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
