// Package main provides the dexfetch CLI entrypoint.
//
// Usage:
//
//	dexfetch <command> [options]
//
// Exit codes for `run` and `fetch`:
//   - 0: every requested item succeeded or was skipped
//   - 1: one or more items failed, or usage error
//   - 2: setup failure (config, store, scratch)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/cli/cmd"
	"github.com/dexfetch/dexfetch/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "dexfetch",
		Usage:          "Batch Pokédex fetcher and report toolkit",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.FetchCommand(),
			cmd.DescribeCommand(),
			cmd.ExportCommand(),
			cmd.StatsCommand(),
			cmd.HistoryCommand(),
			cmd.ValidateCommand(),
			cmd.CleanCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		// This branch covers unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit so batch outcomes map
// onto process status.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
