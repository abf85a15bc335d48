package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/report"
)

// ExportCommand returns the export command.
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export stored records as CSV",
		ArgsUsage: "[item ...]",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Usage: "CSV output path (- for stdout)",
				Value: "-",
			},
		}, StoreFlags()...),
		Action: exportAction,
	}
}

func exportAction(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	records, err := loadRecords(c, st, c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}

	out := os.Stdout
	if path := c.String("out"); path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot create %s: %v", path, err), exitSetupFailure)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	if err := report.WriteCSV(records, out); err != nil {
		return cli.Exit(fmt.Sprintf("csv export failed: %v", err), exitFailedItems)
	}
	return nil
}
