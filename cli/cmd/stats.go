package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/cli/render"
	"github.com/dexfetch/dexfetch/report"
)

// StatsCommand returns the stats command.
// Aggregates the numeric columns of an exported CSV, or of the store's
// current records when no CSV is given.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregate statistics over stored records",
		Flags: append(append([]cli.Flag{
			&cli.StringFlag{
				Name:  "csv",
				Usage: "Aggregate an existing CSV export instead of the store",
			},
		}, StoreFlags()...), ReadOnlyFlags()...),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}

	if path := c.String("csv"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot open %s: %v", path, err), exitSetupFailure)
		}
		defer func() { _ = f.Close() }()

		stats, err := report.Aggregate(f)
		if err != nil {
			return cli.Exit(fmt.Sprintf("aggregation failed: %v", err), exitFailedItems)
		}
		return r.Render(stats)
	}

	st, err := openStore(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	records, err := loadRecords(c, st, nil)
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(records, &buf); err != nil {
		return cli.Exit(fmt.Sprintf("aggregation failed: %v", err), exitFailedItems)
	}
	stats, err := report.Aggregate(&buf)
	if err != nil {
		return cli.Exit(fmt.Sprintf("aggregation failed: %v", err), exitFailedItems)
	}
	return r.Render(stats)
}
