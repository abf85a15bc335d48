package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/report"
)

// DescribeCommand returns the describe command.
func DescribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "describe",
		Usage:     "Print a sentence for each stored record",
		ArgsUsage: "[item ...]",
		Flags:     StoreFlags(),
		Action:    describeAction,
	}
}

func describeAction(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	records, err := loadRecords(c, st, c.Args().Slice())
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}

	for _, rec := range records {
		fmt.Println(report.Describe(rec))
	}
	return nil
}
