package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/store"
)

// CleanCommand returns the clean command.
func CleanCommand() *cli.Command {
	return &cli.Command{
		Name:   "clean",
		Usage:  "Remove all outputs and leftover temp files (fs backend)",
		Flags:  StoreFlags(),
		Action: cleanAction,
	}
}

func cleanAction(c *cli.Context) error {
	st, err := openStore(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	fs, ok := st.(*store.FSStore)
	if !ok {
		return cli.Exit("clean supports the fs backend only", exitFailedItems)
	}

	if err := fs.Clean(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("clean failed: %v", err), exitFailedItems)
	}
	fmt.Printf("cleaned %s\n", fs.Root())
	return nil
}
