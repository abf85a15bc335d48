package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/fetch"
	"github.com/dexfetch/dexfetch/metrics"
	"github.com/dexfetch/dexfetch/report"
	"github.com/dexfetch/dexfetch/runtime"
	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// FetchCommand returns the fetch command for a single item.
func FetchCommand() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch and validate a single item",
		ArgsUsage: "<item>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Upstream API base URL",
				Value: fetch.DefaultEndpoint,
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: fetch.DefaultTimeout,
			},
			&cli.IntFlag{
				Name:  "retries",
				Usage: "Max fetch attempts (including the first)",
				Value: runtime.DefaultMaxAttempts,
			},
			&cli.DurationFlag{
				Name:  "retry-delay",
				Usage: "Fixed delay between attempts",
				Value: runtime.DefaultRetryDelay,
			},
		}, StoreFlags()...),
		Action: fetchAction,
	}
}

func fetchAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("fetch requires exactly one item name", exitFailedItems)
	}
	item := types.Item(c.Args().First())
	if err := item.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("invalid item: %v", err), exitFailedItems)
	}

	st, err := openStore(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("store init failed: %v", err), exitSetupFailure)
	}
	defer func() { _ = st.Close() }()

	runID := uuid.NewString()
	runner, err := runtime.NewRunner(runtime.RunnerOptions{
		RunID: runID,
		Config: runtime.BatchConfig{
			Items: []types.Item{item},
			Retry: runtime.RetryConfig{
				MaxAttempts: c.Int("retries"),
				Delay:       c.Duration("retry-delay"),
			},
		},
		Client: fetch.NewClient(fetch.Config{
			Endpoint: c.String("endpoint"),
			Timeout:  c.Duration("timeout"),
		}),
		Store:     st,
		Collector: metrics.NewCollector(string(types.ModeSequential), c.String("store-backend"), runID),
	})
	if err != nil {
		return cli.Exit(fmt.Sprintf("runner setup failed: %v", err), exitSetupFailure)
	}

	sum := runner.RunSequential(c.Context)
	res := sum.Results[0]
	if res.State == types.StateFailed {
		return cli.Exit(fmt.Sprintf("fetch failed: %s (%s): %s", item, res.Reason, res.Err), exitFailedItems)
	}

	rec, err := store.ReadValid(c.Context, st, item)
	if err != nil {
		return cli.Exit(fmt.Sprintf("stored record unreadable: %v", err), exitFailedItems)
	}
	fmt.Println(report.Describe(rec))
	return nil
}
