package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dexfetch/dexfetch/cli/render"
	"github.com/dexfetch/dexfetch/history"
)

// historyRow is the rendered view of one past run.
type historyRow struct {
	RunID        string  `json:"run_id"`
	Mode         string  `json:"mode"`
	Started      string  `json:"started"`
	DurationMs   int64   `json:"duration_ms"`
	Total        int     `json:"total"`
	Succeeded    int     `json:"succeeded"`
	Skipped      int     `json:"skipped"`
	Failed       int     `json:"failed"`
	SuccessRate  float64 `json:"success_rate"`
	MeanAttempts float64 `json:"mean_attempts"`
}

// HistoryCommand returns the history command.
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show past batch runs, oldest first",
		Flags: append(append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Show only the most recent N runs",
			},
		}, StoreFlags()...), ReadOnlyFlags()...),
		Action: historyAction,
	}
}

func historyAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailedItems)
	}

	path := filepath.Join(c.String("output-dir"), history.DefaultFileName)
	frames, err := history.ReadAll(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read run history: %v", err), exitFailedItems)
	}

	if limit := c.Int("limit"); limit > 0 && len(frames) > limit {
		frames = frames[len(frames)-limit:]
	}

	rows := make([]historyRow, 0, len(frames))
	for _, f := range frames {
		rows = append(rows, historyRow{
			RunID:        f.RunID,
			Mode:         f.Mode,
			Started:      f.Started().Format(time.RFC3339),
			DurationMs:   f.DurationMs,
			Total:        f.Total(),
			Succeeded:    f.Succeeded,
			Skipped:      f.Skipped,
			Failed:       f.Failed,
			SuccessRate:  f.SuccessRate,
			MeanAttempts: f.MeanAttempts,
		})
	}
	return r.Render(rows)
}
