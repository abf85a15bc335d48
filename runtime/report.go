package runtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dexfetch/dexfetch/metrics"
	"github.com/dexfetch/dexfetch/types"
)

// RunReport is the structured JSON report written by --report.
type RunReport struct {
	RunID      string        `json:"run_id"`
	Mode       types.RunMode `json:"mode"`
	Version    string        `json:"version"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`

	Total        int     `json:"total"`
	Succeeded    int     `json:"succeeded"`
	Skipped      int     `json:"skipped"`
	Failed       int     `json:"failed"`
	SuccessRate  float64 `json:"success_rate"`
	MeanAttempts float64 `json:"mean_attempts"`

	Results []ReportItem      `json:"results"`
	Metrics *metrics.Snapshot `json:"metrics,omitempty"`
}

// ReportItem is one item's terminal result in the report.
type ReportItem struct {
	Item       string `json:"item"`
	State      string `json:"state"`
	Attempts   int    `json:"attempts"`
	Reason     string `json:"reason,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

// BuildRunReport composes a RunReport from a run summary and a metrics
// snapshot.
func BuildRunReport(sum *types.RunSummary, snap metrics.Snapshot) *RunReport {
	report := &RunReport{
		RunID:        sum.RunID,
		Mode:         sum.Mode,
		Version:      types.Version,
		StartedAt:    sum.StartedAt,
		DurationMs:   sum.Duration.Milliseconds(),
		Total:        sum.Total(),
		Succeeded:    sum.Succeeded,
		Skipped:      sum.Skipped,
		Failed:       sum.Failed,
		SuccessRate:  sum.SuccessRate(),
		MeanAttempts: sum.MeanAttempts(),
		Metrics:      &snap,
	}

	for _, res := range sum.Results {
		report.Results = append(report.Results, ReportItem{
			Item:       res.Item.String(),
			State:      string(res.State),
			Attempts:   res.Attempts,
			Reason:     string(res.Reason),
			Error:      res.Err,
			DurationMs: res.DurationMs(),
		})
	}

	return report
}

// WriteRunReport writes the report as JSON to the specified path.
// If path is "-", writes to stderr.
func WriteRunReport(report *RunReport, path string) error {
	if path == "" {
		return errors.New("report path must not be empty")
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stderr.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write report to stderr: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	return nil
}

// writeRunReportTo writes report JSON to any writer (for testing).
func writeRunReportTo(report *RunReport, w io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
