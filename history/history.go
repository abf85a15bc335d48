package history

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dexfetch/dexfetch/types"
)

// DefaultFileName is the history log file name under the output directory.
const DefaultFileName = "history.dxh"

// SummaryFrame is one persisted run summary.
type SummaryFrame struct {
	RunID        string  `msgpack:"run_id"`
	Mode         string  `msgpack:"mode"`
	StartedAt    int64   `msgpack:"started_at"` // unix seconds, UTC
	DurationMs   int64   `msgpack:"duration_ms"`
	Succeeded    int     `msgpack:"succeeded"`
	Skipped      int     `msgpack:"skipped"`
	Failed       int     `msgpack:"failed"`
	SuccessRate  float64 `msgpack:"success_rate"`
	MeanAttempts float64 `msgpack:"mean_attempts"`
}

// Started is the run start time in UTC.
func (f SummaryFrame) Started() time.Time {
	return time.Unix(f.StartedAt, 0).UTC()
}

// Total is the number of items the run processed.
func (f SummaryFrame) Total() int { return f.Succeeded + f.Skipped + f.Failed }

// Append appends one run summary to the history log at path, creating
// the log if absent. Append-only; earlier runs are never rewritten.
func Append(path string, sum *types.RunSummary) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history log %s: %w", path, err)
	}
	defer f.Close()

	frame := SummaryFrame{
		RunID:        sum.RunID,
		Mode:         string(sum.Mode),
		StartedAt:    sum.StartedAt.Unix(),
		DurationMs:   sum.Duration.Milliseconds(),
		Succeeded:    sum.Succeeded,
		Skipped:      sum.Skipped,
		Failed:       sum.Failed,
		SuccessRate:  sum.SuccessRate(),
		MeanAttempts: sum.MeanAttempts(),
	}
	return writeFrame(f, frame)
}

// ReadAll reads every run summary from the history log at path, oldest
// first. A missing log yields an empty slice.
func ReadAll(path string) ([]SummaryFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open history log %s: %w", path, err)
	}
	defer f.Close()

	dec := frameDecoder{reader: f}
	var frames []SummaryFrame
	for {
		payload, err := dec.readFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}

		var frame SummaryFrame
		if err := msgpack.Unmarshal(payload, &frame); err != nil {
			return nil, &FrameError{
				Kind: FrameErrorDecode,
				Msg:  "failed to decode run summary frame",
				Err:  err,
			}
		}
		frames = append(frames, frame)
	}
}
