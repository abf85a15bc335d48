package runtime

import (
	"os"

	"go.uber.org/zap"

	"github.com/dexfetch/dexfetch/log"
	"github.com/dexfetch/dexfetch/types"
)

// FailureLog is the durable, append-only failure record for one run.
// Opened with truncation at run start so each run's log stands alone;
// every failed attempt and every terminal item failure is appended as
// a timestamped JSON line for post-run inspection.
type FailureLog struct {
	file   *os.File
	logger *log.Logger
}

// OpenFailureLog opens (and truncates) the failure log at path.
func OpenFailureLog(path, runID string, mode types.RunMode) (*FailureLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &FailureLog{
		file:   f,
		logger: log.NewLoggerWithWriter(runID, mode, f),
	}, nil
}

// RecordAttempt appends one failed attempt, whether or not the item
// later succeeds. Nil-receiver safe so runs without a failure log need
// no guards.
func (l *FailureLog) RecordAttempt(item types.Item, attempt int, reason types.FailureReason, err error) {
	if l == nil {
		return
	}
	l.logger.Warn("attempt failed",
		zap.String("item", item.String()),
		zap.Int("attempt", attempt),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
}

// Record appends one terminal item failure. Nil-receiver safe so runs
// without a failure log need no guards.
func (l *FailureLog) Record(res types.ItemResult) {
	if l == nil {
		return
	}
	l.logger.Error("item failed",
		zap.String("item", res.Item.String()),
		zap.String("reason", string(res.Reason)),
		zap.Int("attempts", res.Attempts),
		zap.String("error", res.Err),
	)
}

// Close flushes and closes the underlying file.
func (l *FailureLog) Close() error {
	if l == nil {
		return nil
	}
	_ = l.logger.Sync()
	return l.file.Close()
}
