// Package log provides structured logging with batch-run context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for runtime paths (structured fields)
//   - SugaredLogger: Printf-style logging for CLI/debug surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dexfetch/dexfetch/types"
)

// Logger provides structured logging with run context. All entries carry
// the run id and scheduling mode so interleaved parallel-run output can
// be attributed after the fact.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI and debug surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a new logger with run context, writing to stderr.
func NewLogger(runID string, mode types.RunMode) *Logger {
	return NewLoggerWithWriter(runID, mode, os.Stderr)
}

// NewLoggerWithWriter creates a logger writing to the specified writer.
// The writer is serialized; it does not need to be safe for concurrent
// use.
func NewLoggerWithWriter(runID string, mode types.RunMode, w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)

	zapLogger := zap.New(core).With(
		zap.String("run_id", runID),
		zap.String("mode", string(mode)),
	)
	return &Logger{zap: zapLogger}
}

// Nop returns a logger that discards everything. For tests and for
// callers that have not been given a real logger.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// WithOutput returns a new logger with a different output writer,
// keeping accumulated context fields. The writer is serialized.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel,
	)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

// WithItem returns a logger carrying an item field for per-worker paths.
func (l *Logger) WithItem(item types.Item) *Logger {
	return &Logger{zap: l.zap.With(zap.String("item", item.String()))}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...zap.Field) {
	l.zap.Debug(message, fields...)
}

// Info logs an info message.
func (l *Logger) Info(message string, fields ...zap.Field) {
	l.zap.Info(message, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...zap.Field) {
	l.zap.Warn(message, fields...)
}

// Error logs an error message.
func (l *Logger) Error(message string, fields ...zap.Field) {
	l.zap.Error(message, fields...)
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error { return l.zap.Sync() }

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
