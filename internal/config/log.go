package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLogLevel maps a log_level setting value onto a zap level.
// CRITICAL has no zap counterpart and maps to DPanic, the first level above
// Error that a production logger does not panic on.
func ParseLogLevel(level string) (zapcore.Level, error) {
	normalized, err := normalizeLogLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w for log level: %q", ErrInvalidValue, level)
	}
	switch normalized {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	case "CRITICAL":
		return zapcore.DPanicLevel, nil
	default:
		return zapcore.InfoLevel, nil
	}
}

// NewLogger builds the daemon logger: human-readable lines on stderr and
// JSON lines appended to logPath (skipped when logPath is empty). Both
// outputs share level, so changing it takes effect immediately.
// The returned function flushes and closes the log file.
func NewLogger(level zap.AtomicLevel, logPath string) (*zap.Logger, func(), error) {
	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	closeFile := func() {}
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
		}
		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(f), level))
		closeFile = func() { _ = f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() {
		_ = logger.Sync()
		closeFile()
	}, nil
}
