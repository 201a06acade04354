package backend

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the backend package's logger instance. By default it writes
// warnings and errors to stderr, so ABI mismatch reports surface even when
// nobody configured logging.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = NewStderrLogger(zapcore.WarnLevel)
		}
	})
	return logger
}

// SetLogger configures the backend package's logger.
// This must be called before any finalize operations.
func SetLogger(l *zap.Logger) {
	logger = l
}

// NewStderrLogger builds a console logger writing to stderr at the given
// level.
func NewStderrLogger(level zapcore.Level) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level))
}
