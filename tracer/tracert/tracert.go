package tracert

import (
	"os"

	"go.uber.org/zap"
)

var defaultSession = Discard()

func init() {
	conf, err := LoadConfig()
	logger := newLogger(conf.Debug)
	if err != nil {
		logger.Debug("invalid trace configuration", zap.Error(err))
	}

	s, err := Open(conf, os.Stdout, logger)
	if err != nil {
		logger.Debug("tracing is disabled", zap.Error(err))
		return
	}
	defaultSession = s
}

func newLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Default returns the session opened at process start.
func Default() *Session {
	return defaultSession
}

func Trace(id uint32) {
	defaultSession.Trace(id)
}

func TraceMessage(msg string, id uint32) {
	defaultSession.TraceMessage(msg, id)
}

// Close closes the default session. Errors are only logged.
func Close() {
	if err := defaultSession.Close(); err != nil {
		defaultSession.logger.Debug("", zap.Error(err))
	}
}

func CloseAndExit(code int) {
	Close()
	os.Exit(code)
}
