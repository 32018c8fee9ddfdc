package aec

import (
	"github.com/pion/logging"
)

// logScope is the scope of every logger the package creates.
const logScope = "aec"

func newLogger(f logging.LoggerFactory) logging.LeveledLogger {
	if f == nil {
		f = defaultLoggerFactory()
	}
	return f.NewLogger(logScope)
}

func defaultLoggerFactory() logging.LoggerFactory {
	f := logging.NewDefaultLoggerFactory()
	f.DefaultLogLevel = logging.LogLevelWarn
	return f
}
