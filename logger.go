package horizonredux

import (
	"github.com/rs/zerolog"
)

type (
	// Logger interface for logging operations.
	Logger interface {
		Log(string)
	}

	// ErrorQueue interface for error reporting.
	ErrorQueue interface {
		Report(error)
	}

	zerologLogger struct {
		logger zerolog.Logger
	}

	zerologErrorQueue struct {
		logger zerolog.Logger
	}
)

// NewZerologLogger writes log messages at debug level.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return &zerologLogger{
		logger: logger,
	}
}

func (zl *zerologLogger) Log(message string) {
	zl.logger.Debug().Msg(message)
}

// NewZerologErrorQueue writes reported errors at error level.
func NewZerologErrorQueue(logger zerolog.Logger) ErrorQueue {
	return &zerologErrorQueue{
		logger: logger,
	}
}

func (zq *zerologErrorQueue) Report(err error) {
	if err == nil {
		return
	}

	zq.logger.Error().Err(err).Msg("horizonredux")
}
