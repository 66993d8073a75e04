package thermo

import "time"

// LogEvent describes one state construction or expression evaluation.
type LogEvent struct {
	Op        string
	Substance Substance
	Label     string
	Pair      string
	Engine    string
	Expr      string
	Duration  time.Duration
	Err       error
}

// Logger records state events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the state.
func WithLogger(logger Logger) Option {
	return func(cfg *stateConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
