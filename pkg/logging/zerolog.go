// Package logging adapts thermo.Logger to zerolog.
package logging

import (
	"github.com/rs/zerolog"

	thermo "github.com/goliatone/go-thermo"
)

// Option configures a Logger.
type Option func(*Logger)

// WithLevel sets the level successful events are written at. Failed events
// are always written at warn.
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) {
		l.level = level
	}
}

// Logger writes thermo.LogEvent values as structured zerolog entries.
type Logger struct {
	logger zerolog.Logger
	level  zerolog.Level
}

var _ thermo.Logger = (*Logger)(nil)

// New wraps logger, tagging every entry with component=thermo.
func New(logger zerolog.Logger, opts ...Option) *Logger {
	l := &Logger{
		logger: logger.With().Str("component", "thermo").Logger(),
		level:  zerolog.DebugLevel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Log implements thermo.Logger.
func (l *Logger) Log(event thermo.LogEvent) {
	var entry *zerolog.Event
	if event.Err != nil {
		entry = l.logger.Warn().Err(event.Err)
	} else {
		entry = l.logger.WithLevel(l.level)
	}
	entry = entry.Str("op", event.Op).Dur("duration", event.Duration)
	if event.Substance != "" {
		entry = entry.Str("substance", string(event.Substance))
	}
	if event.Label != "" {
		entry = entry.Str("label", event.Label)
	}
	if event.Pair != "" {
		entry = entry.Str("pair", event.Pair)
	}
	if event.Engine != "" {
		entry = entry.Str("engine", event.Engine)
	}
	if event.Expr != "" {
		entry = entry.Str("expr", event.Expr)
	}
	if event.Err != nil {
		entry.Msg("thermo operation failed")
		return
	}
	entry.Msg("thermo operation")
}
