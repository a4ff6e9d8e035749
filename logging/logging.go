// Package logging centralizes logger construction so every component logs
// through the same zerolog configuration.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns the application logger. Output goes to stderr so captured
// data pipelines can use stdout freely.
func New(app string, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info for
// an empty string
func ParseLevel(raw string) (zerolog.Level, error) {
	if raw == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(raw)
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
