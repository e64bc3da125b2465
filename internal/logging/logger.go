// Package logging provides structured logging using zerolog.
//
// Human-readable console output is used when stderr is a terminal, JSON
// otherwise or when LOG_FORMAT=json.
//
//	log := logging.Default()
//	log.Info().Str("sheet", "Sheet1").Int("rows", 12).Msg("sheet read")
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var defaultLogger = createDefaultLogger()

// Nop discards everything.
var Nop = zerolog.Nop()

func createDefaultLogger() zerolog.Logger {
	var writer io.Writer = os.Stderr
	if isatty() && os.Getenv("LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
}

// New creates a logger writing JSON to w.
func New(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(defaultLogger.GetLevel()).With().Timestamp().Logger()
}

// Configure rebuilds the default logger from explicit settings.
func Configure(level, format string) {
	var writer io.Writer = os.Stderr
	if format != "json" && isatty() {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen, NoColor: os.Getenv("NO_COLOR") != ""}
	}
	lvl := ParseLevel(level)
	SetDefault(zerolog.New(writer).Level(lvl).With().Timestamp().Logger())
}

// ParseLevel maps a level name to a zerolog level. DEBUG in the environment
// forces debug when no level is given; unknown names fall back to info.
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		if os.Getenv("DEBUG") != "" {
			return zerolog.DebugLevel
		}
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func isatty() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
