package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Usable before Init so nothing logs through a zero Logger.
var log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the package logger. Format "console" gives human-readable
// output for development; anything else emits JSON lines.
func Init(level, format string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	log = out.Level(lvl).With().Timestamp().Logger()
}

func Debug() *zerolog.Event { return log.Debug() }
func Info() *zerolog.Event  { return log.Info() }
func Warn() *zerolog.Event  { return log.Warn() }
func Error() *zerolog.Event { return log.Error() }
func Fatal() *zerolog.Event { return log.Fatal() }

// With returns a child logger carrying the given field on every line.
func With(key, value string) zerolog.Logger {
	return log.With().Str(key, value).Logger()
}
