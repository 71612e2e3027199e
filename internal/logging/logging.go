// Package logging sets up the zerolog logger of the httpwire command.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// EnvLevel is the environment variable overriding the configured log level.
const EnvLevel = "HTTPWIRE_LOG_LEVEL"

// New returns a logger writing human readable lines to w. The level is taken
// from EnvLevel when set, from level otherwise.
func New(w io.Writer, level string) (zerolog.Logger, error) {
	if env := os.Getenv(EnvLevel); strings.TrimSpace(env) != "" {
		level = env
	}
	lvl, ok := ParseLevel(level)
	if !ok {
		return zerolog.Nop(), fmt.Errorf("unsupported log level: %q", level)
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	if f, ok := w.(*os.File); ok {
		output.NoColor = !isatty.IsTerminal(f.Fd())
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", "httpwire").Logger(), nil
}

// ParseLevel converts a level name to a zerolog level. An empty name is the
// info level, but is reported as not set.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}
