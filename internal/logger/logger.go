// Package logger builds the zerolog loggers injected into the backend and
// the catalog service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures New.
type Options struct {
	Level  string // debug, info, warn, error; anything else means info
	Format string // console or json
	Out    io.Writer
}

// New returns a logger writing to opts.Out (stderr when nil). Console output
// is human readable with RFC3339 timestamps; json output is one object per
// line.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !strings.EqualFold(opts.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Caller().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Nop returns a disabled logger, for tests and library callers that do not
// want output.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
