package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// service is stamped on every record so gateway logs can be told apart
// from other services sharing the same sink.
const service = "wallet-link-gateway"

// New builds the process-wide zerolog.Logger. level accepts debug, info,
// warn and error; anything else falls back to info. pretty switches to
// console output for local development.
func New(level string, pretty bool) zerolog.Logger {
	var w io.Writer = os.Stdout
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Caller().
		Logger()
}

// NewWithWriter builds a logger against a caller-supplied writer. Tests use
// it to capture output.
func NewWithWriter(level string, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
