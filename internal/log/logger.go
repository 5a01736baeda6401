package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. service names the binary (api, worker) and
// level overrides the environment default when set.
func New(environment, level, service string) zerolog.Logger {
	return NewWithWriter(os.Stdout, environment, level, service)
}

// NewWithWriter writes JSON lines in production and console output elsewhere.
func NewWithWriter(out io.Writer, environment, level, service string) zerolog.Logger {
	production := environment == "production"
	if !production {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(parseLevel(level, production))

	return zerolog.New(out).With().
		Timestamp().
		Str("env", environment).
		Str("service", service).
		Logger()
}

func parseLevel(level string, production bool) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	if production {
		return zerolog.InfoLevel
	}
	return zerolog.DebugLevel
}
