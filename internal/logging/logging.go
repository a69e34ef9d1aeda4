// Package logging sets up the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Options selects the log sinks.
type Options struct {
	// Out receives console-formatted output. Defaults to os.Stdout.
	Out io.Writer

	// NoColor disables ANSI colors on the console sink.
	NoColor bool

	// GraylogAddress, when set, also ships every entry to a GELF UDP endpoint.
	GraylogAddress string
}

// ParseLevel maps a level name to a zerolog level. Unknown names yield info.
func ParseLevel(name string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Setup sets the global level and builds the root logger.
// A Graylog endpoint that cannot be dialled is reported and skipped.
func Setup(level string, opts Options) (zerolog.Logger, error) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		},
	}

	var sinkErr error
	if opts.GraylogAddress != "" {
		gw, err := gelf.NewWriter(opts.GraylogAddress)
		if err != nil {
			sinkErr = fmt.Errorf("graylog writer %s: %w", opts.GraylogAddress, err)
		} else {
			writers = append(writers, gw)
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("app", "handplay").
		Logger()

	logger.Info().
		Str("loglevel", zerolog.GlobalLevel().String()).
		Bool("graylog", len(writers) > 1).
		Msg("logging set up")

	return logger, sinkErr
}
