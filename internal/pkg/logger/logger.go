// Package logger configures the process-wide zerolog logger.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appctx "github.com/eventlane/eventlane/internal/pkg/context"
)

// Init sets the global logger. level is one of zerolog's level strings
// ("debug", "info", ...); unknown values fall back to info. When pretty is
// true output goes through the console writer, otherwise raw JSON.
func Init(service, level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = os.Stdout
	if pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", service).
		Logger()
	Logger = log.Logger
}

// Logger is the configured root logger; components derive from it.
var Logger = log.Logger

// WithCtx returns the global logger enriched with request-scoped fields.
func WithCtx(ctx context.Context) zerolog.Logger {
	l := log.Logger
	if id := appctx.RequestID(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return l
}
