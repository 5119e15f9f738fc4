package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ZerologAdapter implements the Logger interface on top of zerolog.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter writes JSON to stdout, or console output in development.
func NewZerologAdapter(env string, level string) *ZerologAdapter {
	var output io.Writer = os.Stdout
	if env == "development" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return newZerologAdapter(output, level)
}

func newZerologAdapter(w io.Writer, level string) *ZerologAdapter {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return &ZerologAdapter{
		logger: zerolog.New(w).Level(lvl).With().Timestamp().Logger().Hook(traceHook{}),
	}
}

// traceHook adds the active span's IDs; events need Ctx(ctx) for it to see them.
type traceHook struct{}

func (traceHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	if sc := trace.SpanContextFromContext(e.GetCtx()); sc.IsValid() {
		e.Str("trace_id", sc.TraceID().String()).Str("span_id", sc.SpanID().String())
	}
}

// Debug logs a message at debug level
func (z *ZerologAdapter) Debug(ctx context.Context, msg string, args ...any) {
	z.logger.Debug().Ctx(ctx).Fields(args).Msg(msg)
}

// Info logs a message at info level
func (z *ZerologAdapter) Info(ctx context.Context, msg string, args ...any) {
	z.logger.Info().Ctx(ctx).Fields(args).Msg(msg)
}

// Warn logs a message at warn level
func (z *ZerologAdapter) Warn(ctx context.Context, msg string, args ...any) {
	z.logger.Warn().Ctx(ctx).Fields(args).Msg(msg)
}

// Error logs a message at error level
func (z *ZerologAdapter) Error(ctx context.Context, msg string, args ...any) {
	z.logger.Error().Ctx(ctx).Fields(args).Msg(msg)
}

var _ Logger = (*ZerologAdapter)(nil)
