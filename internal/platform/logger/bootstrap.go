package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// BootstrapLogger prints plain lines to stderr until the configured logger
// exists. It has no dependencies on configuration.
type BootstrapLogger struct {
	logger *log.Logger
}

func NewBootstrapLogger() *BootstrapLogger {
	return newBootstrapLogger(os.Stderr)
}

func newBootstrapLogger(w io.Writer) *BootstrapLogger {
	return &BootstrapLogger{logger: log.New(w, "[bootstrap] ", log.LstdFlags)}
}

func (b *BootstrapLogger) Debug(ctx context.Context, msg string, args ...any) {
	b.print("DEBUG", msg, args)
}

func (b *BootstrapLogger) Info(ctx context.Context, msg string, args ...any) {
	b.print("INFO", msg, args)
}

func (b *BootstrapLogger) Warn(ctx context.Context, msg string, args ...any) {
	b.print("WARN", msg, args)
}

func (b *BootstrapLogger) Error(ctx context.Context, msg string, args ...any) {
	b.print("ERROR", msg, args)
}

// print renders args as key=value pairs; an odd trailing value uses slog's !BADKEY.
func (b *BootstrapLogger) print(level, msg string, args []any) {
	var sb strings.Builder
	sb.WriteString(level)
	sb.WriteByte(' ')
	sb.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 == len(args) {
			fmt.Fprintf(&sb, " !BADKEY=%v", args[i])
			break
		}
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	b.logger.Print(sb.String())
}

var _ Logger = (*BootstrapLogger)(nil)
