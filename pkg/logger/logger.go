package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// Rotation for the production log files.
	fileMaxSizeMB  = 5
	fileMaxBackups = 5
)

// New returns the process logger and a func that closes its file sinks.
// Production emits JSON to stdout and, unless logDir is "-", to rotating
// error.log (errors only) and combined.log files under logDir. Every other
// environment emits human-readable text to stdout only.
// No business logic should depend on logging implementation details.
func New(level, appEnv, logDir string) (*slog.Logger, func() error) {
	if appEnv != "production" || logDir == "" || logDir == "-" {
		return NewWithWriter(os.Stdout, level, appEnv), func() error { return nil }
	}
	return newWithFiles(os.Stdout, level, logDir)
}

func newWithFiles(stdout io.Writer, level, logDir string) (*slog.Logger, func() error) {
	errFile := rotatingFile(filepath.Join(logDir, "error.log"))
	allFile := rotatingFile(filepath.Join(logDir, "combined.log"))

	lvl := ParseLevel(level)
	h := slogmulti.Fanout(
		slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: lvl}),
		slog.NewJSONHandler(allFile, &slog.HandlerOptions{Level: lvl}),
		slog.NewJSONHandler(errFile, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	return slog.New(h), func() error {
		return errors.Join(errFile.Close(), allFile.Close())
	}
}

func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
	}
}

func NewWithWriter(w io.Writer, level, appEnv string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if appEnv == "production" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey struct{}

// With stores a logger in context.
func With(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From gets a logger from context, falling back to slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
