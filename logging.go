package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// logLevel picks the level from the flag, then LUACSV_LOG_LEVEL, then
// LOG_LEVEL. Unknown names fall back to info with a warning.
func logLevel(flagValue string, getenv func(string) string, stderr io.Writer) slog.Level {
	level := flagValue
	if level == "" {
		level = getenv("LUACSV_LOG_LEVEL")
	}
	if level == "" {
		level = getenv("LOG_LEVEL")
	}
	if level == "" {
		return slog.LevelInfo
	}
	return parseLogLevel(level, stderr)
}

func parseLogLevel(level string, stderr io.Writer) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		fmt.Fprintf(stderr, "Warning: Unknown log level '%s', using INFO\n", level)
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", format)
}
