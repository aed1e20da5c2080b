package common

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a config string to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// NewLogger returns a text logger writing to w at the given level.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, level string) *slog.Logger {
	lvl, _ := ParseLogLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
