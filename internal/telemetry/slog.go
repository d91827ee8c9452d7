package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs a process-wide slog default logger.
//
// format "json" selects a JSONHandler for production; anything else selects a
// human-readable TextHandler. level is one of "debug", "info", "warn",
// "error" (case-insensitive), defaulting to "info". Installing the logger as
// the slog default means handlers and repositories log through plain
// slog.Info/Warn/Error calls without carrying a *slog.Logger around.
//
// Secrets never belong in log attributes; callers log identifiers and error
// strings only.
func SetupLogger(format, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // include file:line only when debugging
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
